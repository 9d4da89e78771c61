package story

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/safedep/covenant/simulator"
)

const listWidth = 44

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	header := m.headerView()
	footer := m.footerView()
	contentHeight := max(m.height-2, 3)

	if m.help.visible {
		return lipgloss.JoinVertical(lipgloss.Left, header, m.help.view(m.width, contentHeight), footer)
	}

	if len(m.visible) == 0 {
		placeholder := lipgloss.Place(m.width, contentHeight, lipgloss.Center, lipgloss.Center, "No events to explore.")
		return lipgloss.JoinVertical(lipgloss.Left, header, placeholder, footer)
	}

	left := min(listWidth, m.width/2)
	list := panelStyle.Width(left - 2).Height(contentHeight - 2).Render(m.listView(contentHeight - 2))
	detail := activePanelStyle.Width(max(m.width-left-2, 20)).Height(contentHeight - 2).Render(m.detailView())

	content := lipgloss.JoinHorizontal(lipgloss.Top, list, detail)
	content = lipgloss.NewStyle().Width(m.width).Height(contentHeight).MaxHeight(contentHeight).Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (m Model) headerView() string {
	parts := []string{"covenant story"}
	if run := m.opts.Run; run != nil {
		parts = append(parts,
			"seed "+run.Config.Seed,
			string(run.Config.Profile),
			fmt.Sprintf("%d/%d events", len(m.visible), len(run.Logs)))
	}
	if m.contested {
		parts = append(parts, "contested only")
	}
	return titleStyle.Width(m.width).Render(" " + strings.Join(parts, " │ "))
}

func (m Model) footerView() string {
	hints := " q quit  ? help  ↑↓ event  tab policy  1-4 what-if  f filter"
	if m.lastErr != "" {
		hints += "  err: " + m.lastErr
	}
	return footerStyle.Width(m.width).Render(hints)
}

// listView renders a window of events around the cursor.
func (m Model) listView(height int) string {
	rows := max(height-1, 1)
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := min(start+rows, len(m.visible))

	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Timeline"))
	for i := start; i < end; i++ {
		entry := m.opts.Run.Logs[m.visible[i]]

		marks := make([]string, 0, len(entry.Decisions))
		for _, d := range entry.Decisions {
			marks = append(marks, mark(d.Decision))
		}
		row := fmt.Sprintf("%s %-24s %s", entry.ID, truncate(entry.CanonicalAction, 24), strings.Join(marks, ""))
		if i == m.cursor {
			row = selectedRowStyle.Render(row)
		}
		b.WriteByte('\n')
		b.WriteString(row)
	}
	return b.String()
}

func (m Model) detailView() string {
	entry, decision, ok := m.current()

	if entry == nil {
		return errorStyle.Render("No policies in this run.")
	}

	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Policy " + m.policyIDs[m.policy]))
	b.WriteString("\n\n")

	field := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteByte('\n')
	}

	field("Event", fmt.Sprintf("%s (%s)", entry.ID, entry.Timestamp))
	field("Type", entry.SimulatorType)
	if ev := entry.Event; ev != nil {
		field("Action", ev.Action)
		actor := ev.Actor.ID
		if ev.Actor.Kind != "" {
			actor += " (" + string(ev.Actor.Kind) + ")"
		}
		field("Actor", actor)
		if ev.Target.Branch != "" {
			field("Branch", ev.Target.Branch)
		}
	}
	if len(entry.FaultsApplied) > 0 {
		field("Faults", strings.Join(entry.FaultsApplied, ", "))
	}
	b.WriteByte('\n')

	if !ok {
		b.WriteString(errorStyle.Render("No decision recorded for this policy."))
		return b.String()
	}

	b.WriteString(badge(decision.Decision))
	if decision.SelectedRuleID != "" {
		b.WriteString("  rule " + decision.SelectedRuleID)
	}
	b.WriteByte('\n')
	for _, code := range decision.ReasonCodes {
		b.WriteString("  - " + code + "\n")
	}
	b.WriteByte('\n')

	b.WriteString(panelTitleStyle.Render("What if"))
	b.WriteByte('\n')
	for i, choice := range simulator.StoryChoices(*decision) {
		b.WriteString(choiceKeyStyle.Render(fmt.Sprintf("[%d] ", i+1)))
		b.WriteString(choice.Label)
		b.WriteByte('\n')
		b.WriteString("    " + explanationStyle.Render(choice.Explanation))
		b.WriteByte('\n')
	}

	if r := m.whatIf; r != nil {
		b.WriteByte('\n')
		verdict := "unchanged"
		if r.Changed() {
			verdict = "changed"
		}
		b.WriteString(fmt.Sprintf("%s: %s -> %s (%s)\n", r.Choice.Label, badge(r.Before.Decision), badge(r.After.Decision), verdict))
		for _, code := range r.After.ReasonCodes {
			b.WriteString("  - " + code + "\n")
		}
	}

	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
