// Package story implements the interactive what-if explorer over a
// simulation run.
package story

import (
	"slices"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/safedep/covenant/core/policy"
	"github.com/safedep/covenant/simulator"
)

// Model is the bubbletea model of the story explorer.
type Model struct {
	opts      Options
	policyIDs []string
	policies  map[string]simulator.PolicyEntry

	width  int
	height int
	ready  bool

	visible   []int
	cursor    int
	policy    int
	contested bool

	whatIf  *simulator.WhatIfResult
	lastErr string
	help    helpModel
}

// New creates the explorer for opts.Run.
func New(opts Options) Model {
	m := Model{
		opts:      opts,
		policyIDs: opts.policyIDs(),
		policies:  make(map[string]simulator.PolicyEntry, len(opts.Policies)),
		contested: opts.ContestedOnly,
		help:      newHelpModel(),
	}
	for _, p := range opts.Policies {
		m.policies[p.ID] = p
	}
	m.refilter()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "?":
		m.help.toggle()

	case "up", "k":
		m.moveTo(m.cursor - 1)
	case "down", "j":
		m.moveTo(m.cursor + 1)
	case "g", "home":
		m.moveTo(0)
	case "G", "end":
		m.moveTo(len(m.visible) - 1)

	case "tab":
		m.selectPolicy(m.policy + 1)
	case "shift+tab":
		m.selectPolicy(m.policy - 1 + len(m.policyIDs))

	case "esc":
		m.whatIf = nil
		m.lastErr = ""

	case "f":
		m.contested = !m.contested
		m.refilter()

	case "1", "2", "3", "4":
		n, _ := strconv.Atoi(key)
		m.apply(n - 1)
	}

	return m, nil
}

// refilter rebuilds the visible event list, keeping the cursor on the same
// event when it survives the filter.
func (m *Model) refilter() {
	current := -1
	if m.cursor >= 0 && m.cursor < len(m.visible) {
		current = m.visible[m.cursor]
	}

	m.visible = nil
	if m.opts.Run != nil {
		for i, entry := range m.opts.Run.Logs {
			if !m.contested || isContested(entry) {
				m.visible = append(m.visible, i)
			}
		}
	}

	m.cursor = max(slices.Index(m.visible, current), 0)
	m.whatIf = nil
	m.lastErr = ""
}

func (m *Model) moveTo(i int) {
	if len(m.visible) == 0 {
		return
	}
	i = min(max(i, 0), len(m.visible)-1)
	if i != m.cursor {
		m.cursor = i
		m.whatIf = nil
		m.lastErr = ""
	}
}

func (m *Model) selectPolicy(i int) {
	if len(m.policyIDs) == 0 {
		return
	}
	m.policy = i % len(m.policyIDs)
	m.whatIf = nil
	m.lastErr = ""
}

func (m *Model) apply(n int) {
	entry, decision, ok := m.current()
	if !ok {
		return
	}

	choices := simulator.StoryChoices(*decision)
	if n < 0 || n >= len(choices) {
		return
	}

	p, ok := m.policies[decision.PolicyID]
	if !ok {
		m.lastErr = "policy " + decision.PolicyID + " is not loaded; choices are read-only"
		return
	}

	result, err := simulator.WhatIf(p, *entry, choices[n].ID, m.opts.AttestationMode, m.opts.now())
	if err != nil {
		m.lastErr = err.Error()
		return
	}
	m.whatIf = result
	m.lastErr = ""
}

// current returns the selected log entry and the selected policy's
// decision on it.
func (m Model) current() (*simulator.LogEntry, *simulator.PolicyDecision, bool) {
	if len(m.visible) == 0 || len(m.policyIDs) == 0 {
		return nil, nil, false
	}
	entry := &m.opts.Run.Logs[m.visible[m.cursor]]
	id := m.policyIDs[m.policy]
	for i := range entry.Decisions {
		if entry.Decisions[i].PolicyID == id {
			return entry, &entry.Decisions[i], true
		}
	}
	return entry, nil, false
}

func isContested(entry simulator.LogEntry) bool {
	return slices.ContainsFunc(entry.Decisions, func(d simulator.PolicyDecision) bool {
		return d.Decision != policy.OutcomeAllow
	})
}
