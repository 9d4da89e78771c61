package tui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/safedep/covenant/core/enforcement"
	"github.com/safedep/covenant/simulator"
)

// TablePresenter renders output in table format.
type TablePresenter struct {
	w         io.Writer
	color     *Colorizer
	verbose   bool
	termWidth int
}

// NewTablePresenter creates a new table presenter.
func NewTablePresenter(opts PresenterOptions) *TablePresenter {
	termWidth := opts.TerminalWidth
	if termWidth == 0 {
		termWidth = TerminalWidth(opts.Writer)
	}
	return &TablePresenter{
		w:         opts.Writer,
		color:     NewColorizer(opts.UseColors),
		verbose:   opts.Verbose,
		termWidth: termWidth,
	}
}

// RenderValidation renders a policy validation result.
func (p *TablePresenter) RenderValidation(result *ValidationView) error {
	tw := &tableWriter{w: p.w}

	if result.Valid {
		tw.printf("%s  %s\n", p.color.StatusOK(), p.color.Path(result.Path))
		tw.printf("      %-12s %s\n", "Policy hash", result.PolicyHash)
		return tw.Err()
	}

	tw.printf("%s  %s\n", p.color.StatusFail(), p.color.Path(result.Path))
	tw.printf("%s\n", p.color.Error("Policy validation failed:"))
	tw.issues(result.Issues)
	return tw.Err()
}

// RenderEvaluation renders a single event decision.
func (p *TablePresenter) RenderEvaluation(result *EvaluationView) error {
	tw := &tableWriter{w: p.w}
	d := result.Decision

	tw.section(p.color.Header("Decision"), p.termWidth)
	tw.printf("  %-16s %s\n", "Decision", p.color.Outcome(d.Decision, strings.ToUpper(d.Decision.String())))
	if result.Action != "" {
		tw.printf("  %-16s %s\n", "Action", result.Action)
	}
	tw.printf("  %-16s %s (%s)\n", "Actor", d.Actor.ID, d.Actor.Kind)
	if d.Actor.ProfileID != "" {
		tw.printf("  %-16s %s\n", "Actor profile", d.Actor.ProfileID)
	}
	tw.printf("  %-16s %s\n", "Selected rule", FormatOptional(d.SelectedRuleID))
	tw.printf("  %-16s %d\n", "Matched rules", d.MatchedRuleCount)
	if result.PolicyPath != "" {
		tw.printf("  %-16s %s\n", "Policy", p.color.Path(result.PolicyPath))
	}
	if p.verbose && result.PolicyHash != "" {
		tw.printf("  %-16s %s\n", "Policy hash", result.PolicyHash)
	}
	tw.println()

	tw.printf("%s\n", p.color.Header("Reason codes"))
	tw.reasonCodes(d.ReasonCodes)

	if len(result.EnforcementActions) > 0 {
		tw.println()
		tw.printf("%s\n", p.color.Header("Enforcement"))
		for _, action := range result.EnforcementActions {
			tw.printf("  %-20s %s\n", action.Type, describeAction(action))
		}
	}

	if result.RecordID != "" {
		tw.println()
		tw.printf("Recorded as %s\n", p.color.Dim(result.RecordID))
	}

	return tw.Err()
}

func describeAction(action enforcement.Action) string {
	switch {
	case action.Message != "":
		return action.Message
	case len(action.Labels) > 0:
		return strings.Join(action.Labels, ", ")
	case action.Context != "":
		return action.Context + ": " + action.Description
	case action.Branch != "":
		return "-> " + action.Branch
	default:
		return ""
	}
}

// RenderSimulation renders a simulation run summary.
func (p *TablePresenter) RenderSimulation(result *SimulationView) error {
	tw := &tableWriter{w: p.w}
	run := result.Run
	cfg := run.Config

	title := "Simulation"
	if result.RunID != "" {
		title += " " + result.RunID
	}
	tw.section(p.color.Header(title), p.termWidth)
	tw.printf("  %-14s %s\n", "Seed", cfg.Seed)
	tw.printf("  %-14s %s\n", "Profile", cfg.Profile)
	tw.printf("  %-14s %s over %dh\n", "Events", p.color.Number(FormatNumber(len(run.Events))), cfg.Hours)
	if cfg.StartTime != nil {
		tw.printf("  %-14s %s\n", "Start", *cfg.StartTime)
	}
	if !result.SavedAt.IsZero() {
		tw.printf("  %-14s %s\n", "Saved", FormatTime(result.SavedAt))
	}
	tw.println()

	ids := run.Metrics.CrossPolicy.PolicyIDs
	width := len("POLICY")
	for _, id := range ids {
		width = max(width, len(id))
	}
	width = min(width, 40)

	rowFmt := fmt.Sprintf("  %%-%ds %%6s %%6s %%6s %%8s %%8s  %%s\n", width)
	tw.printf("%s\n", p.color.Header("Decisions"))
	tw.printf(rowFmt, "POLICY", "ALLOW", "WARN", "DENY", "WARN%", "DENY%", "TOP REASON")
	for _, id := range ids {
		m := run.Metrics.ByPolicy[id]
		if m == nil {
			continue
		}
		top := "-"
		if reason, ok := m.TopReason(0); ok {
			top = fmt.Sprintf("%s (%d)", reason.ReasonCode, reason.Count)
		}
		tw.printf(rowFmt,
			p.color.Policy(PadRight(TruncateString(id, width), width)),
			FormatNumber(m.Totals.Allow),
			FormatNumber(m.Totals.Warn),
			FormatNumber(m.Totals.Deny),
			FormatPercent(m.Rates.Warn),
			FormatPercent(m.Rates.Deny),
			top)
	}
	tw.println()

	cross := run.Metrics.CrossPolicy
	tw.printf("%s\n", p.color.Header("Cross-policy"))
	tw.printf("  %-20s %s of %s events (%s)\n", "Disagreements",
		p.color.Number(FormatNumber(cross.DisagreementCount)),
		FormatNumber(cross.ComparedEvents),
		FormatPercent(cross.DisagreementRate))

	if p.verbose {
		p.renderTopReasons(tw, run.Metrics)
		p.renderFaults(tw, run.Events)
	}

	if len(result.Outputs) > 0 {
		tw.println()
		for _, out := range result.Outputs {
			tw.printf("Wrote %s\n", p.color.Path(out))
		}
	}

	return tw.Err()
}

func (p *TablePresenter) renderTopReasons(tw *tableWriter, m *simulator.Metrics) {
	for _, id := range m.CrossPolicy.PolicyIDs {
		pm := m.ByPolicy[id]
		if pm == nil || len(pm.TopRejectionReasons) == 0 {
			continue
		}
		tw.println()
		tw.printf("%s %s\n", p.color.Header("Top rejection reasons"), p.color.Policy(id))
		for _, r := range pm.TopRejectionReasons {
			tw.printf("  %6d  %s\n", r.Count, r.ReasonCode)
		}
	}
}

func (p *TablePresenter) renderFaults(tw *tableWriter, timeline []simulator.TimelineEvent) {
	counts := map[string]int{}
	for _, ev := range timeline {
		for _, fault := range ev.FaultsApplied {
			counts[fault]++
		}
	}
	if len(counts) == 0 {
		return
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	tw.println()
	tw.printf("%s\n", p.color.Header("Injected faults"))
	for _, name := range names {
		tw.printf("  %-24s %d\n", name, counts[name])
	}
}

// RenderRuns renders a list of stored runs.
func (p *TablePresenter) RenderRuns(runs []*RunView) error {
	tw := &tableWriter{w: p.w}

	if len(runs) == 0 {
		tw.println("No runs found.")
		return tw.Err()
	}

	rowFmt := "%-8s  %-19s  %-14s  %-14s  %6s  %8s  %s\n"
	tw.section(fmt.Sprintf("Runs (%d)", len(runs)), p.termWidth)
	tw.printf(rowFmt, "ID", "Created", "Seed", "Profile", "Events", "Disagree", "Policies")
	tw.println(HorizontalLine(p.termWidth))

	for _, r := range runs {
		tw.printf(rowFmt,
			p.color.Dim(r.ShortID),
			FormatTime(r.CreatedAt),
			TruncateString(r.Seed, 14),
			r.Profile,
			FormatNumber(r.EventCount),
			FormatPercent(r.DisagreementRate),
			strings.Join(r.PolicyIDs, ", "))
	}

	return tw.Err()
}

// RenderEvaluations renders stored evaluation records.
func (p *TablePresenter) RenderEvaluations(records []*EvaluationRecordView) error {
	tw := &tableWriter{w: p.w}

	if len(records) == 0 {
		tw.println("No evaluations found.")
		return tw.Err()
	}

	tw.section(fmt.Sprintf("Evaluations (%d)", len(records)), p.termWidth)

	for _, r := range records {
		decision := PadRight(r.Decision, 5)
		tw.printf("%s  %s  %s  %-22s %s\n",
			p.color.Dim(r.ShortID),
			FormatTime(r.CreatedAt),
			p.color.OutcomeName(r.Decision, decision),
			r.Action,
			r.ActorID)

		reasons := TruncateString(FormatReasons(r.ReasonCodes), max(p.termWidth-12, 20))
		tw.printf("          %s\n", p.color.Dim(reasons))
	}

	return tw.Err()
}

// RenderPrune renders the retention cleanup result.
func (p *TablePresenter) RenderPrune(result *PruneView) error {
	tw := &tableWriter{w: p.w}

	if result.RetentionDays == 0 {
		tw.println("Retention is disabled (storage.retention_days = 0).")
		return tw.Err()
	}

	verb := "Deleted"
	if result.DryRun {
		verb = "Would delete"
	}
	tw.printf("%s %s runs and %s evaluations older than %s (%d days).\n",
		verb,
		p.color.Number(FormatNumber(result.RunsDeleted)),
		p.color.Number(FormatNumber(result.EvaluationsDeleted)),
		FormatDate(result.Cutoff),
		result.RetentionDays)

	return tw.Err()
}

// RenderDiff renders a diff view.
func (p *TablePresenter) RenderDiff(diff *DiffView) error {
	tw := &tableWriter{w: p.w}

	if diff.Identical {
		tw.printf("No decision differences between %s and %s.\n", diff.Left, diff.Right)
		return tw.Err()
	}

	for _, line := range strings.Split(strings.TrimSuffix(diff.Content, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---"):
			tw.println(p.color.DiffHeader(line))
		case strings.HasPrefix(line, "+"):
			tw.println(p.color.DiffAdd(line))
		case strings.HasPrefix(line, "-"):
			tw.println(p.color.DiffRemove(line))
		case strings.HasPrefix(line, "@@"):
			tw.println(p.color.DiffHunk(line))
		default:
			tw.println(line)
		}
	}

	tw.println()
	tw.printf("%s added, %s removed\n",
		p.color.Success(FormatNumber(diff.Added)),
		p.color.Error(FormatNumber(diff.Removed)))

	return tw.Err()
}

// RenderStatus renders the tool status.
func (p *TablePresenter) RenderStatus(status *StatusView) error {
	tw := &tableWriter{w: p.w}

	tw.printf("%s\n\n", p.color.Header("covenant "+status.Version))

	tw.printf("%s\n", p.color.Header("Database"))
	tw.printf("  %-14s %s\n", "Location", p.color.Path(status.Database.Location))
	tw.printf("  %-14s %s\n", "Size", status.Database.SizeHuman)
	tw.printf("  %-14s %s\n", "Runs", p.color.Number(FormatNumber(status.Database.RunCount)))
	tw.printf("  %-14s %s\n", "Evaluations", p.color.Number(FormatNumber(status.Database.EvaluationCount)))
	if !status.Database.OldestRun.IsZero() {
		tw.printf("  %-14s %s\n", "Oldest", FormatTime(status.Database.OldestRun))
		tw.printf("  %-14s %s\n", "Latest", FormatTime(status.Database.NewestRun))
	}
	tw.println()

	tw.printf("%s\n", p.color.Header("Config"))
	tw.printf("  %-14s %s\n", "Location", p.color.Path(status.Config.Location))
	tw.printf("  %-14s %s\n", "Policy", status.Config.PolicyPath)
	tw.printf("  %-14s %s\n", "Profile", status.Config.Profile)
	if status.Config.RetentionDays > 0 {
		tw.printf("  %-14s %d days (%d runs due for cleanup)\n", "Retention",
			status.Config.RetentionDays, status.Config.RunsToClean)
	} else {
		tw.printf("  %-14s disabled\n", "Retention")
	}

	return tw.Err()
}

// RenderConfig renders the configuration.
func (p *TablePresenter) RenderConfig(config *ConfigView) error {
	tw := &tableWriter{w: p.w}

	tw.printf("%s\n", p.color.Header("Configuration"))
	tw.printf("Location: %s\n", p.color.Path(config.Location))
	tw.println(HorizontalLine(p.termWidth))
	tw.println()

	for _, entry := range flattenConfig(config.Values, "") {
		tw.printf("  %-30s %v\n", entry.key, entry.value)
	}

	return tw.Err()
}

type configEntry struct {
	key   string
	value interface{}
}

// flattenConfig returns dotted keys in sorted order.
func flattenConfig(m map[string]interface{}, prefix string) []configEntry {
	var entries []configEntry
	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]interface{}); ok {
			entries = append(entries, flattenConfig(nested, fullKey)...)
			continue
		}
		entries = append(entries, configEntry{key: fullKey, value: value})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	return entries
}

// RenderVersion renders build information.
func (p *TablePresenter) RenderVersion(version *VersionView) error {
	tw := &tableWriter{w: p.w}
	tw.printf("covenant %s (%s)\n", version.Version, version.Commit)
	return tw.Err()
}

// RenderError renders an error message.
func (p *TablePresenter) RenderError(err error) error {
	tw := &tableWriter{w: p.w}
	tw.printf("%s %s\n", p.color.Error("Error:"), err.Error())
	return tw.Err()
}

// RenderMessage renders a simple message.
func (p *TablePresenter) RenderMessage(message string) error {
	tw := &tableWriter{w: p.w}
	tw.println(message)
	return tw.Err()
}

// Ensure TablePresenter implements Presenter
var _ Presenter = (*TablePresenter)(nil)
