package tui

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/safedep/covenant/simulator"
)

// CSVPresenter renders output as CSV.
type CSVPresenter struct {
	w      io.Writer
	writer *csv.Writer
}

// NewCSVPresenter creates a new CSV presenter.
func NewCSVPresenter(opts PresenterOptions) *CSVPresenter {
	return &CSVPresenter{
		w:      opts.Writer,
		writer: csv.NewWriter(opts.Writer),
	}
}

func (p *CSVPresenter) flush() error {
	p.writer.Flush()
	return p.writer.Error()
}

// RenderValidation renders a policy validation result as CSV.
func (p *CSVPresenter) RenderValidation(result *ValidationView) error {
	p.writer.Write([]string{"valid", "path", "policy_hash", "issue_path", "issue_message"})

	valid := strconv.FormatBool(result.Valid)
	if len(result.Issues) == 0 {
		p.writer.Write([]string{valid, result.Path, result.PolicyHash, "", ""})
	}
	for _, issue := range result.Issues {
		p.writer.Write([]string{valid, result.Path, result.PolicyHash, issue.Path, issue.Message})
	}

	return p.flush()
}

// RenderEvaluation renders a single event decision as CSV.
func (p *CSVPresenter) RenderEvaluation(result *EvaluationView) error {
	d := result.Decision
	actions := make([]string, 0, len(result.EnforcementActions))
	for _, a := range result.EnforcementActions {
		actions = append(actions, a.Type)
	}

	p.writer.Write([]string{
		"decision", "actor_id", "actor_kind", "selected_rule_id",
		"matched_rule_count", "reason_codes", "enforcement_actions",
	})
	p.writer.Write([]string{
		d.Decision.String(),
		d.Actor.ID,
		string(d.Actor.Kind),
		d.SelectedRuleID,
		strconv.Itoa(d.MatchedRuleCount),
		strings.Join(d.ReasonCodes, ";"),
		strings.Join(actions, ";"),
	})

	return p.flush()
}

// RenderSimulation renders the run metrics as CSV.
func (p *CSVPresenter) RenderSimulation(result *SimulationView) error {
	return simulator.ExportCSV(p.w, result.Run.Metrics)
}

// RenderRuns renders a list of stored runs as CSV.
func (p *CSVPresenter) RenderRuns(runs []*RunView) error {
	p.writer.Write([]string{
		"id", "created_at", "seed", "profile", "event_count",
		"attestation_mode", "policy_ids", "disagreement_rate",
	})

	for _, r := range runs {
		p.writer.Write([]string{
			r.ID,
			FormatTime(r.CreatedAt),
			r.Seed,
			r.Profile,
			strconv.Itoa(r.EventCount),
			r.AttestationMode,
			strings.Join(r.PolicyIDs, ";"),
			strconv.FormatFloat(r.DisagreementRate, 'f', 4, 64),
		})
	}

	return p.flush()
}

// RenderEvaluations renders stored evaluation records as CSV.
func (p *CSVPresenter) RenderEvaluations(records []*EvaluationRecordView) error {
	p.writer.Write([]string{"id", "created_at", "policy_path", "action", "actor_id", "decision", "reason_codes"})

	for _, r := range records {
		p.writer.Write([]string{
			r.ID,
			FormatTime(r.CreatedAt),
			r.PolicyPath,
			r.Action,
			r.ActorID,
			r.Decision,
			strings.Join(r.ReasonCodes, ";"),
		})
	}

	return p.flush()
}

// RenderPrune renders the retention cleanup result as CSV.
func (p *CSVPresenter) RenderPrune(result *PruneView) error {
	p.writer.Write([]string{"retention_days", "cutoff", "dry_run", "runs_deleted", "evaluations_deleted"})
	p.writer.Write([]string{
		strconv.Itoa(result.RetentionDays),
		FormatTime(result.Cutoff),
		strconv.FormatBool(result.DryRun),
		strconv.Itoa(result.RunsDeleted),
		strconv.Itoa(result.EvaluationsDeleted),
	})
	return p.flush()
}

// RenderDiff renders a diff view as CSV (content as single field).
func (p *CSVPresenter) RenderDiff(diff *DiffView) error {
	p.writer.Write([]string{"left", "right", "identical", "added", "removed", "content"})
	p.writer.Write([]string{
		diff.Left,
		diff.Right,
		strconv.FormatBool(diff.Identical),
		strconv.Itoa(diff.Added),
		strconv.Itoa(diff.Removed),
		diff.Content,
	})
	return p.flush()
}

// RenderStatus renders the tool status as CSV.
func (p *CSVPresenter) RenderStatus(status *StatusView) error {
	p.writer.Write([]string{"type", "name", "value"})
	p.writer.Write([]string{"version", "covenant", status.Version})
	p.writer.Write([]string{"database", "location", status.Database.Location})
	p.writer.Write([]string{"database", "runs", fmt.Sprintf("%d", status.Database.RunCount)})
	p.writer.Write([]string{"database", "evaluations", fmt.Sprintf("%d", status.Database.EvaluationCount)})
	p.writer.Write([]string{"config", "location", status.Config.Location})
	p.writer.Write([]string{"config", "retention_days", fmt.Sprintf("%d", status.Config.RetentionDays)})
	return p.flush()
}

// RenderConfig renders the configuration as CSV.
func (p *CSVPresenter) RenderConfig(config *ConfigView) error {
	p.writer.Write([]string{"key", "value"})
	for _, entry := range flattenConfig(config.Values, "") {
		p.writer.Write([]string{entry.key, fmt.Sprintf("%v", entry.value)})
	}
	return p.flush()
}

// RenderVersion renders build information as CSV.
func (p *CSVPresenter) RenderVersion(version *VersionView) error {
	p.writer.Write([]string{"version", "commit"})
	p.writer.Write([]string{version.Version, version.Commit})
	return p.flush()
}

// RenderError renders an error message as CSV.
func (p *CSVPresenter) RenderError(err error) error {
	p.writer.Write([]string{"error"})
	p.writer.Write([]string{err.Error()})
	return p.flush()
}

// RenderMessage renders a simple message as CSV.
func (p *CSVPresenter) RenderMessage(message string) error {
	p.writer.Write([]string{"message"})
	p.writer.Write([]string{message})
	return p.flush()
}

// Ensure CSVPresenter implements Presenter
var _ Presenter = (*CSVPresenter)(nil)
