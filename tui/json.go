package tui

import (
	"encoding/json"
	"io"

	"github.com/safedep/covenant/simulator"
)

// JSONPresenter renders output as JSON.
type JSONPresenter struct {
	w       io.Writer
	encoder *json.Encoder
}

// NewJSONPresenter creates a new JSON presenter.
func NewJSONPresenter(opts PresenterOptions) *JSONPresenter {
	encoder := json.NewEncoder(opts.Writer)
	encoder.SetIndent("", "  ")
	return &JSONPresenter{
		w:       opts.Writer,
		encoder: encoder,
	}
}

// RenderValidation renders a policy validation result as JSON.
func (p *JSONPresenter) RenderValidation(result *ValidationView) error {
	return p.encoder.Encode(result)
}

// RenderEvaluation renders a single event decision as JSON.
func (p *JSONPresenter) RenderEvaluation(result *EvaluationView) error {
	return p.encoder.Encode(result)
}

// RenderSimulation renders the full run artifact as JSON.
func (p *JSONPresenter) RenderSimulation(result *SimulationView) error {
	return simulator.ExportJSON(p.w, result.Run)
}

// RenderRuns renders a list of stored runs as JSON.
func (p *JSONPresenter) RenderRuns(runs []*RunView) error {
	if runs == nil {
		runs = []*RunView{}
	}
	return p.encoder.Encode(runs)
}

// RenderEvaluations renders stored evaluation records as JSON.
func (p *JSONPresenter) RenderEvaluations(records []*EvaluationRecordView) error {
	if records == nil {
		records = []*EvaluationRecordView{}
	}
	return p.encoder.Encode(records)
}

// RenderPrune renders the retention cleanup result as JSON.
func (p *JSONPresenter) RenderPrune(result *PruneView) error {
	return p.encoder.Encode(result)
}

// RenderDiff renders a diff view as JSON.
func (p *JSONPresenter) RenderDiff(diff *DiffView) error {
	return p.encoder.Encode(diff)
}

// RenderStatus renders the tool status as JSON.
func (p *JSONPresenter) RenderStatus(status *StatusView) error {
	return p.encoder.Encode(status)
}

// RenderConfig renders the configuration as JSON.
func (p *JSONPresenter) RenderConfig(config *ConfigView) error {
	return p.encoder.Encode(config)
}

// RenderVersion renders build information as JSON.
func (p *JSONPresenter) RenderVersion(version *VersionView) error {
	return p.encoder.Encode(version)
}

// RenderError renders an error message as JSON.
func (p *JSONPresenter) RenderError(err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return p.encoder.Encode(output)
}

// RenderMessage renders a simple message as JSON.
func (p *JSONPresenter) RenderMessage(message string) error {
	output := struct {
		Message string `json:"message"`
	}{
		Message: message,
	}
	return p.encoder.Encode(output)
}

// Ensure JSONPresenter implements Presenter
var _ Presenter = (*JSONPresenter)(nil)
