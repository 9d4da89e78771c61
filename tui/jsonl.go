package tui

import (
	"encoding/json"
	"io"
)

// JSONLPresenter renders output as newline-delimited JSON.
type JSONLPresenter struct {
	w       io.Writer
	encoder *json.Encoder
}

// NewJSONLPresenter creates a new JSONL presenter.
func NewJSONLPresenter(opts PresenterOptions) *JSONLPresenter {
	encoder := json.NewEncoder(opts.Writer)
	// No indentation for JSONL
	return &JSONLPresenter{
		w:       opts.Writer,
		encoder: encoder,
	}
}

// RenderValidation renders a policy validation result as JSONL.
func (p *JSONLPresenter) RenderValidation(result *ValidationView) error {
	return p.encoder.Encode(result)
}

// RenderEvaluation renders a single event decision as JSONL.
func (p *JSONLPresenter) RenderEvaluation(result *EvaluationView) error {
	return p.encoder.Encode(result)
}

// RenderSimulation renders the replay log as JSONL, one event per line.
func (p *JSONLPresenter) RenderSimulation(result *SimulationView) error {
	for i := range result.Run.Logs {
		if err := p.encoder.Encode(&result.Run.Logs[i]); err != nil {
			return err
		}
	}
	return nil
}

// RenderRuns renders a list of stored runs as JSONL (one per line).
func (p *JSONLPresenter) RenderRuns(runs []*RunView) error {
	for _, r := range runs {
		if err := p.encoder.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// RenderEvaluations renders stored evaluation records as JSONL (one per line).
func (p *JSONLPresenter) RenderEvaluations(records []*EvaluationRecordView) error {
	for _, r := range records {
		if err := p.encoder.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// RenderPrune renders the retention cleanup result as JSONL.
func (p *JSONLPresenter) RenderPrune(result *PruneView) error {
	return p.encoder.Encode(result)
}

// RenderDiff renders a diff view as JSONL.
func (p *JSONLPresenter) RenderDiff(diff *DiffView) error {
	return p.encoder.Encode(diff)
}

// RenderStatus renders the tool status as JSONL.
func (p *JSONLPresenter) RenderStatus(status *StatusView) error {
	return p.encoder.Encode(status)
}

// RenderConfig renders the configuration as JSONL.
func (p *JSONLPresenter) RenderConfig(config *ConfigView) error {
	return p.encoder.Encode(config)
}

// RenderVersion renders build information as JSONL.
func (p *JSONLPresenter) RenderVersion(version *VersionView) error {
	return p.encoder.Encode(version)
}

// RenderError renders an error message as JSONL.
func (p *JSONLPresenter) RenderError(err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return p.encoder.Encode(output)
}

// RenderMessage renders a simple message as JSONL.
func (p *JSONLPresenter) RenderMessage(message string) error {
	output := struct {
		Message string `json:"message"`
	}{
		Message: message,
	}
	return p.encoder.Encode(output)
}

// Ensure JSONLPresenter implements Presenter
var _ Presenter = (*JSONLPresenter)(nil)
