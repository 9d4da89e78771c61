// Package tui provides the presentation layer for terminal output.
package tui

import (
	"io"
	"os"
)

// Format represents the output format.
type Format string

const (
	// FormatTable is the default table format.
	FormatTable Format = "table"
	// FormatJSON is JSON format.
	FormatJSON Format = "json"
	// FormatJSONL is newline-delimited JSON format.
	FormatJSONL Format = "jsonl"
	// FormatCSV is CSV format.
	FormatCSV Format = "csv"
)

// Formats lists the supported output formats.
var Formats = []Format{FormatTable, FormatJSON, FormatJSONL, FormatCSV}

// Presenter defines the interface for output rendering.
type Presenter interface {
	// RenderValidation renders a policy validation result.
	RenderValidation(result *ValidationView) error

	// RenderEvaluation renders a single event decision.
	RenderEvaluation(result *EvaluationView) error

	// RenderSimulation renders a simulation run summary.
	RenderSimulation(result *SimulationView) error

	// RenderRuns renders a list of stored runs.
	RenderRuns(runs []*RunView) error

	// RenderEvaluations renders stored evaluation records.
	RenderEvaluations(records []*EvaluationRecordView) error

	// RenderPrune renders the retention cleanup result.
	RenderPrune(result *PruneView) error

	// RenderDiff renders a diff view.
	RenderDiff(diff *DiffView) error

	// RenderStatus renders the tool status.
	RenderStatus(status *StatusView) error

	// RenderConfig renders the configuration.
	RenderConfig(config *ConfigView) error

	// RenderVersion renders build information.
	RenderVersion(version *VersionView) error

	// RenderError renders an error message.
	RenderError(err error) error

	// RenderMessage renders a simple message.
	RenderMessage(message string) error
}

// PresenterOptions configures presenter behavior.
type PresenterOptions struct {
	// Writer is the output destination.
	Writer io.Writer
	// UseColors indicates if colors should be used.
	UseColors bool
	// Verbose increases output verbosity.
	Verbose bool
	// TerminalWidth is the width of the terminal for table rendering.
	// If 0, the width will be auto-detected.
	TerminalWidth int
}

// NewPresenter creates a new presenter for the given format.
func NewPresenter(format Format, opts PresenterOptions) Presenter {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	switch format {
	case FormatJSON:
		return NewJSONPresenter(opts)
	case FormatJSONL:
		return NewJSONLPresenter(opts)
	case FormatCSV:
		return NewCSVPresenter(opts)
	default:
		return NewTablePresenter(opts)
	}
}

// DefaultPresenter returns a presenter with default options.
func DefaultPresenter() Presenter {
	return NewPresenter(FormatTable, PresenterOptions{
		Writer:    os.Stdout,
		UseColors: true,
	})
}
