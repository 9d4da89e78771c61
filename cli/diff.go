package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/safedep/covenant/tui"
	"github.com/safedep/covenant/utils/diff"
)

// NewDiffCmd creates the diff command.
func NewDiffCmd() *cobra.Command {
	var (
		policyID     string
		contextLines int
	)

	cmd := &cobra.Command{
		Use:   "diff <run-a> <run-b>",
		Short: "Compare the decision timelines of two runs",
		Long: `Compare the decision timelines of two runs.

Each run is a JSON export written by simulate --out-json or a stored run
id. Every decision becomes one line of the form

  <event_id> <policy_id> <decision> <reason_codes>

and the two timelines are shown as a unified diff. Runs with the same
seed and options differ only where their policies do.`,
		Example: `  covenant diff 3f2a9c1b 7d41e0aa
  covenant diff before.json after.json --policy covenant.yml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			left, err := decisionTimeline(ctx, app, args[0], policyID)
			if err != nil {
				return err
			}
			right, err := decisionTimeline(ctx, app, args[1], policyID)
			if err != nil {
				return err
			}

			result, err := diff.Unified(left.label, right.label, left.lines, right.lines, contextLines)
			if err != nil {
				return fmt.Errorf("failed to diff runs: %w", err)
			}

			return app.Presenter.RenderDiff(&tui.DiffView{
				Left:      left.label,
				Right:     right.label,
				Identical: result.Identical(),
				Added:     result.Added,
				Removed:   result.Removed,
				Content:   result.Content,
			})
		},
	}

	cmd.Flags().StringVar(&policyID, "policy", "", "only compare decisions of this policy id")
	cmd.Flags().IntVar(&contextLines, "context", 2, "lines of context around each change")

	return cmd
}

type timeline struct {
	label string
	lines []string
}

func decisionLine(eventID, policyID, decision string, reasons []string) string {
	return fmt.Sprintf("%s %s %s %s", eventID, policyID, decision, strings.Join(reasons, ","))
}

// decisionTimeline loads a run and flattens its decisions into diff lines.
// Stored runs are read from their decision rows.
func decisionTimeline(ctx context.Context, app *App, ref, policyID string) (*timeline, error) {
	run, err := resolveRun(ctx, app, ref)
	if err != nil {
		return nil, err
	}

	out := &timeline{label: run.Label}

	if run.Record != nil {
		records, err := app.Store.GetRunDecisions(ctx, run.Record.ID, policyID)
		if err != nil {
			return nil, ErrDatabase("failed to get run decisions", err)
		}
		for _, d := range records {
			out.lines = append(out.lines, decisionLine(d.EventID, d.PolicyID, d.Decision, d.ReasonCodes))
		}
		return out, nil
	}

	for _, entry := range run.Run.Logs {
		for _, d := range entry.Decisions {
			if policyID != "" && d.PolicyID != policyID {
				continue
			}
			out.lines = append(out.lines, decisionLine(entry.ID, d.PolicyID, d.Decision.String(), d.ReasonCodes))
		}
	}
	return out, nil
}
