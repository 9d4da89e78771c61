package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/safedep/covenant/simulator"
	"github.com/safedep/covenant/storage"
	"github.com/safedep/covenant/tui"
)

// NewRunsCmd creates the runs command.
func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored simulation runs",
		Long: `Inspect stored simulation runs.

Runs are stored by simulate --save and evaluations by eval --record.
Both expire after storage.retention_days.`,
	}

	cmd.AddCommand(
		newRunsListCmd(),
		newRunsShowCmd(),
		newRunsEvalsCmd(),
		newRunsPruneCmd(),
	)

	return cmd
}

func newRunsListCmd() *cobra.Command {
	var (
		limit    int
		profile  string
		policyID string
		today    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Example: `  covenant runs list
  covenant runs list --policy strict.yml --limit 5
  covenant runs list --today --format csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			app, err := loadApp(cmd)
			if err != nil {
				return err
			}

			if err := app.InitStore(ctx); err != nil {
				return ErrDatabase("failed to open database", err)
			}
			defer closeApp(app)

			filter := storage.NewRunFilter()
			if today {
				filter = storage.Today()
			}
			filter.WithLimit(limit).WithProfile(profile).WithPolicy(policyID)

			runs, err := app.Store.QueryRuns(ctx, filter)
			if err != nil {
				return ErrDatabase("failed to query runs", err)
			}

			views := make([]*tui.RunView, 0, len(runs))
			for _, run := range runs {
				views = append(views, runToView(run))
			}
			return app.Presenter.RenderRuns(views)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs")
	cmd.Flags().StringVar(&profile, "profile", "", "only runs with this simulation profile")
	cmd.Flags().StringVar(&policyID, "policy", "", "only runs that replayed this policy id")
	cmd.Flags().BoolVar(&today, "today", false, "only runs created today")

	return cmd
}

func newRunsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a stored run",
		Long: `Show a stored run.

The run id may be abbreviated to any unique prefix. With --format json the
full run artifact is printed, identical to simulate --format json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			ref, err := resolveRun(ctx, app, args[0])
			if err != nil {
				return err
			}

			view := &tui.SimulationView{Run: ref.Run}
			if ref.Record != nil {
				view.RunID = ref.Record.ID.String()
				view.SavedAt = ref.Record.CreatedAt
			}
			return app.Presenter.RenderSimulation(view)
		},
	}

	return cmd
}

func newRunsEvalsCmd() *cobra.Command {
	var (
		limit    int
		decision string
		action   string
	)

	cmd := &cobra.Command{
		Use:   "evals",
		Short: "List recorded evaluations, newest first",
		Example: `  covenant runs evals
  covenant runs evals --decision deny --action pull_request.open`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			app, err := loadApp(cmd)
			if err != nil {
				return err
			}

			if err := app.InitStore(ctx); err != nil {
				return ErrDatabase("failed to open database", err)
			}
			defer closeApp(app)

			filter := storage.NewEvaluationFilter()
			filter.Limit = limit
			filter.Decision = decision
			filter.Action = action

			records, err := app.Store.QueryEvaluations(ctx, filter)
			if err != nil {
				return ErrDatabase("failed to query evaluations", err)
			}

			views := make([]*tui.EvaluationRecordView, 0, len(records))
			for _, rec := range records {
				views = append(views, &tui.EvaluationRecordView{
					ID:          rec.ID.String(),
					ShortID:     tui.FormatShortID(rec.ID.String()),
					CreatedAt:   rec.CreatedAt,
					PolicyPath:  rec.PolicyPath,
					Action:      rec.Action,
					ActorID:     rec.ActorID,
					Decision:    rec.Decision,
					ReasonCodes: rec.ReasonCodes,
				})
			}
			return app.Presenter.RenderEvaluations(views)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of evaluations")
	cmd.Flags().StringVar(&decision, "decision", "", "only this decision: allow, warn, deny")
	cmd.Flags().StringVar(&action, "action", "", "only this canonical action")

	return cmd
}

func runToView(run *storage.Run) *tui.RunView {
	return &tui.RunView{
		ID:               run.ID.String(),
		ShortID:          tui.FormatShortID(run.ID.String()),
		CreatedAt:        run.CreatedAt,
		Seed:             run.Seed,
		Profile:          run.Profile,
		EventCount:       run.EventCount,
		AttestationMode:  run.AttestationMode,
		PolicyIDs:        run.PolicyIDs,
		DisagreementRate: run.DisagreementRate,
	}
}

// runRef is a run loaded from a JSON export or from the store. Record is
// nil for exports.
type runRef struct {
	Label  string
	Run    *simulator.Run
	Record *storage.Run
}

// resolveRun loads ref as a JSON export when it names a file, otherwise as
// a stored run id or id prefix. The store is opened on demand and closed
// with the app.
func resolveRun(ctx context.Context, app *App, ref string) (*runRef, error) {
	if stat, err := os.Stat(ref); err == nil && stat.Mode().IsRegular() {
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, fmt.Errorf("failed to read run %s: %w", ref, err)
		}
		var run simulator.Run
		if err := json.Unmarshal(data, &run); err != nil {
			return nil, fmt.Errorf("failed to decode run %s: %w", ref, err)
		}
		return &runRef{Label: ref, Run: &run}, nil
	}

	if app.Store == nil {
		if err := app.InitStore(ctx); err != nil {
			return nil, ErrDatabase("failed to open database", err)
		}
	}

	record, err := app.Store.GetRunByPrefix(ctx, ref)
	if err != nil {
		return nil, ErrDatabase("failed to get run", err)
	}
	if record == nil {
		return nil, NewCLIError(ExitGeneral, fmt.Sprintf("run not found: %s", ref))
	}

	run, err := record.DecodeArtifact()
	if err != nil {
		return nil, err
	}
	return &runRef{Label: tui.FormatShortID(record.ID.String()), Run: run, Record: record}, nil
}
