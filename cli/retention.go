package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/safedep/covenant/storage"
	"github.com/safedep/covenant/tui"
)

// newRunsPruneCmd creates the runs prune subcommand.
func newRunsPruneCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs and evaluations older than the retention period",
		Long: `Delete runs and evaluations older than the retention period.

Removes stored runs, their decisions and recorded evaluations older than
the configured storage.retention_days. A retention of 0 keeps everything.`,
		Example: `  covenant runs prune
  covenant runs prune --dry-run`,
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

			retention := storage.NewRetentionPolicy(app.Config.Storage.RetentionDays)
			result, err := retention.Apply(ctx, app.Store, time.Now(), dryRun)
			if err != nil {
				return ErrDatabase("failed to apply retention", err)
			}

			return app.Presenter.RenderPrune(&tui.PruneView{
				RetentionDays:      retention.RetentionDays,
				Cutoff:             result.Cutoff,
				DryRun:             result.DryRun,
				RunsDeleted:        result.RunsDeleted,
				EvaluationsDeleted: result.EvaluationsDeleted,
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be deleted without deleting")

	return cmd
}
