package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/safedep/covenant/internal/version"
	"github.com/safedep/covenant/storage"
	"github.com/safedep/covenant/tui"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show database and configuration status",
		Long: `Show database and configuration status.

Displays the current status of the tool including:
- Tool version
- Database location, size and record counts
- Configuration settings and pending retention cleanup`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			view := &tui.StatusView{
				Version: version.Version,
			}

			dbPath := app.Config.GetDatabasePath()
			view.Database = tui.DatabaseView{
				Location: dbPath,
			}

			// Do not create the database just to report on it
			if _, err := os.Stat(dbPath); err == nil {
				if err := app.InitStore(ctx); err != nil {
					return ErrDatabase("failed to open database", err)
				}

				info, err := app.Store.GetDatabaseInfo(ctx)
				if err != nil {
					return ErrDatabase("failed to read database info", err)
				}
				view.Database.SizeBytes = info.SizeBytes
				view.Database.SizeHuman = tui.FormatBytes(info.SizeBytes)
				view.Database.RunCount = info.RunCount
				view.Database.EvaluationCount = info.EvaluationCount
				view.Database.OldestRun = info.OldestRun
				view.Database.NewestRun = info.NewestRun
			}

			view.Config = tui.ConfigStatusView{
				Location:      app.Paths.ConfigFile,
				PolicyPath:    app.Config.GetPolicyPath(),
				Profile:       app.Config.Simulation.Profile,
				RetentionDays: app.Config.Storage.RetentionDays,
			}

			retention := storage.NewRetentionPolicy(app.Config.Storage.RetentionDays)
			if retention.IsEnabled() && app.Store != nil {
				cutoff := retention.CutoffTime(time.Now())
				view.Config.RetentionCutoff = cutoff
				if count, err := app.Store.CountRunsBefore(ctx, cutoff); err == nil {
					view.Config.RunsToClean = count
				}
			}

			return app.Presenter.RenderStatus(view)
		},
	}

	return cmd
}
