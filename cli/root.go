// Package cli provides the command-line interface for covenant.
package cli

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/safedep/dry/log"
	"github.com/spf13/cobra"

	"github.com/safedep/covenant/config"
	"github.com/safedep/covenant/internal/version"
	"github.com/safedep/covenant/storage"
	"github.com/safedep/covenant/tui"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	Store     storage.Store
	Presenter tui.Presenter
	Paths     *config.Paths
}

// NewApp creates a new App with the given configuration. Output goes to out.
func NewApp(cfg *config.Config, out io.Writer) *App {
	paths := config.ResolvePaths()
	if globalFlags.ConfigPath != "" {
		paths.ConfigFile = globalFlags.ConfigPath
	}

	presenter := tui.NewPresenter(getFormat(globalFlags.Format), tui.PresenterOptions{
		Writer:        out,
		UseColors:     cfg.ShouldUseColors(),
		Verbose:       globalFlags.Verbose,
		TerminalWidth: tui.TerminalWidth(out),
	})

	return &App{
		Config:    cfg,
		Presenter: presenter,
		Paths:     paths,
	}
}

// InitStore initializes the database store.
func (a *App) InitStore(ctx context.Context) error {
	dbPath := a.Config.GetDatabasePath()
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return err
	}
	a.Store = store
	log.Debugf("opened run store at %s", dbPath)
	return nil
}

// Close closes the application resources.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// closeApp closes app and logs failures.
func closeApp(app *App) {
	if err := app.Close(); err != nil {
		log.Errorf("failed to close app: %v", err)
	}
}

// GlobalFlags holds the global command flags.
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
	NoColor    bool
	Format     string
}

var globalFlags GlobalFlags

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "covenant",
		Short: "Policy decisions for autonomous repository agents",
		Long: `Covenant decides whether an actor may perform a repository action.

It validates covenant.yml policies, evaluates canonical events against
them and simulates synthetic timelines to compare policies side by side.`,
		Version: version.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if os.Getenv("NO_COLOR") != "" {
				globalFlags.NoColor = true
			}

			if os.Getenv("COVENANT_NO_COLOR") != "" {
				globalFlags.NoColor = true
			}

			setupInternalLogger()

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigPath, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "increase output verbosity")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.NoColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&globalFlags.Format, "format", string(tui.FormatTable), "output format: table, json, jsonl, csv")

	rootCmd.AddCommand(
		NewValidateCmd(),
		NewEvalCmd(),
		NewSimulateCmd(),
		NewRunsCmd(),
		NewDiffCmd(),
		NewStoryCmd(),
		NewStatusCmd(),
		NewConfigCmd(),
		NewVersionCmd(),
	)

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// setupInternalLogger sets up the DRY logger
func setupInternalLogger() {
	// Command output belongs to the presenter.
	_ = os.Setenv("APP_LOG_SKIP_STDOUT_LOGGER", "true")

	log.Init("covenant", "cli")
}

// loadApp loads the application with configuration. Output is written to
// the command's stdout.
func loadApp(cmd *cobra.Command) (*App, error) {
	cfg, err := config.Load(globalFlags.ConfigPath)
	if errors.Is(err, fs.ErrNotExist) {
		// An explicit --config that does not exist yet is created by config set
		cfg = config.Default()
	} else if err != nil {
		return nil, ErrConfig("failed to load config", err)
	}

	if globalFlags.NoColor {
		cfg.Display.Colors = config.ColorNever
	}

	return NewApp(cfg, cmd.OutOrStdout()), nil
}

// getFormat returns the output format from flags or default.
func getFormat(format string) tui.Format {
	switch format {
	case "json":
		return tui.FormatJSON
	case "jsonl":
		return tui.FormatJSONL
	case "csv":
		return tui.FormatCSV
	default:
		return tui.FormatTable
	}
}
