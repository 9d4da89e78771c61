package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/safedep/dry/log"
	"github.com/spf13/cobra"

	"github.com/safedep/covenant/simulator"
	"github.com/safedep/covenant/storage"
	"github.com/safedep/covenant/tui"
)

type simulateFlags struct {
	policies        []string
	count           int
	seed            string
	hours           float64
	profile         string
	faults          string
	mapping         string
	startTime       string
	attestationMode string
	outJSON         string
	outCSV          string
	save            bool
}

// NewSimulateCmd creates the simulate command.
func NewSimulateCmd() *cobra.Command {
	var flags simulateFlags

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay a synthetic timeline under one or more policies",
		Long: `Replay a synthetic timeline under one or more policies.

Generates a deterministic timeline of repository events from the seed,
decides every event under every policy and reports decision rates and
cross-policy disagreement. Unset options come from the simulation section
of the config file. Out-of-range values are clamped, never rejected.`,
		Example: `  covenant simulate
  covenant simulate --policies covenant.yml,strict.yml --count 1000 --seed demo
  covenant simulate --profile strict-stress --faults '{"missing_attestation":0.3}'
  covenant simulate --format json --out-csv metrics.csv --save`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, &flags)
		},
	}

	cmd.Flags().StringSliceVar(&flags.policies, "policies", nil, "comma separated policy files (default from config)")
	cmd.Flags().IntVar(&flags.count, "count", 0, "number of events to generate")
	cmd.Flags().StringVar(&flags.seed, "seed", "", "PRNG seed")
	cmd.Flags().Float64Var(&flags.hours, "hours", 0, "timeline span in hours")
	cmd.Flags().StringVar(&flags.profile, "profile", "", "simulation profile: balanced, churn, strict-stress")
	cmd.Flags().StringVar(&flags.faults, "faults", "", "fault rate overrides as JSON or a path to a JSON file")
	cmd.Flags().StringVar(&flags.mapping, "mapping", "", "event type to action overrides as JSON or a path to a JSON file")
	cmd.Flags().StringVar(&flags.startTime, "start-time", "", "timeline start (ISO 8601, default now)")
	cmd.Flags().StringVar(&flags.attestationMode, "attestation-mode", "", "attestation verifier: simulated, native")
	cmd.Flags().StringVar(&flags.outJSON, "out-json", "", "write the full run as JSON to this file")
	cmd.Flags().StringVar(&flags.outCSV, "out-csv", "", "write the metrics as CSV to this file")
	cmd.Flags().BoolVar(&flags.save, "save", false, "store the run in the local database")

	return cmd
}

func runSimulate(cmd *cobra.Command, flags *simulateFlags) error {
	ctx := context.Background()

	app, err := loadApp(cmd)
	if err != nil {
		return err
	}

	paths := flags.policies
	if len(paths) == 0 {
		paths = []string{app.Config.GetPolicyPath()}
	}
	policies, err := loadPolicyEntries(paths)
	if err != nil {
		return err
	}

	opts, mode, err := simulationOptions(cmd, app, flags)
	if err != nil {
		return err
	}

	message := tui.SimulationMessage(simulator.Normalize(opts).Count, len(policies))
	run, err := tui.RunWithSpinner(message, func() (*simulator.Run, error) {
		return simulator.Simulate(simulator.RunOptions{
			Options:         opts,
			Policies:        policies,
			AttestationMode: mode,
		})
	}, tui.WithWriter(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	view := &tui.SimulationView{Run: run}

	if flags.outJSON != "" {
		if err := writeFile(flags.outJSON, func(w io.Writer) error { return simulator.ExportJSON(w, run) }); err != nil {
			return err
		}
		view.Outputs = append(view.Outputs, flags.outJSON)
	}
	if flags.outCSV != "" {
		if err := writeFile(flags.outCSV, func(w io.Writer) error { return simulator.ExportCSV(w, run.Metrics) }); err != nil {
			return err
		}
		view.Outputs = append(view.Outputs, flags.outCSV)
	}

	if flags.save {
		if err := app.InitStore(ctx); err != nil {
			return ErrDatabase("failed to open database", err)
		}
		defer closeApp(app)

		record, err := saveRun(ctx, app.Store, run, mode)
		if err != nil {
			return err
		}
		view.RunID = record.ID.String()
		view.SavedAt = record.CreatedAt

		if getFormat(globalFlags.Format) != tui.FormatTable {
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved run %s\n", record.ID)
		}
	}

	return app.Presenter.RenderSimulation(view)
}

// simulationOptions layers explicit flags over the configured simulation
// defaults.
func simulationOptions(cmd *cobra.Command, app *App, flags *simulateFlags) (simulator.Options, simulator.AttestationMode, error) {
	opts := app.Config.SimulationOptions()
	mode := app.Config.AttestationMode()

	changed := cmd.Flags().Changed
	if changed("count") {
		opts.Count = simulator.Float(float64(flags.count))
	}
	if changed("seed") {
		opts.Seed = simulator.String(flags.seed)
	}
	if changed("hours") {
		opts.Hours = simulator.Float(flags.hours)
	}
	if changed("profile") {
		opts.Profile = flags.profile
	}
	opts.StartTime = flags.startTime

	if flags.faults != "" {
		if err := parseJSONInput(flags.faults, &opts.FaultRates); err != nil {
			return opts, mode, fmt.Errorf("invalid --faults: %w", err)
		}
	}
	if flags.mapping != "" {
		if err := parseJSONInput(flags.mapping, &opts.MappingOverrides); err != nil {
			return opts, mode, fmt.Errorf("invalid --mapping: %w", err)
		}
	}

	if changed("attestation-mode") {
		parsed, err := simulator.ParseAttestationMode(flags.attestationMode)
		if err != nil {
			return opts, mode, err
		}
		mode = parsed
	}

	return opts, mode, nil
}

// saveRun stores a run with its decision rows.
func saveRun(ctx context.Context, store storage.Store, run *simulator.Run, mode simulator.AttestationMode) (*storage.Run, error) {
	record, decisions, err := storage.NewRunRecord(run, mode, time.Now())
	if err != nil {
		return nil, err
	}
	if err := store.SaveRun(ctx, record, decisions); err != nil {
		return nil, ErrDatabase("failed to save run", err)
	}

	log.Debugf("saved run %s with %d decisions", record.ID, len(decisions))
	return record, nil
}

func writeFile(path string, write func(w io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}()

	if err := write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
