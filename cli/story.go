package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/safedep/dry/log"
	"github.com/spf13/cobra"

	"github.com/safedep/covenant/simulator"
	"github.com/safedep/covenant/tui"
	"github.com/safedep/covenant/tui/component/story"
)

type storyParams struct {
	run       string
	policies  []string
	contested bool
}

// NewStoryCmd creates the story command.
func NewStoryCmd() *cobra.Command {
	var p storyParams

	cmd := &cobra.Command{
		Use:   "story",
		Short: "Explore what-if choices for simulated decisions",
		Long: `Launch a fullscreen explorer over a simulation run.

Step through the timeline, switch between policies and apply story
choices (refresh an attestation, attach provenance, retry as a human...)
to see how each decision would change. Without --run a fresh simulation
is generated from the configured defaults.

Policies of a stored or exported run are reloaded from their source
files. A policy whose file changed since the run is shown read-only.`,
		Example: `  covenant story
  covenant story --run 3f2a9c1b --contested
  covenant story --run run.json --policies covenant.yml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if err := tui.CheckStoryTerminal(cmd.OutOrStdout()); err != nil {
				return NewCLIError(ExitGeneral, err.Error())
			}

			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			opts, err := storyOptions(ctx, app, &p)
			if err != nil {
				return err
			}

			prog := tea.NewProgram(story.New(opts), tea.WithAltScreen())
			_, err = prog.Run()

			return err
		},
	}

	cmd.Flags().StringVar(&p.run, "run", "", "stored run id or JSON export to explore")
	cmd.Flags().StringSliceVar(&p.policies, "policies", nil, "policy files to decide edited events with")
	cmd.Flags().BoolVar(&p.contested, "contested", false, "start with only events some policy did not allow")

	return cmd
}

// storyOptions loads or simulates the run to explore and the policies
// used for what-if evaluations.
func storyOptions(ctx context.Context, app *App, p *storyParams) (story.Options, error) {
	opts := story.Options{
		AttestationMode: app.Config.AttestationMode(),
		ContestedOnly:   p.contested,
	}

	var explicit []simulator.PolicyEntry
	if len(p.policies) > 0 {
		entries, err := loadPolicyEntries(p.policies)
		if err != nil {
			return opts, err
		}
		explicit = entries
	}

	if p.run == "" {
		policies := explicit
		if policies == nil {
			entries, err := loadPolicyEntries([]string{app.Config.GetPolicyPath()})
			if err != nil {
				return opts, err
			}
			policies = entries
		}

		run, err := simulator.Simulate(simulator.RunOptions{
			Options:         app.Config.SimulationOptions(),
			Policies:        policies,
			AttestationMode: opts.AttestationMode,
		})
		if err != nil {
			return opts, err
		}
		opts.Run = run
		opts.Policies = policies
		return opts, nil
	}

	ref, err := resolveRun(ctx, app, p.run)
	if err != nil {
		return opts, err
	}
	opts.Run = ref.Run
	if ref.Record != nil {
		if mode, err := simulator.ParseAttestationMode(ref.Record.AttestationMode); err == nil {
			opts.AttestationMode = mode
		}
	}

	if explicit != nil {
		opts.Policies = explicit
	} else {
		opts.Policies = reloadPolicies(ref.Run.Policies)
	}
	return opts, nil
}

// reloadPolicies loads each run policy from its recorded source, keeping
// only those whose content hash still matches.
func reloadPolicies(refs []simulator.PolicyRef) []simulator.PolicyEntry {
	var entries []simulator.PolicyEntry
	for _, ref := range refs {
		if ref.Source == nil {
			continue
		}

		loaded, err := loadPolicy(*ref.Source)
		if err != nil {
			log.Debugf("policy %s not reloaded: %v", ref.ID, err)
			continue
		}
		if loaded.Hash != ref.PolicyHash {
			log.Debugf("policy %s changed since the run (%s != %s)", ref.ID, loaded.Hash, ref.PolicyHash)
			continue
		}

		entries = append(entries, simulator.PolicyEntry{
			ID:         ref.ID,
			Policy:     loaded.Policy,
			PolicyHash: loaded.Hash,
			Source:     loaded.Path,
		})
	}
	return entries
}
