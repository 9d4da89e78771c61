package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/safedep/covenant/core/enforcement"
	"github.com/safedep/covenant/core/policy"
	"github.com/safedep/covenant/core/security"
	"github.com/safedep/covenant/storage"
	"github.com/safedep/covenant/tui"
)

// NewEvalCmd creates the eval command.
func NewEvalCmd() *cobra.Command {
	var (
		eventInput string
		policyPath string
		failOnDeny bool
		record     bool
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a canonical event against a policy",
		Long: `Evaluate a canonical event against a policy.

The event is given inline as JSON or as a path to a JSON file. The
decision is printed together with the enforcement actions the policy
configures for it. Attestations are verified against the ed25519 keys
declared in the policy.`,
		Example: `  covenant eval --event event.json
  covenant eval --event '{"action":"issue.comment","actor":{"id":"alice"}}' --format json
  covenant eval --event event.json --fail-on-deny --record`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if eventInput == "" {
				return NewCLIError(ExitGeneral, "--event is required")
			}

			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			if policyPath == "" {
				policyPath = app.Config.GetPolicyPath()
			}

			loaded, err := loadPolicy(policyPath)
			if err != nil {
				return err
			}

			ev, err := parseEventInput(eventInput)
			if err != nil {
				return err
			}

			now := time.Now()
			decision, err := security.New(nil).Evaluate(loaded.Policy, ev, security.Session{
				PolicyHash: loaded.Hash,
				Now:        now,
			})
			if err != nil {
				return err
			}

			view := &tui.EvaluationView{
				Decision:           decision,
				EnforcementActions: enforcement.Build(loaded.Policy, decision, ev),
				PolicyPath:         loaded.Path,
				PolicyHash:         loaded.Hash,
				Action:             ev.Action,
			}

			if record {
				if err := app.InitStore(ctx); err != nil {
					return ErrDatabase("failed to open database", err)
				}
				defer closeApp(app)

				rec, err := storage.NewEvaluationRecord(loaded.Path, loaded.Hash, ev, decision, now)
				if err != nil {
					return err
				}
				if err := app.Store.SaveEvaluation(ctx, rec); err != nil {
					return ErrDatabase("failed to record evaluation", err)
				}
				view.RecordID = rec.ID.String()
			}

			if err := app.Presenter.RenderEvaluation(view); err != nil {
				return err
			}

			if failOnDeny && decision.Decision == policy.OutcomeDeny {
				return ErrDenied(ev.Action)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&eventInput, "event", "", "canonical event as JSON or a path to a JSON file")
	cmd.Flags().StringVar(&policyPath, "policy", "", "policy file (default from config, covenant.yml)")
	cmd.Flags().BoolVar(&failOnDeny, "fail-on-deny", false, "exit with code 4 when the decision is deny")
	cmd.Flags().BoolVar(&record, "record", false, "store the evaluation in the local database")

	return cmd
}
