package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/safedep/covenant/core/policy"
	"github.com/safedep/covenant/tui"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [policy-path]",
		Short: "Validate a policy document",
		Long: `Validate a policy document.

Parses the policy, checks it against the covenant v1 contract and prints
its content hash. Every structural problem is reported, not just the first.`,
		Example: `  covenant validate
  covenant validate policies/strict.yml --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}

			path := app.Config.GetPolicyPath()
			if len(args) > 0 {
				path = args[0]
			}

			loaded, err := loadPolicy(path)
			var verr *policy.ValidationError
			if errors.As(err, &verr) {
				view := &tui.ValidationView{Path: path}
				for _, issue := range verr.Issues {
					view.Issues = append(view.Issues, tui.IssueView{Path: issue.Path, Message: issue.Message})
				}
				if renderErr := app.Presenter.RenderValidation(view); renderErr != nil {
					return renderErr
				}
				return NewCLIError(ExitConfig, "policy validation failed")
			}
			if err != nil {
				return err
			}

			return app.Presenter.RenderValidation(&tui.ValidationView{
				Valid:      true,
				Path:       loaded.Path,
				PolicyHash: loaded.Hash,
			})
		},
	}

	return cmd
}
