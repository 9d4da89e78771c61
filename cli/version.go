package cli

import (
	"github.com/spf13/cobra"

	"github.com/safedep/covenant/internal/version"
	"github.com/safedep/covenant/tui"
)

func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}

			return app.Presenter.RenderVersion(&tui.VersionView{
				Version: version.Version,
				Commit:  version.Commit,
			})
		},
	}

	return cmd
}
