package cmd

import (
	"github.com/spf13/cobra"

	"github.com/agilescientific/kosu/internal/logger"
	"github.com/agilescientific/kosu/internal/scaffold"
)

func (a *app) newInitCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a course or group of courses.",
		Long: "Create the prod, images, references, scripts and templates folders in the\n" +
			"current directory together with an example course and config files.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				err := a.console.Confirm("This will create a new course collection in the current directory. Are you sure?", false)
				if err != nil {
					return err
				}
			}

			return a.locked(cmd.Context(), func() error {
				written, err := scaffold.Init(a.root)
				if err != nil {
					return err
				}

				logger.InfoKV(cmd.Context(), "Created workspace", "files", written)

				a.console.Successf("Created example course and config files.")
				a.console.Infof("See .kosu.yaml for configuration options.")

				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "automatically confirm")

	return cmd
}
