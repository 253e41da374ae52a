package cmd

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

const readmeWrapWidth = 80

func (a *app) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show COURSE",
		Short: "Render the README of COURSE without building it.",
		Args: func(_ *cobra.Command, args []string) error {
			switch len(args) {
			case 0:
				return usageErrorf("Missing argument 'COURSE'.")
			case 1:
				return nil
			default:
				return usageErrorf("Got unexpected extra argument (%s)", args[1])
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			markdown, err := a.newPackager().RenderReadme(args[0])
			if err != nil {
				return err
			}

			renderer, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(readmeWrapWidth),
			)
			if err != nil {
				return fmt.Errorf("create markdown renderer: %w", err)
			}

			rendered, err := renderer.Render(string(markdown))
			if err != nil {
				return fmt.Errorf("render readme: %w", err)
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), rendered)

			return err
		},
	}
}
