package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agilescientific/kosu/internal/config"
	"github.com/agilescientific/kosu/internal/console"
	"github.com/agilescientific/kosu/internal/logger"
	"github.com/agilescientific/kosu/internal/service/packager"
)

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the courses of the workspace.",
		Long:  "List the courses --all would process with their title and content counts.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			courses, err := packager.Courses(a.root, a.ctrl)
			if err != nil {
				return err
			}

			if len(courses) == 0 {
				a.console.Warnf("No courses found.")
				return nil
			}

			rows := make([][]string, 0, len(courses))

			for _, name := range courses {
				course, err := config.LoadCourse(a.root, name)
				if err != nil {
					logger.WarnKV(cmd.Context(), "Skipping invalid course", "course", name, "error", err)
					rows = append(rows, []string{name, "(invalid manifest)", "-", "-", "-"})

					continue
				}

				rows = append(rows, []string{
					name,
					course.Title,
					strconv.Itoa(len(course.Notebooks())),
					strconv.Itoa(len(course.Demos)),
					strconv.Itoa(len(course.Data)),
				})
			}

			a.console.Table(
				[]string{"Course", "Title", "Notebooks", "Demos", "Data"},
				rows,
				[]console.Alignment{console.AlignLeft, console.AlignLeft, console.AlignRight, console.AlignRight, console.AlignRight},
			)

			return nil
		},
	}
}
