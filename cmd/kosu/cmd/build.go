package cmd

import (
	"github.com/spf13/cobra"

	"github.com/agilescientific/kosu/internal/service/packager"
)

func (a *app) newBuildCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "build [COURSE]",
		Short: "Build COURSE with various options.",
		Args:  courseArg,
	}

	clean := addToggle(cmd, "clean", true, "delete the build folder afterwards")
	zip := addToggle(cmd, "zip", true, "make the zip file")
	upload := addToggle(cmd, "upload", false, "upload the zip file to S3")
	clobber := addToggle(cmd, "clobber", false, "overwrite existing files without asking")
	cmd.Flags().BoolVar(&all, "all", false, "build every course of the workspace")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		courses, err := a.courses(args, all)
		if err != nil {
			return err
		}

		return a.locked(cmd.Context(), func() error {
			return a.newPackager().Run(cmd.Context(), &packager.Options{
				Courses: courses,
				Verb:    "Building",
				Build: packager.BuildOptions{
					Clean:   clean.value(),
					Zip:     zip.value(),
					Upload:  upload.value(),
					Clobber: clobber.value(),
				},
			})
		})
	}

	return cmd
}

func (a *app) newTestCmd() *cobra.Command {
	var all, environment bool

	cmd := &cobra.Command{
		Use:   "test [COURSE]",
		Short: "Test that COURSE builds without error.",
		Long: "Test that COURSE builds without error. Nothing is zipped or uploaded and\n" +
			"existing builds are overwritten.",
		Args: courseArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			courses, err := a.courses(args, all)
			if err != nil {
				return err
			}

			return a.locked(cmd.Context(), func() error {
				return a.newPackager().Run(cmd.Context(), &packager.Options{
					Courses: courses,
					Verb:    "Testing",
					Build: packager.BuildOptions{
						Clean:   !environment,
						Clobber: true,
					},
					CombineEnvironments: environment,
				})
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "test every course of the workspace")
	cmd.Flags().BoolVar(&environment, "environment", false,
		"keep the builds and write environment-all.yml combining every course environment")

	return cmd
}

func (a *app) newPublishCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "publish [COURSE]",
		Short: "Publish COURSE to AWS.",
		Args:  courseArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			courses, err := a.courses(args, all)
			if err != nil {
				return err
			}

			return a.locked(cmd.Context(), func() error {
				return a.newPackager().Run(cmd.Context(), &packager.Options{
					Courses: courses,
					Verb:    "Publishing",
					Build: packager.BuildOptions{
						Clean:   true,
						Zip:     true,
						Upload:  true,
						Clobber: true,
					},
				})
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "publish every course of the workspace")

	return cmd
}

func (a *app) newCleanCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clean [COURSE]",
		Short: "Clean COURSE builds from local storage.",
		Args:  courseArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			courses, err := a.courses(args, all)
			if err != nil {
				return err
			}

			return a.locked(cmd.Context(), func() error {
				return a.newPackager().CleanAll(cmd.Context(), courses)
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "clean every course of the workspace")

	return cmd
}
