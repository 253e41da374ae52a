package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agilescientific/kosu/internal/config"
	"github.com/agilescientific/kosu/internal/console"
	"github.com/agilescientific/kosu/internal/data"
	"github.com/agilescientific/kosu/internal/lock"
	"github.com/agilescientific/kosu/internal/logger"
	"github.com/agilescientific/kosu/internal/service/packager"
	"github.com/agilescientific/kosu/internal/version"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const defaultLogLevel = "warn"

// usageError is a mistake in the command line; it exits with exitUsage.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func usageErrorf(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// app holds the state shared by every subcommand of one invocation.
type app struct {
	// root is the workspace folder, the working directory outside tests.
	root   string
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	logLevel string

	ctrl    *config.Control
	console *console.Console

	// packagerOptions are appended to the defaults of every packager.
	packagerOptions []packager.Option
}

// Execute runs the kosu CLI and exits with its status code.
func Execute() {
	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	a := &app{root: ".", in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	code := a.execute(ctx, os.Args[1:])

	stop()
	os.Exit(code)
}

// execute runs one command line and returns the process exit code.
func (a *app) execute(ctx context.Context, args []string) int {
	if args == nil {
		args = []string{}
	}

	root := a.newRootCmd()
	root.SetArgs(args)

	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return exitOK
	}

	var usage *usageError

	switch {
	case errors.As(err, &usage), strings.HasPrefix(err.Error(), "unknown command"):
		_, _ = fmt.Fprintf(a.errOut, "Usage: %s\nTry '%s --help' for help.\n\nError: %s\n",
			cmd.UseLine(), cmd.CommandPath(), err)

		return exitUsage
	case errors.Is(err, console.ErrAborted):
		_, _ = fmt.Fprintln(a.errOut, "Aborted!")
	default:
		_, _ = fmt.Fprintf(a.errOut, "Error: %s\n", err)
	}

	return exitError
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kosu",
		Short: "Build course packages from YAML manifests",
		Long: "kosu assembles courses described by <course>.yaml manifests into folders of\n" +
			"processed notebooks, data, scripts and references, then zips and publishes them.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", defaultLogLevel, "log level: debug, info, warn or error")

	root.AddCommand(
		a.newInitCmd(),
		a.newCleanCmd(),
		a.newBuildCmd(),
		a.newTestCmd(),
		a.newPublishCmd(),
		a.newListCmd(),
		a.newShowCmd(),
	)

	version.AttachCobraVersionCommand(root)

	return root
}

// setup applies the log level and loads the control file.
func (a *app) setup(cmd *cobra.Command) error {
	level, ok := logger.ParseLogLevel(a.logLevel)
	if !ok {
		return usageErrorf("invalid --log-level %q", a.logLevel)
	}

	logger.SetLevel(level)

	ctx := logger.WithName(cmd.Context(), "kosu")
	cmd.SetContext(ctx)

	a.ctrl = config.LoadControl(ctx, a.root)
	a.console = console.New(a.out, a.in)

	logger.DebugKV(ctx, "Loaded control file",
		"install_path", a.ctrl.Path, "s3_bucket", a.ctrl.S3Bucket, "data_cache", a.ctrl.DataCache)

	return nil
}

func (a *app) newPackager() *packager.Packager {
	opts := append([]packager.Option{packager.WithDataClient(data.NewClient(nil, a.errOut))}, a.packagerOptions...)

	return packager.New(a.root, a.ctrl, a.console, opts...)
}

// courses resolves the COURSE argument or --all into the courses to process.
func (a *app) courses(args []string, all bool) ([]string, error) {
	switch {
	case !all && len(args) == 0:
		return nil, usageErrorf("Missing argument 'COURSE', or use '--all'.")
	case all && len(args) > 0:
		return nil, usageErrorf("'--all' cannot be used with 'COURSE'; use one or the other.")
	case all:
		return packager.Courses(a.root, a.ctrl)
	default:
		return []string{config.CourseName(args[0])}, nil
	}
}

// locked runs fn while holding the workspace lock.
func (a *app) locked(ctx context.Context, fn func() error) error {
	workspace, err := lock.Acquire(a.root)
	if err != nil {
		return err
	}

	defer func() {
		if err := workspace.Release(); err != nil {
			logger.WarnKV(ctx, "Could not release workspace lock", "error", err)
		}
	}()

	return fn()
}

// courseArg accepts at most one COURSE argument.
func courseArg(_ *cobra.Command, args []string) error {
	if len(args) > 1 {
		return usageErrorf("Got unexpected extra argument (%s)", args[1])
	}

	return nil
}

// toggle is a boolean option spelled --name and --no-name.
type toggle struct {
	on  bool
	off bool
}

func addToggle(cmd *cobra.Command, name string, def bool, usage string) *toggle {
	t := new(toggle)

	cmd.Flags().BoolVar(&t.on, name, def, usage)
	cmd.Flags().BoolVar(&t.off, "no-"+name, false, "disable --"+name)

	return t
}

func (t *toggle) value() bool {
	return t.on && !t.off
}
