// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"lever-cli/internal/engine"
	"lever-cli/internal/resolve"
	"lever-cli/pkg/arglist"
	"lever-cli/pkg/task"
	"lever-cli/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootOptions holds the flags that only the root command reads.
type rootOptions struct {
	list   bool
	dryRun bool
}

// NewRootCommand builds the lever command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	opts := &globalOptions{}
	ro := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "lever [flags] [task[args]...]",
		Short: "A build task runner",
		Long: TitleStyle.Render("lever") + SubtitleStyle.Render(" - A build task runner") + `

lever runs the tasks declared in a CUE build script (build.cue by default),
each after the tasks it depends on. A task runs at most once per invocation
unless it is named again on the command line.

` + SubtitleStyle.Render("Examples:") + `
  lever                       Run the default task, or list the tasks
  lever clean html            Run clean, then html
  lever 'deploy[prod, region=eu]'
                              Run deploy with one positional and one keyword argument
  lever -n deploy             Show what deploy would run
  lever watch html            Run html again whenever a file changes
  lever list --format json    List the tasks as JSON`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, app, opts, ro, args)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.file, "file", "f", "", "build script to use (default is build_file from the config)")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/lever/config.cue)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.Flags().BoolVarP(&ro.list, "list", "l", false, "list the tasks and exit")
	rootCmd.Flags().BoolVarP(&ro.dryRun, "dry-run", "n", false, "print the tasks that would run without running them")

	rootCmd.SetIn(app.stdin)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.AddCommand(newListCommand(app, opts))
	rootCmd.AddCommand(newDescribeCommand(app, opts))
	rootCmd.AddCommand(newInitCommand(app))
	rootCmd.AddCommand(newConfigCommand(app, opts))
	rootCmd.AddCommand(newWatchCommand(app, opts))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the lever CLI on the process streams and exits with the code of
// the outcome. It is called by main.main.
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(int(types.ExitUsage))
	}
}

func runRoot(cmd *cobra.Command, app *App, opts *globalOptions, ro *rootOptions, tokens []string) error {
	ctx := cmd.Context()

	p, err := app.openProject(ctx, opts)
	if err != nil {
		return app.fail(cmd, types.ExitUsage, err, opts.verbose, p)
	}

	if ro.list {
		return app.printTaskList(p, false)
	}

	invs, err := resolve.Resolve(p.registry, tokens)
	if err != nil {
		return app.fail(cmd, types.ExitUsage, resolutionError(err), p.verbose, p)
	}

	exec := app.newExecutor(p)

	if ro.dryRun {
		return app.printPlan(exec.Plan(withDefault(p.registry, invs)))
	}

	ran, err := exec.RunOrDefault(ctx, p.registry, invs)
	if err != nil {
		// The log sink already reported the failure.
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
		return &ExitError{Code: types.ExitTaskFailed}
	}
	if !ran {
		return app.printTaskList(p, false)
	}
	return nil
}

// newExecutor returns an engine logging to stderr under the build script name.
func (a *App) newExecutor(p *project) *engine.Executor {
	return engine.New(engine.WithSink(engine.NewLogSink(a.stderr, engine.LogOptions{
		Prefix:     p.registry.Name(),
		Verbose:    p.verbose,
		Timestamps: p.cfg.UI.Timestamps,
	})))
}

// withDefault returns invs, or the default task invocation when invs is empty
// and the registry has one.
func withDefault(reg *task.Registry, invs []task.Invocation) []task.Invocation {
	if len(invs) > 0 || reg.Default() == nil {
		return invs
	}
	return []task.Invocation{{Task: reg.Default(), Args: arglist.Empty()}}
}

// printPlan writes one line per step of a dry run.
func (a *App) printPlan(steps []engine.Step) error {
	if len(steps) == 0 {
		fmt.Fprintln(a.stdout, SubtitleStyle.Render("Nothing to run."))
		return nil
	}

	for _, step := range steps {
		action := SuccessStyle.Render("run ")
		if step.Action == engine.ActionSkip {
			action = WarningStyle.Render("skip")
		}
		name := step.Task.Name()
		if step.Args.Len() > 0 {
			name += "[" + step.Args.String() + "]"
		}
		fmt.Fprintf(a.stdout, "%s %s\n", action, CmdStyle.Render(name))
	}
	return nil
}
