// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"lever-cli/internal/engine"
	"lever-cli/internal/resolve"
	"lever-cli/internal/watch"
	"lever-cli/pkg/types"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type watchOptions struct {
	patterns []string
	ignore   []string
	debounce time.Duration
	clear    bool
}

func newWatchCommand(app *App, opts *globalOptions) *cobra.Command {
	wo := &watchOptions{}

	watchCmd := &cobra.Command{
		Use:   "watch [task[args]...]",
		Short: "Run tasks, then run them again whenever files change",
		Long: `Run the named tasks (or the default task), then watch the directory of the
build script and run them again after every burst of file changes.

Patterns, ignores and the debounce period come from the watch section of the
build script unless given as flags. The build script itself is reloaded
before every run. Press Ctrl+C to stop.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, app, opts, wo, args)
		},
	}

	watchCmd.Flags().StringSliceVarP(&wo.patterns, "pattern", "p", nil, "glob of the files to watch (repeatable, default all)")
	watchCmd.Flags().StringSliceVar(&wo.ignore, "ignore", nil, "glob of the files to ignore (repeatable)")
	watchCmd.Flags().DurationVar(&wo.debounce, "debounce", 0, "quiet period before running (default 500ms)")
	watchCmd.Flags().BoolVar(&wo.clear, "clear", false, "clear the screen before each run")

	return watchCmd
}

func runWatch(cmd *cobra.Command, app *App, opts *globalOptions, wo *watchOptions, tokens []string) error {
	ctx := cmd.Context()

	// Problems found before watching starts are fatal; later ones are logged.
	p, err := app.openProject(ctx, opts)
	if err != nil {
		return app.fail(cmd, types.ExitUsage, err, opts.verbose, p)
	}
	if _, err := resolve.Resolve(p.registry, tokens); err != nil {
		return app.fail(cmd, types.ExitUsage, resolutionError(err), p.verbose, p)
	}

	watchOpts, err := wo.merge(p)
	if err != nil {
		return app.fail(cmd, types.ExitUsage, err, p.verbose, p)
	}

	logger := log.NewWithOptions(app.stderr, log.Options{
		Prefix:          "watch",
		ReportTimestamp: p.cfg.UI.Timestamps,
		TimeFormat:      time.Kitchen,
	})
	if p.verbose {
		logger.SetLevel(log.DebugLevel)
	}

	run := func(ctx context.Context, changed []string) error {
		if len(changed) > 0 {
			logger.Info("Files changed", "files", strings.Join(changed, ", "))
		}
		return app.runTokens(ctx, opts, tokens)
	}

	if err := run(ctx, nil); err != nil {
		logger.Error("Run failed", "err", formatErrorForDisplay(err, p.verbose))
	}

	watchOpts.Output = app.stdout
	watchOpts.Logger = logger
	watchOpts.OnChange = run
	w, err := watch.New(watchOpts)
	if err != nil {
		return app.fail(cmd, types.ExitUsage, err, p.verbose, p)
	}

	logger.Info("Watching for changes", "dir", w.Root())
	if err := w.Run(ctx); err != nil {
		return app.fail(cmd, types.ExitUsage, err, p.verbose, p)
	}
	return nil
}

// merge combines the flags with the watch section of the build script. Flags
// win; the watched tree is the directory of the build script.
func (wo *watchOptions) merge(p *project) (watch.Options, error) {
	opts := watch.Options{
		Dir:      filepath.Dir(p.scriptPath),
		Patterns: wo.patterns,
		Ignore:   wo.ignore,
		Debounce: wo.debounce,
		Clear:    wo.clear,
	}

	section := p.build.Watch
	if section == nil {
		return opts, nil
	}
	if len(opts.Patterns) == 0 {
		opts.Patterns = section.Patterns
	}
	opts.Ignore = append(opts.Ignore, section.Ignore...)
	if opts.Debounce == 0 {
		d, err := section.DebounceDuration()
		if err != nil {
			return opts, err
		}
		opts.Debounce = d
	}
	opts.Clear = opts.Clear || section.ClearScreen
	return opts, nil
}

// runTokens reloads the project and runs tokens once. A failed task has been
// reported by the log sink already and is not returned.
func (a *App) runTokens(ctx context.Context, opts *globalOptions, tokens []string) error {
	p, err := a.openProject(ctx, opts)
	if err != nil {
		return err
	}

	invs, err := resolve.Resolve(p.registry, tokens)
	if err != nil {
		return resolutionError(err)
	}

	ran, err := a.newExecutor(p).RunOrDefault(ctx, p.registry, invs)
	if errors.Is(err, engine.ErrAborted) {
		return nil
	}
	if err != nil {
		return err
	}
	if !ran {
		return fmt.Errorf("nothing to run: name a task or declare a default in %s", p.registry.Name())
	}
	return nil
}
