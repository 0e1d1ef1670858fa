// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"lever-cli/internal/buildscript"
	"lever-cli/internal/config"
	"lever-cli/internal/issue"
	"lever-cli/internal/runtime"
	"lever-cli/pkg/task"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Loaded, error)
	}

	// App wires the CLI to its services. Every command handler receives the
	// App and writes through its streams, so tests can capture the output.
	App struct {
		Config ConfigProvider
		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer
		// workDir is where the build script search starts; the process working
		// directory when empty.
		workDir string
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config  ConfigProvider
		Stdin   io.Reader
		Stdout  io.Writer
		Stderr  io.Writer
		WorkDir string
	}

	// globalOptions holds the persistent flags of the root command.
	globalOptions struct {
		file       string
		configPath string
		verbose    bool
	}

	// project is a loaded configuration together with the task registry of the
	// build script it points at.
	project struct {
		cfg        *config.Config
		cfgPath    string
		scriptPath string
		build      *buildscript.Build
		registry   *task.Registry
		verbose    bool
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}

	return &App{
		Config:  deps.Config,
		stdin:   deps.Stdin,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
		workDir: deps.WorkDir,
	}
}

func (a *App) workingDir() (string, error) {
	if a.workDir != "" {
		return a.workDir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return wd, nil
}

// loadConfig loads the configuration honoring --config.
func (a *App) loadConfig(ctx context.Context, opts *globalOptions) (*config.Loaded, error) {
	wd, err := a.workingDir()
	if err != nil {
		return nil, err
	}
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: opts.configPath, BaseDir: wd})
}

// openProject loads the configuration, locates the build script and loads its
// tasks. The --file flag wins over the configured build_file.
func (a *App) openProject(ctx context.Context, opts *globalOptions) (*project, error) {
	cfgLoaded, err := a.loadConfig(ctx, opts)
	if err != nil {
		return nil, err
	}
	cfg := cfgLoaded.Config

	p := &project{
		cfg:     cfg,
		cfgPath: cfgLoaded.Path,
		verbose: opts.verbose || cfg.UI.Verbose,
	}

	name := cfg.BuildFile
	if opts.file != "" {
		name = opts.file
	}

	p.scriptPath, err = a.locateBuildScript(name)
	if err != nil {
		return p, err
	}

	loaded, err := buildscript.Open(ctx, p.scriptPath, buildscript.LoadOptions{
		Runtimes:       runtime.DefaultRegistry(runtime.IO{Stdin: a.stdin, Stdout: a.stdout, Stderr: a.stderr}),
		DefaultRuntime: runtime.RuntimeType(cfg.DefaultRuntime),
	})
	if err != nil {
		return p, err
	}
	p.build = loaded.Build
	p.registry = loaded.Registry
	return p, nil
}

// locateBuildScript returns the path of the build script. A name holding a
// directory is used as given; a bare file name is searched for upwards.
func (a *App) locateBuildScript(name string) (string, error) {
	wd, err := a.workingDir()
	if err != nil {
		return "", err
	}

	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) || strings.Contains(name, "/") {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(wd, path)
		}
		if _, statErr := os.Stat(path); statErr != nil {
			return "", buildScriptNotFound(path, statErr)
		}
		return path, nil
	}

	path, err := buildscript.Find(wd, name)
	if err != nil {
		return "", buildScriptNotFound(name, err)
	}
	return path, nil
}

func buildScriptNotFound(resource string, err error) error {
	if errors.Is(err, os.ErrPermission) {
		return issue.NewErrorContext().
			WithOperation("open build script").
			WithResource(resource).
			WithIssue(issue.PermissionDeniedId).
			Wrap(err).
			BuildError()
	}
	return issue.NewErrorContext().
		WithOperation("find build script").
		WithResource(resource).
		WithIssue(issue.BuildScriptNotFoundId).
		WithSuggestion("Run 'lever init' to create a starter build script").
		WithSuggestion("Use --file to point at a build script with another name").
		Wrap(err).
		BuildError()
}
