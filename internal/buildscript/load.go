// SPDX-License-Identifier: MPL-2.0

package buildscript

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"lever-cli/internal/dag"
	"lever-cli/internal/issue"
	"lever-cli/internal/runtime"
	"lever-cli/pkg/arglist"
	"lever-cli/pkg/cueutil"
	"lever-cli/pkg/task"
)

// ErrUnknownDefault is the sentinel error wrapped by UnknownDefaultError.
var ErrUnknownDefault = errors.New("unknown default task")

//go:embed build_schema.cue
var buildSchema []byte

type (
	// LoadOptions configures Load.
	LoadOptions struct {
		// Runtimes provides the script runtimes; DefaultRegistry on the process
		// streams when nil.
		Runtimes *runtime.Registry
		// DefaultRuntime is used by tasks and files that do not name one.
		DefaultRuntime runtime.RuntimeType
	}

	// Project is a loaded build script: its declarations and the tasks made
	// from them.
	Project struct {
		Path     string
		Build    *Build
		Registry *task.Registry
	}

	// UnknownDefaultError reports a default that names no declared task.
	UnknownDefaultError struct {
		Name string
	}
)

// Error implements the error interface.
func (e *UnknownDefaultError) Error() string {
	return fmt.Sprintf("default task `%s` is not declared", e.Name)
}

// Unwrap returns ErrUnknownDefault for errors.Is compatibility.
func (e *UnknownDefaultError) Unwrap() error { return ErrUnknownDefault }

// Load reads the build script at path and turns its declarations into a task
// registry. Tasks are created after their dependencies, so declarations may
// appear in any order; the registry keeps the order of the file.
func Load(ctx context.Context, path string, opts LoadOptions) (*task.Registry, error) {
	p, err := Open(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return p.Registry, nil
}

// Open is Load for callers that also need the declarations.
func Open(ctx context.Context, path string, opts LoadOptions) (*Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	build, err := Parse(path)
	if err != nil {
		return nil, err
	}

	reg, err := newLoader(path, build, opts).registry()
	if err != nil {
		return nil, wrapLoadError(path, err)
	}
	return &Project{Path: path, Build: build, Registry: reg}, nil
}

// Parse reads and validates the build script at path without creating tasks.
func Parse(path string) (*Build, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("read build script").
			WithResource(path).
			WithIssue(issue.BuildScriptNotFoundId).
			Wrap(err).
			BuildError()
	}

	result, err := cueutil.ParseAndDecode[Build](buildSchema, data, "#Build", cueutil.WithFilename(path))
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load build script").
			WithResource(path).
			WithIssue(issue.BuildScriptParseErrorId).
			WithSuggestion("Check the CUE syntax and the fields of every task").
			Wrap(err).
			BuildError()
	}
	return result.Value, nil
}

type loader struct {
	path    string
	baseDir string
	build   *Build
	opts    LoadOptions
	decls   map[string]*Declaration
	created map[string]*task.Task
}

func newLoader(path string, build *Build, opts LoadOptions) *loader {
	if opts.Runtimes == nil {
		opts.Runtimes = runtime.DefaultRegistry(runtime.StdIO())
	}
	if opts.DefaultRuntime == "" {
		opts.DefaultRuntime = runtime.RuntimeTypeVirtual
	}
	absDir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		absDir = filepath.Dir(path)
	}
	return &loader{
		path:    path,
		baseDir: absDir,
		build:   build,
		opts:    opts,
		decls:   make(map[string]*Declaration, len(build.Tasks)),
		created: make(map[string]*task.Task, len(build.Tasks)),
	}
}

func (l *loader) registry() (*task.Registry, error) {
	for i := range l.build.Tasks {
		decl := &l.build.Tasks[i]
		if _, dup := l.decls[decl.Name]; dup {
			return nil, &task.DuplicateTaskError{Name: decl.Name}
		}
		l.decls[decl.Name] = decl
	}

	if l.build.Default != "" {
		if _, ok := l.decls[l.build.Default]; !ok {
			return nil, &UnknownDefaultError{Name: l.build.Default}
		}
	}

	order, err := l.order()
	if err != nil {
		return nil, err
	}

	for _, name := range order {
		t, err := l.newTask(l.decls[name])
		if err != nil {
			return nil, err
		}
		l.created[name] = t
	}

	tasks := make([]*task.Task, len(l.build.Tasks))
	for i, decl := range l.build.Tasks {
		tasks[i] = l.created[decl.Name]
	}

	name := l.build.Name
	if name == "" {
		name = filepath.Base(l.path)
	}
	return task.NewRegistry(name, tasks, l.created[l.build.Default])
}

// order returns the declared names with every dependency before its dependents.
// Unknown dependency names are left out of the graph; newTask reports them.
func (l *loader) order() ([]string, error) {
	g := dag.New()
	for _, decl := range l.build.Tasks {
		g.AddNode(decl.Name)
	}
	for _, decl := range l.build.Tasks {
		for _, dep := range decl.DependsOn {
			if _, ok := l.decls[dep]; ok {
				g.AddEdge(dep, decl.Name)
			}
		}
	}
	return g.TopologicalSort()
}

func (l *loader) newTask(decl *Declaration) (*task.Task, error) {
	rt, err := l.runtimeFor(decl)
	if err != nil {
		return nil, fmt.Errorf("task `%s`: %w", decl.Name, err)
	}

	if _, err := runtime.Parse(decl.Script, decl.Name); err != nil {
		return nil, fmt.Errorf("task `%s`: %w", decl.Name, err)
	}

	script := &runtime.Script{
		Task:     decl.Name,
		Source:   decl.Script,
		BaseDir:  l.baseDir,
		WorkDir:  decl.WorkDir,
		Env:      mergeEnv(l.build.Env, decl.Env),
		EnvFiles: append(append([]string(nil), l.build.EnvFiles...), decl.EnvFiles...),
	}

	// A name that is not declared stays a string and is rejected by task.New.
	deps := make([]any, len(decl.DependsOn))
	for i, dep := range decl.DependsOn {
		if t, ok := l.created[dep]; ok {
			deps[i] = t
		} else {
			deps[i] = dep
		}
	}

	opts := []task.Option{task.Doc(decl.Description), task.DependsOn(deps...)}
	if decl.Private {
		opts = append(opts, task.Private())
	}
	if decl.Ignore {
		opts = append(opts, task.Ignore())
	}

	return task.New(decl.Name, func(ctx context.Context, in arglist.Arguments) error {
		return rt.Run(ctx, script, in)
	}, opts...)
}

func (l *loader) runtimeFor(decl *Declaration) (runtime.Runtime, error) {
	name := l.opts.DefaultRuntime
	if l.build.Runtime != "" {
		name = runtime.RuntimeType(l.build.Runtime)
	}
	if decl.Runtime != "" {
		name = runtime.RuntimeType(decl.Runtime)
	}
	return l.opts.Runtimes.Get(name)
}

func mergeEnv(layers ...map[string]string) map[string]string {
	env := make(map[string]string)
	for _, layer := range layers {
		for k, v := range layer {
			env[k] = v
		}
	}
	return env
}

// wrapLoadError attaches the help page matching a declaration error.
func wrapLoadError(path string, err error) error {
	ctx := issue.NewErrorContext().
		WithOperation("load build script").
		WithResource(path).
		Wrap(err)

	var (
		cycle    *dag.CycleError
		notATask *task.NotATaskError
	)
	switch {
	case errors.As(err, &cycle):
		ctx.WithIssue(issue.DependencyCycleId)
	case errors.As(err, &notATask):
		ctx.WithIssue(issue.InvalidDependencyId).
			WithSuggestion("Declare the missing tasks or fix the depends_on entries")
	case errors.Is(err, runtime.ErrUnknownRuntime):
		ctx.WithIssue(issue.InvalidRuntimeModeId)
	default:
		ctx.WithIssue(issue.BuildScriptParseErrorId)
	}
	return ctx.BuildError()
}
