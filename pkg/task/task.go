// SPDX-License-Identifier: MPL-2.0

// Package task defines the unit of work run by lever: a named, documented body
// with an ordered list of dependency tasks and two flags, private and ignored.
//
// Tasks are immutable. Dependencies are validated when the task is declared, so
// a malformed declaration fails before anything runs, and because a dependency
// must already exist to be listed, a dependency cycle cannot be expressed.
//
// Basic usage:
//
//	clean, _ := task.New("clean", cleanBody, task.Doc("Remove build output"))
//	html, _ := task.New("html", htmlBody, task.DependsOn(clean))
//	reg, _ := task.NewRegistry("build.cue", []*task.Task{clean, html}, html)
package task

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"lever-cli/pkg/arglist"
)

// PrivatePrefix marks a task name as private: hidden from listings but runnable.
const PrivatePrefix = "_"

// anonymousFuncName matches the compiler-generated names of function literals.
var anonymousFuncName = regexp.MustCompile(`^func\d+$`)

type (
	// Func is the body of a task. Positional and keyword values arrive as
	// untyped strings; converting them is the body's business.
	Func func(ctx context.Context, in arglist.Arguments) error

	// Task is an immutable unit of work. Identity is the pointer: two *Task
	// values are the same task only when they are the same pointer.
	Task struct {
		name         string
		doc          string
		body         Func
		dependencies []*Task
		private      bool
		ignored      bool
	}

	// Option configures a task declaration.
	Option func(*declaration)

	// Invocation pairs a task with the arguments it was requested with.
	Invocation struct {
		Task *Task
		Args arglist.Arguments
	}

	declaration struct {
		doc     string
		deps    []any
		private bool
		ignored bool
	}
)

// Doc sets the documentation text shown in listings.
func Doc(doc string) Option {
	return func(d *declaration) {
		d.doc = doc
	}
}

// Private hides the task from listings.
func Private() Option {
	return func(d *declaration) {
		d.private = true
	}
}

// Ignore marks the task as ignored: when reached it is reported as skipped and
// its body never runs, but it still counts as done for its dependents.
func Ignore() Option {
	return func(d *declaration) {
		d.ignored = true
	}
}

// DependsOn declares the tasks that must complete, in order, before this one.
// Every value must be a *Task; anything else is reported by New.
func DependsOn(deps ...any) Option {
	return func(d *declaration) {
		d.deps = append(d.deps, deps...)
	}
}

// New declares a task. When name is empty it is derived from the declared Go
// name of body; function literals have no usable name and are rejected.
func New(name string, body Func, opts ...Option) (*Task, error) {
	if body == nil {
		return nil, ErrNilBody
	}

	if name == "" {
		name = funcName(body)
		if name == "" || anonymousFuncName.MatchString(name) {
			return nil, ErrEmptyName
		}
	}

	var decl declaration
	for _, opt := range opts {
		opt(&decl)
	}

	deps, err := checkDependencies(name, decl.deps)
	if err != nil {
		return nil, err
	}

	return &Task{
		name:         name,
		doc:          decl.doc,
		body:         body,
		dependencies: deps,
		private:      strings.HasPrefix(name, PrivatePrefix) || decl.private,
		ignored:      decl.ignored,
	}, nil
}

// MustNew is like New but panics on error. It is meant for package-level task
// declarations in Go build programs.
func MustNew(name string, body Func, opts ...Option) *Task {
	t, err := New(name, body, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Doc returns the documentation text. It may be empty or span several lines.
func (t *Task) Doc() string { return t.doc }

// Dependencies returns a copy of the declared dependencies, in order.
func (t *Task) Dependencies() []*Task { return slices.Clone(t.dependencies) }

// IsPrivate reports whether the task is hidden from listings.
func (t *Task) IsPrivate() bool { return t.private }

// IsIgnored reports whether the task body is skipped when the task is reached.
func (t *Task) IsIgnored() bool { return t.ignored }

// Call runs the task body. The body's error is returned unmodified.
func (t *Task) Call(ctx context.Context, in arglist.Arguments) error {
	return t.body(ctx, in)
}

// String returns the task name.
func (t *Task) String() string { return t.name }

// checkDependencies converts the declared values into tasks, reporting either a
// missing grouping (a lone bare function) or every value that is not a task.
func checkDependencies(owner string, deps []any) ([]*Task, error) {
	if len(deps) == 1 && isFunc(deps[0]) {
		return nil, &MissingGroupingError{Task: owner, Dependency: dependencyName(deps[0])}
	}

	tasks := make([]*Task, 0, len(deps))
	var notTasks []string
	for _, dep := range deps {
		t, ok := dep.(*Task)
		if !ok || t == nil {
			notTasks = append(notTasks, dependencyName(dep))
			continue
		}
		tasks = append(tasks, t)
	}
	if len(notTasks) > 0 {
		return nil, &NotATaskError{Task: owner, Names: notTasks}
	}
	return tasks, nil
}

func isFunc(v any) bool {
	if v == nil {
		return false
	}
	return reflect.TypeOf(v).Kind() == reflect.Func
}

// dependencyName returns the name a value was declared with, as far as Go lets us see it.
func dependencyName(v any) string {
	switch dep := v.(type) {
	case nil:
		return "<nil>"
	case *Task:
		if dep == nil {
			return "<nil>"
		}
		return dep.name
	case string:
		return dep
	}
	if isFunc(v) {
		if name := funcName(v); name != "" {
			return name
		}
	}
	return fmt.Sprintf("%T", v)
}

// funcName returns the unqualified Go name of a function value, e.g. "clean"
// for main.clean or "Build" for (*pkg.T).Build-fm.
func funcName(fn any) string {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(rv.Pointer())
	if f == nil {
		return ""
	}
	full := strings.TrimSuffix(f.Name(), "-fm")
	if i := strings.LastIndex(full, "."); i >= 0 {
		full = full[i+1:]
	}
	return full
}
