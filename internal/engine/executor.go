// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"time"

	"lever-cli/pkg/arglist"
	"lever-cli/pkg/task"
)

const (
	// ActionRun means the task body will be called.
	ActionRun Action = "run"
	// ActionSkip means the task is ignored and will only be reported.
	ActionSkip Action = "skip"
)

type (
	// Executor runs invocations and their dependencies, depth first, each task at
	// most once per run unless the user asked for it again, stopping at the first
	// failure.
	Executor struct {
		sink EventSink
		now  func() time.Time
	}

	// Option configures an Executor.
	Option func(*Executor)

	// Action is what a dry run would do with a task.
	Action string

	// Step is one entry of a dry-run plan.
	Step struct {
		Task   *task.Task
		Action Action
		Args   arglist.Arguments
	}

	// visitFunc handles one task that is due in the walk.
	visitFunc func(t *task.Task, args arglist.Arguments) error

	// run holds the state of one top-level invocation list.
	run struct {
		// completed holds the tasks already run or skipped in this run, by identity.
		completed map[*task.Task]struct{}
		visit     visitFunc
	}
)

// WithSink sets the receiver of task lifecycle events.
func WithSink(sink EventSink) Option {
	return func(e *Executor) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// WithClock replaces time.Now for duration measurement.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an Executor. Without WithSink, events are discarded.
func New(opts ...Option) *Executor {
	e := &Executor{
		sink: discardSink{},
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes invs in order. Each invocation first forgets whether its task
// already ran in this run, so a task the user names explicitly always runs
// again; tasks pulled in as dependencies run only once and never get
// arguments. The first failure emits EventFailed and EventAborting and is
// returned as a *TaskFailedError; no further task runs.
func (e *Executor) Run(ctx context.Context, invs []task.Invocation) error {
	r := newRun(e.execute(ctx))
	for _, inv := range invs {
		if err := r.request(inv); err != nil {
			return err
		}
	}
	return nil
}

// RunOrDefault runs invs, or the registry's default task with no arguments
// when invs is empty. It reports whether anything was run so the caller can
// fall back to listing the tasks.
func (e *Executor) RunOrDefault(ctx context.Context, reg *task.Registry, invs []task.Invocation) (bool, error) {
	if len(invs) == 0 {
		def := reg.Default()
		if def == nil {
			return false, nil
		}
		invs = []task.Invocation{{Task: def, Args: arglist.Empty()}}
	}
	return true, e.Run(ctx, invs)
}

// Plan returns the steps Run would take for invs without calling any body.
func (e *Executor) Plan(invs []task.Invocation) []Step {
	var steps []Step
	r := newRun(func(t *task.Task, args arglist.Arguments) error {
		action := ActionRun
		if t.IsIgnored() {
			action = ActionSkip
		}
		steps = append(steps, Step{Task: t, Action: action, Args: args})
		return nil
	})
	for _, inv := range invs {
		// The planning visitor never fails.
		_ = r.request(inv)
	}
	return steps
}

func newRun(visit visitFunc) *run {
	return &run{
		completed: make(map[*task.Task]struct{}),
		visit:     visit,
	}
}

func (r *run) request(inv task.Invocation) error {
	delete(r.completed, inv.Task)
	return r.walk(inv.Task, inv.Args)
}

// walk satisfies the dependencies of t in declared order, then visits t unless
// it already completed in this run.
func (r *run) walk(t *task.Task, args arglist.Arguments) error {
	for _, dep := range t.Dependencies() {
		if err := r.walk(dep, arglist.Empty()); err != nil {
			return err
		}
	}

	if _, done := r.completed[t]; done {
		return nil
	}
	if err := r.visit(t, args); err != nil {
		return err
	}
	r.completed[t] = struct{}{}
	return nil
}

// execute returns the visitor that actually runs task bodies.
func (e *Executor) execute(ctx context.Context) visitFunc {
	return func(t *task.Task, args arglist.Arguments) error {
		if err := ctx.Err(); err != nil {
			return e.abort(t, err, nil, 0)
		}

		if t.IsIgnored() {
			e.sink.Event(Event{Kind: EventSkipping, Task: t.Name()})
			return nil
		}

		e.sink.Event(Event{Kind: EventStarting, Task: t.Name()})
		start := e.now()
		trace, err := call(ctx, t, args)
		elapsed := e.now().Sub(start)
		if err != nil {
			return e.abort(t, err, trace, elapsed)
		}
		e.sink.Event(Event{Kind: EventCompleted, Task: t.Name(), Duration: elapsed})
		return nil
	}
}

func (e *Executor) abort(t *task.Task, err error, trace []Frame, elapsed time.Duration) error {
	failed := &TaskFailedError{Task: t.Name(), Err: err, Trace: trace}
	e.sink.Event(Event{Kind: EventFailed, Task: t.Name(), Err: err, Trace: trace, Duration: elapsed})
	e.sink.Event(Event{Kind: EventAborting, Task: t.Name(), Err: failed})
	return failed
}

// call runs the body of t, turning a panic into a *PanicError with the task's
// own stack frames.
func call(ctx context.Context, t *task.Task, args arglist.Arguments) (trace []Frame, err error) {
	defer func() {
		if v := recover(); v != nil {
			trace = panicFrames()
			err = &PanicError{Value: v}
		}
	}()
	return nil, t.Call(ctx, args)
}
