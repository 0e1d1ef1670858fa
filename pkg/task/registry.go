// SPDX-License-Identifier: MPL-2.0

package task

import (
	"cmp"
	"slices"
)

// Registry is the immutable set of tasks discovered in one build script, plus
// an optional default task run when no task is requested.
type Registry struct {
	name        string
	tasks       []*Task
	byName      map[string]*Task
	defaultTask *Task
}

// NewRegistry builds a registry. Tasks keep their order and are deduplicated by
// identity, so the default task may also appear in tasks. A default that is not
// in tasks is appended. Two distinct tasks with the same name are rejected.
func NewRegistry(name string, tasks []*Task, defaultTask *Task) (*Registry, error) {
	r := &Registry{
		name:        name,
		byName:      make(map[string]*Task, len(tasks)),
		defaultTask: defaultTask,
	}

	add := func(t *Task) error {
		if existing, ok := r.byName[t.name]; ok {
			if existing == t {
				return nil
			}
			return &DuplicateTaskError{Name: t.name}
		}
		r.byName[t.name] = t
		r.tasks = append(r.tasks, t)
		return nil
	}

	for _, t := range tasks {
		if t == nil {
			continue
		}
		if err := add(t); err != nil {
			return nil, err
		}
	}
	if defaultTask != nil {
		if err := add(defaultTask); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// EmptyRegistry returns a registry with no tasks, used when no build script exists.
func EmptyRegistry(name string) *Registry {
	return &Registry{name: name, byName: map[string]*Task{}}
}

// Name returns the label of the registry, usually the build script file name.
func (r *Registry) Name() string { return r.name }

// Tasks returns all tasks in declaration order.
func (r *Registry) Tasks() []*Task { return slices.Clone(r.tasks) }

// Len returns the number of tasks.
func (r *Registry) Len() int { return len(r.tasks) }

// Default returns the default task, or nil.
func (r *Registry) Default() *Task { return r.defaultTask }

// Lookup finds a task by exact name.
func (r *Registry) Lookup(name string) (*Task, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Names returns every task name in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tasks))
	for i, t := range r.tasks {
		names[i] = t.name
	}
	return names
}

// Visible returns the non-private tasks sorted by name, as shown in listings.
func (r *Registry) Visible() []*Task {
	visible := make([]*Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if !t.private {
			visible = append(visible, t)
		}
	}
	slices.SortFunc(visible, func(a, b *Task) int {
		return cmp.Compare(a.name, b.name)
	})
	return visible
}
