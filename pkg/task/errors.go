// SPDX-License-Identifier: MPL-2.0

package task

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotATask is the sentinel error wrapped by NotATaskError.
	ErrNotATask = errors.New("dependency is not a task")
	// ErrMissingGrouping is the sentinel error wrapped by MissingGroupingError.
	ErrMissingGrouping = errors.New("dependency is a bare task body")
	// ErrEmptyName is returned when a task has no name and none can be derived from its body.
	ErrEmptyName = errors.New("task name cannot be empty")
	// ErrNilBody is returned when a task is declared without a body.
	ErrNilBody = errors.New("task body cannot be nil")
	// ErrDuplicateTask is the sentinel error wrapped by DuplicateTaskError.
	ErrDuplicateTask = errors.New("duplicate task name")
)

type (
	// NotATaskError is returned by New when one or more declared dependencies are
	// not tasks. Names lists every offender by its own declared name.
	NotATaskError struct {
		Task  string
		Names []string
	}

	// MissingGroupingError is returned by New when the only declared dependency is
	// a bare body function. This is almost always a body that was meant to be
	// wrapped with New before being listed as a dependency.
	MissingGroupingError struct {
		Task       string
		Dependency string
	}

	// DuplicateTaskError is returned by NewRegistry when two distinct tasks share a name.
	DuplicateTaskError struct {
		Name string
	}
)

// Error implements the error interface.
func (e *NotATaskError) Error() string {
	return fmt.Sprintf("dependencies %s of task `%s` are not tasks; they all must be created with task.New",
		strings.Join(e.Names, ", "), e.Task)
}

// Unwrap returns ErrNotATask for errors.Is compatibility.
func (e *NotATaskError) Unwrap() error { return ErrNotATask }

// Error implements the error interface.
func (e *MissingGroupingError) Error() string {
	return fmt.Sprintf("possible missing task.New around dependency `%s` of task `%s`", e.Dependency, e.Task)
}

// Unwrap returns ErrMissingGrouping for errors.Is compatibility.
func (e *MissingGroupingError) Unwrap() error { return ErrMissingGrouping }

// Error implements the error interface.
func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("task `%s` is declared more than once", e.Name)
}

// Unwrap returns ErrDuplicateTask for errors.Is compatibility.
func (e *DuplicateTaskError) Unwrap() error { return ErrDuplicateTask }
