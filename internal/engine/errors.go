// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"errors"
	"fmt"
)

// ErrAborted is wrapped by every error that stops a run.
var ErrAborted = errors.New("run aborted")

type (
	// TaskFailedError reports the task whose failure aborted the run.
	// It unwraps to both ErrAborted and the task's own error.
	TaskFailedError struct {
		Task string
		Err  error
		// Trace holds the task-side stack frames when the body panicked.
		Trace []Frame
	}

	// PanicError wraps a value recovered from a panicking task body.
	PanicError struct {
		Value any
	}
)

// Error implements the error interface.
func (e *TaskFailedError) Error() string {
	return fmt.Sprintf("error in task `%s`: %v", e.Task, e.Err)
}

// Unwrap returns ErrAborted and the underlying task error.
func (e *TaskFailedError) Unwrap() []error {
	return []error{ErrAborted, e.Err}
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
