// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"

	"lever-cli/pkg/types"
)

// ErrNonZeroExit is the sentinel error wrapped by ExitStatusError.
var ErrNonZeroExit = errors.New("script exited with non-zero status")

// ExitStatusError reports a script that ran to completion with a non-zero status.
type ExitStatusError struct {
	Task string
	Code types.ExitCode
}

// Error implements the error interface.
func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("script of task `%s` exited with status %s", e.Task, e.Code)
}

// Unwrap returns ErrNonZeroExit for errors.Is compatibility.
func (e *ExitStatusError) Unwrap() error { return ErrNonZeroExit }

// exitStatus converts a raw status into an error, nil for zero.
func exitStatus(task string, code int) error {
	if code == 0 {
		return nil
	}
	exitCode := types.ExitCode(code)
	if err := exitCode.Validate(); err != nil {
		return err
	}
	return &ExitStatusError{Task: task, Code: exitCode}
}
