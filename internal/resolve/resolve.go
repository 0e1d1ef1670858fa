// SPDX-License-Identifier: MPL-2.0

// Package resolve turns the task tokens typed on the command line into
// invocations: a task from the registry plus the arguments it was given.
//
// A token is either "name" or "name[arglist]". Names are matched exactly.
// Resolution never runs anything and never follows dependencies; it only
// validates and keeps the order the user chose.
package resolve

import (
	"errors"
	"fmt"
	"regexp"

	"lever-cli/pkg/arglist"
	"lever-cli/pkg/task"
)

// tokenPattern captures the task name and the optional bracketed argument list.
// Names contain no whitespace, comma or bracket characters.
var tokenPattern = regexp.MustCompile(`^(?P<name>[^\[\],\s]+)(\[(?P<args>[^\]]*)\])?$`)

var (
	// ErrMalformedTaskArgument is the sentinel error wrapped by MalformedTaskArgumentError.
	ErrMalformedTaskArgument = errors.New("malformed task argument")
	// ErrTaskNotFound is the sentinel error wrapped by TaskNotFoundError.
	ErrTaskNotFound = errors.New("task not found")
)

type (
	// MalformedTaskArgumentError is returned when a token does not have the
	// shape name or name[arglist]. Token is the literal text the user typed.
	MalformedTaskArgumentError struct {
		Token string
	}

	// TaskNotFoundError is returned when a token names no task in the registry.
	TaskNotFoundError struct {
		Name string
		// Available holds the visible task names, for hints only.
		Available []string
	}
)

// Error implements the error interface.
func (e *MalformedTaskArgumentError) Error() string {
	return fmt.Sprintf("malformed task argument in `%s`", e.Token)
}

// Unwrap returns ErrMalformedTaskArgument for errors.Is compatibility.
func (e *MalformedTaskArgumentError) Unwrap() error { return ErrMalformedTaskArgument }

// Error implements the error interface.
func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("unrecognized task `%s`", e.Name)
}

// Unwrap returns ErrTaskNotFound for errors.Is compatibility.
func (e *TaskNotFoundError) Unwrap() error { return ErrTaskNotFound }

// SplitToken breaks a token into its task name and raw argument list.
func SplitToken(token string) (name, args string, err error) {
	match := tokenPattern.FindStringSubmatch(token)
	if match == nil {
		return "", "", &MalformedTaskArgumentError{Token: token}
	}
	return match[tokenPattern.SubexpIndex("name")], match[tokenPattern.SubexpIndex("args")], nil
}

// Resolve validates every token against reg and returns the invocations in
// token order. The first problem found is returned and nothing is resolved.
func Resolve(reg *task.Registry, tokens []string) ([]task.Invocation, error) {
	invocations := make([]task.Invocation, 0, len(tokens))

	for _, token := range tokens {
		name, rawArgs, err := SplitToken(token)
		if err != nil {
			return nil, err
		}

		args, err := arglist.Parse(rawArgs)
		if err != nil {
			return nil, arglist.WithTask(err, name)
		}

		t, ok := reg.Lookup(name)
		if !ok {
			return nil, &TaskNotFoundError{Name: name, Available: visibleNames(reg)}
		}

		invocations = append(invocations, task.Invocation{Task: t, Args: args})
	}

	return invocations, nil
}

func visibleNames(reg *task.Registry) []string {
	visible := reg.Visible()
	names := make([]string, len(visible))
	for i, t := range visible {
		names[i] = t.Name()
	}
	return names
}
