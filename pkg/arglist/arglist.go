// SPDX-License-Identifier: MPL-2.0

// Package arglist parses the argument list that may follow a task name on the
// command line, as in "deploy[prod, region=eu-west-1]".
//
// The grammar is a comma-separated list of tokens. Tokens without '=' are
// positional values; tokens with '=' are keyword values split on the first '='.
// Positional values may not follow keyword values and keyword names may not
// repeat. Values are never coerced: they stay strings until a task body decides
// otherwise (see Cast).
package arglist

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgumentOrder is the sentinel error wrapped by InvalidArgumentOrderError.
	ErrInvalidArgumentOrder = errors.New("invalid argument order")
	// ErrDuplicateKeywordArgument is the sentinel error wrapped by DuplicateKeywordArgumentError.
	ErrDuplicateKeywordArgument = errors.New("duplicate keyword argument")
)

type (
	// Arguments holds the values parsed from a single argument list.
	// Positional keeps the order in which values were given; Keyword order is irrelevant.
	Arguments struct {
		Positional []string
		Keyword    map[string]string
	}

	// InvalidArgumentOrderError is returned when a positional value follows a keyword value.
	InvalidArgumentOrderError struct {
		// Argument is the offending positional value.
		Argument string
		// Task is the task whose argument list is malformed. Empty until the
		// resolver attaches it.
		Task string
	}

	// DuplicateKeywordArgumentError is returned when a keyword name appears twice.
	DuplicateKeywordArgumentError struct {
		Key  string
		Task string
	}
)

// Error implements the error interface.
func (e *InvalidArgumentOrderError) Error() string {
	if e.Task == "" {
		return fmt.Sprintf("positional argument `%s` cannot follow a keyword argument", e.Argument)
	}
	return fmt.Sprintf("positional argument `%s` from task `%s` cannot follow a keyword argument", e.Argument, e.Task)
}

// Unwrap returns ErrInvalidArgumentOrder for errors.Is compatibility.
func (e *InvalidArgumentOrderError) Unwrap() error { return ErrInvalidArgumentOrder }

// Error implements the error interface.
func (e *DuplicateKeywordArgumentError) Error() string {
	if e.Task == "" {
		return fmt.Sprintf("duplicated keyword argument `%s`", e.Key)
	}
	return fmt.Sprintf("duplicated keyword argument `%s` in task `%s`", e.Key, e.Task)
}

// Unwrap returns ErrDuplicateKeywordArgument for errors.Is compatibility.
func (e *DuplicateKeywordArgumentError) Unwrap() error { return ErrDuplicateKeywordArgument }

// Empty returns an Arguments value with no positional and no keyword values.
// Both collections are non-nil so callers can range and index without checks.
func Empty() Arguments {
	return Arguments{
		Positional: []string{},
		Keyword:    map[string]string{},
	}
}

// Parse splits s into positional and keyword values.
// An empty s yields Empty().
func Parse(s string) (Arguments, error) {
	parsed := Empty()
	if s == "" {
		return parsed, nil
	}

	for _, raw := range strings.Split(s, ",") {
		key, value, isKeyword := strings.Cut(raw, "=")
		if !isKeyword {
			arg := strings.TrimSpace(raw)
			if len(parsed.Keyword) > 0 {
				return Arguments{}, &InvalidArgumentOrderError{Argument: arg}
			}
			parsed.Positional = append(parsed.Positional, arg)
			continue
		}

		key = strings.TrimSpace(key)
		if _, seen := parsed.Keyword[key]; seen {
			return Arguments{}, &DuplicateKeywordArgumentError{Key: key}
		}
		parsed.Keyword[key] = strings.TrimSpace(value)
	}

	return parsed, nil
}

// WithTask returns err with the task name attached when err is one of this
// package's parse errors. Other errors are returned unchanged.
func WithTask(err error, task string) error {
	var orderErr *InvalidArgumentOrderError
	if errors.As(err, &orderErr) {
		return &InvalidArgumentOrderError{Argument: orderErr.Argument, Task: task}
	}
	var dupErr *DuplicateKeywordArgumentError
	if errors.As(err, &dupErr) {
		return &DuplicateKeywordArgumentError{Key: dupErr.Key, Task: task}
	}
	return err
}

// Len returns the total number of values.
func (a Arguments) Len() int {
	return len(a.Positional) + len(a.Keyword)
}

// Get returns the i-th positional value, or "" and false when out of range.
func (a Arguments) Get(i int) (string, bool) {
	if i < 0 || i >= len(a.Positional) {
		return "", false
	}
	return a.Positional[i], true
}

// Lookup returns the keyword value for key.
func (a Arguments) Lookup(key string) (string, bool) {
	v, ok := a.Keyword[key]
	return v, ok
}

// String renders the values back into argument list syntax. Keyword values are
// emitted in key order so the output is stable.
func (a Arguments) String() string {
	parts := make([]string, 0, a.Len())
	parts = append(parts, a.Positional...)
	for _, key := range sortedKeys(a.Keyword) {
		parts = append(parts, key+"="+a.Keyword[key])
	}
	return strings.Join(parts, ", ")
}
