// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

var (
	// ErrInvalidCUEPath is returned by CUEPath.Validate for blank paths.
	ErrInvalidCUEPath = errors.New("invalid CUE path")

	// ErrFileTooLarge is wrapped by the error CheckFileSize returns.
	ErrFileTooLarge = errors.New("file too large")
)

type (
	// CUEPath is a JSON-style path into a CUE value, such as "tasks[0].name".
	CUEPath string

	// Problem is one validation failure inside a file.
	Problem struct {
		// Path points at the invalid value; empty for syntax errors.
		Path CUEPath
		// Line is the 1-based line of the problem, 0 when unknown.
		Line    int
		Message string
	}

	// ValidationError collects the problems CUE reported for one file.
	ValidationError struct {
		FilePath string
		Problems []Problem
	}
)

// String returns the path as text.
func (p CUEPath) String() string { return string(p) }

// Validate rejects empty and blank paths.
func (p CUEPath) Validate() error {
	if strings.TrimSpace(string(p)) == "" {
		return fmt.Errorf("%w: %q", ErrInvalidCUEPath, string(p))
	}
	return nil
}

// String renders the problem as "path: message" or just the message.
func (p Problem) String() string {
	if p.Path != "" {
		return fmt.Sprintf("%s: %s", p.Path, p.Message)
	}
	return p.Message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch len(e.Problems) {
	case 0:
		return fmt.Sprintf("%s: validation failed", e.FilePath)
	case 1:
		return fmt.Sprintf("%s: %s", e.FilePath, e.Problems[0])
	}
	lines := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		lines[i] = p.String()
	}
	return fmt.Sprintf("%s: validation failed:\n  %s", e.FilePath, strings.Join(lines, "\n  "))
}

// FormatError converts a CUE error into a *ValidationError whose problems carry
// JSON-path prefixes, for example:
//
//	build.cue: tasks[0].name: incomplete value string
//
// Errors that do not come from CUE are wrapped with the file path instead.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	var cerr cueerrors.Error
	if !errors.As(err, &cerr) {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	cueErrs := cueerrors.Errors(err)
	problems := make([]Problem, 0, len(cueErrs))
	for _, e := range cueErrs {
		raw := cueerrors.Path(e)
		path := formatPath(raw)

		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if format == "" {
			msg = trimPathPrefix(e.Error(), path, strings.Join(raw, "."))
		}

		line := 0
		if pos := e.Position(); pos.IsValid() {
			line = pos.Line()
		}
		problems = append(problems, Problem{Path: CUEPath(path), Line: line, Message: msg})
	}

	return &ValidationError{FilePath: filePath, Problems: problems}
}

// trimPathPrefix removes a leading "path:" from msg for any of the given
// spellings of the path.
func trimPathPrefix(msg string, paths ...string) string {
	for _, p := range paths {
		if p != "" && strings.HasPrefix(msg, p+":") {
			msg = strings.TrimSpace(strings.TrimPrefix(msg, p+":"))
		}
	}
	return msg
}

// formatPath converts a CUE error path such as ["#Build", "tasks", "0", "script"]
// into JSON-path notation such as "tasks[0].script". A leading schema
// definition is dropped.
func formatPath(path []string) string {
	if len(path) > 0 && strings.HasPrefix(path[0], "#") {
		path = path[1:]
	}
	var result strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			result.WriteString("[")
			result.WriteString(part)
			result.WriteString("]")
			continue
		}
		if i > 0 {
			result.WriteString(".")
		}
		result.WriteString(part)
	}
	return result.String()
}

func isIndex(part string) bool {
	if part == "" {
		return false
	}
	for _, c := range part {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize verifies that data does not exceed maxSize bytes.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: %w: %d bytes exceeds maximum %d bytes",
			filename, ErrFileTooLarge, len(data), maxSize)
	}
	return nil
}
