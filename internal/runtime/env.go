// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"lever-cli/pkg/arglist"

	"mvdan.cc/sh/v3/syntax"
)

// TaskEnvVar holds the name of the running task.
const TaskEnvVar = "LEVER_TASK"

// ErrInvalidVariableName is the sentinel error wrapped by InvalidVariableNameError.
var ErrInvalidVariableName = errors.New("invalid variable name")

// InvalidVariableNameError reports a keyword argument whose key cannot be a
// shell variable name.
type InvalidVariableNameError struct {
	Task string
	Name string
}

// Error implements the error interface.
func (e *InvalidVariableNameError) Error() string {
	return fmt.Sprintf("keyword argument %q of task `%s` is not a valid variable name", e.Name, e.Task)
}

// Unwrap returns ErrInvalidVariableName for errors.Is compatibility.
func (e *InvalidVariableNameError) Unwrap() error { return ErrInvalidVariableName }

// buildEnv builds the script environment with this precedence, lowest first:
//  1. Host environment
//  2. Env files, in order
//  3. Task env entries
//  4. Keyword arguments
//  5. LEVER_TASK
//
// Keyword arguments may replace host variables such as PATH; keys that are not
// shell identifiers fail with *InvalidVariableNameError before the script runs.
func buildEnv(s *Script, args arglist.Arguments) (map[string]string, error) {
	env := hostEnv()

	for _, path := range s.EnvFiles {
		if err := LoadEnvFile(env, path, s.BaseDir); err != nil {
			return nil, err
		}
	}

	maps.Copy(env, s.Env)
	for name, value := range args.Keyword {
		if !syntax.ValidName(name) {
			return nil, &InvalidVariableNameError{Task: s.Task, Name: name}
		}
		env[name] = value
	}
	env[TaskEnvVar] = s.Task

	return env, nil
}

func hostEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}
	return env
}

// envToSlice renders env as sorted KEY=VALUE pairs.
func envToSlice(env map[string]string) []string {
	keys := slices.Sorted(maps.Keys(env))
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k + "=" + env[k]
	}
	return out
}
