// SPDX-License-Identifier: MPL-2.0

package buildscript

import (
	"fmt"
	"time"
)

type (
	// Build is the decoded content of a build script.
	Build struct {
		Name     string            `json:"name,omitempty"`
		Default  string            `json:"default,omitempty"`
		Runtime  string            `json:"runtime,omitempty"`
		Env      map[string]string `json:"env,omitempty"`
		EnvFiles []string          `json:"env_files,omitempty"`
		Watch    *Watch            `json:"watch,omitempty"`
		Tasks    []Declaration     `json:"tasks"`
	}

	// Watch holds the file watching settings of a build script.
	Watch struct {
		Patterns    []string `json:"patterns,omitempty"`
		Ignore      []string `json:"ignore,omitempty"`
		Debounce    string   `json:"debounce,omitempty"`
		ClearScreen bool     `json:"clear_screen,omitempty"`
	}

	// Declaration is one entry of the tasks list.
	Declaration struct {
		Name        string            `json:"name"`
		Description string            `json:"description,omitempty"`
		DependsOn   []string          `json:"depends_on,omitempty"`
		Private     bool              `json:"private,omitempty"`
		Ignore      bool              `json:"ignore,omitempty"`
		Runtime     string            `json:"runtime,omitempty"`
		WorkDir     string            `json:"workdir,omitempty"`
		Env         map[string]string `json:"env,omitempty"`
		EnvFiles    []string          `json:"env_files,omitempty"`
		Script      string            `json:"script"`
	}
)

// DebounceDuration parses Debounce; zero when unset.
func (w *Watch) DebounceDuration() (time.Duration, error) {
	if w == nil || w.Debounce == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return 0, fmt.Errorf("invalid watch debounce %q: %w", w.Debounce, err)
	}
	return d, nil
}
