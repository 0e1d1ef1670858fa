// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// RuntimeVirtual runs task scripts in the embedded mvdan/sh interpreter.
	RuntimeVirtual RuntimeMode = "virtual"
	// RuntimeNative runs task scripts in the host system shell.
	RuntimeNative RuntimeMode = "native"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultBuildFile is the build script name used when none is configured.
	DefaultBuildFile = "build.cue"
)

var (
	// ErrInvalidConfigRuntimeMode is returned when a RuntimeMode value is not recognized.
	ErrInvalidConfigRuntimeMode = errors.New("invalid runtime mode")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidBuildFile is returned when the build file name is blank or a path.
	ErrInvalidBuildFile = errors.New("invalid build file name")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// RuntimeMode selects where task scripts run.
	RuntimeMode string

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidValueError reports a field value outside its allowed set.
	InvalidValueError struct {
		Field string
		Value string
		Err   error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig and collects the field-level errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// BuildFile is the build script name searched for by the CLI.
		BuildFile string `json:"build_file" yaml:"build_file" toml:"build_file" mapstructure:"build_file"`
		// DefaultRuntime is used by tasks that do not set their own runtime.
		DefaultRuntime RuntimeMode `json:"default_runtime" yaml:"default_runtime" toml:"default_runtime" mapstructure:"default_runtime"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" yaml:"ui" toml:"ui" mapstructure:"ui"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// Verbose enables debug log records.
		Verbose bool `json:"verbose" yaml:"verbose" toml:"verbose" mapstructure:"verbose"`
		// ColorScheme selects the glamour style for help pages.
		ColorScheme ColorScheme `json:"color_scheme" yaml:"color_scheme" toml:"color_scheme" mapstructure:"color_scheme"`
		// Timestamps prefixes log records with the wall clock time.
		Timestamps bool `json:"timestamps" yaml:"timestamps" toml:"timestamps" mapstructure:"timestamps"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		BuildFile:      DefaultBuildFile,
		DefaultRuntime: RuntimeVirtual,
		UI: UIConfig{
			Verbose:     false,
			ColorScheme: ColorSchemeAuto,
			Timestamps:  true,
		},
	}
}

// IsValid reports whether m names a known runtime.
func (m RuntimeMode) IsValid() (bool, []error) {
	switch m {
	case RuntimeVirtual, RuntimeNative:
		return true, nil
	}
	return false, []error{&InvalidValueError{Field: "default_runtime", Value: string(m), Err: ErrInvalidConfigRuntimeMode}}
}

// IsValid reports whether s names a known color scheme.
func (s ColorScheme) IsValid() (bool, []error) {
	switch s {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	}
	return false, []error{&InvalidValueError{Field: "ui.color_scheme", Value: string(s), Err: ErrInvalidColorScheme}}
}

// IsValid checks every field, including values that came from the environment
// and therefore never went through the CUE schema.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.BuildFile) == "" || strings.ContainsAny(c.BuildFile, `/\`) {
		errs = append(errs, &InvalidValueError{Field: "build_file", Value: c.BuildFile, Err: ErrInvalidBuildFile})
	}
	if valid, fieldErrs := c.DefaultRuntime.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s: %v %q", e.Field, e.Err, e.Value)
}

// Unwrap returns the sentinel describing the field.
func (e *InvalidValueError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	if len(e.FieldErrors) == 1 {
		return fmt.Sprintf("invalid config: %v", e.FieldErrors[0])
	}
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and every field error.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
