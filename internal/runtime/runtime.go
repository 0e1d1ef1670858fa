// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"lever-cli/pkg/arglist"
)

const (
	// RuntimeTypeVirtual interprets scripts with the embedded mvdan/sh shell.
	RuntimeTypeVirtual RuntimeType = "virtual"
	// RuntimeTypeNative runs scripts with the host sh.
	RuntimeTypeNative RuntimeType = "native"
)

// ErrUnknownRuntime is returned by Registry.Get for unregistered runtime names.
var ErrUnknownRuntime = errors.New("unknown runtime")

type (
	// RuntimeType names a runtime.
	RuntimeType string

	// Script is the executable part of a task.
	Script struct {
		// Task is the owning task name, exported to the script as LEVER_TASK.
		Task string
		// Source is the shell source.
		Source string
		// BaseDir is the directory of the build script; relative paths resolve against it.
		BaseDir string
		// WorkDir is the working directory, relative to BaseDir unless absolute.
		WorkDir string
		// Env holds task-level variables.
		Env map[string]string
		// EnvFiles are dotenv files loaded before Env, relative to BaseDir.
		// A trailing '?' marks a file as optional.
		EnvFiles []string
	}

	// IO holds the standard streams of a script.
	IO struct {
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// Runtime executes scripts. A script that exits non-zero yields an
	// *ExitStatusError.
	Runtime interface {
		Name() RuntimeType
		Run(ctx context.Context, s *Script, args arglist.Arguments) error
	}

	// Registry maps runtime names to runtimes.
	Registry struct {
		runtimes map[RuntimeType]Runtime
	}
)

// StdIO returns the process streams.
func StdIO() IO {
	return IO{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// NewRegistry creates a registry holding the given runtimes.
func NewRegistry(runtimes ...Runtime) *Registry {
	r := &Registry{runtimes: make(map[RuntimeType]Runtime, len(runtimes))}
	for _, rt := range runtimes {
		r.runtimes[rt.Name()] = rt
	}
	return r
}

// DefaultRegistry creates a registry with the virtual and native runtimes
// sharing the given streams.
func DefaultRegistry(streams IO) *Registry {
	return NewRegistry(NewVirtualRuntime(streams), NewNativeRuntime(streams))
}

// Get returns the runtime registered under name.
func (r *Registry) Get(name RuntimeType) (Runtime, error) {
	rt, ok := r.runtimes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownRuntime, name, r.Names())
	}
	return rt, nil
}

// Names returns the registered runtime names, sorted.
func (r *Registry) Names() []RuntimeType {
	names := make([]RuntimeType, 0, len(r.runtimes))
	for name := range r.runtimes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// workDir returns the absolute-or-base-relative directory the script runs in.
func (s *Script) workDir() string {
	switch {
	case s.WorkDir == "":
		return s.BaseDir
	case filepath.IsAbs(s.WorkDir):
		return s.WorkDir
	default:
		return filepath.Join(s.BaseDir, filepath.FromSlash(s.WorkDir))
	}
}
