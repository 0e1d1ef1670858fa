// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"lever-cli/pkg/arglist"
)

// DefaultShell is the shell the native runtime looks up on PATH.
const DefaultShell = "sh"

// ErrShellNotFound is returned when the native shell is not on PATH.
var ErrShellNotFound = errors.New("shell not found")

// NativeRuntime executes scripts with the host shell as `sh -c script lever args...`.
type NativeRuntime struct {
	io IO
	// Shell overrides DefaultShell.
	Shell string
}

// NewNativeRuntime creates a native runtime writing to the given streams.
func NewNativeRuntime(streams IO) *NativeRuntime {
	return &NativeRuntime{io: streams}
}

// Name returns the runtime name.
func (r *NativeRuntime) Name() RuntimeType {
	return RuntimeTypeNative
}

func (r *NativeRuntime) shell() (string, error) {
	name := r.Shell
	if name == "" {
		name = DefaultShell
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrShellNotFound, name, err)
	}
	return path, nil
}

// Run executes the script. The first word after the script is $0, so
// positional arguments land in $1..$n as in the virtual runtime.
func (r *NativeRuntime) Run(ctx context.Context, s *Script, args arglist.Arguments) error {
	shell, err := r.shell()
	if err != nil {
		return err
	}

	env, err := buildEnv(s, args)
	if err != nil {
		return fmt.Errorf("failed to build environment: %w", err)
	}

	cmdArgs := append([]string{"-c", s.Source, "lever"}, args.Positional...)
	cmd := exec.CommandContext(ctx, shell, cmdArgs...)
	cmd.Dir = s.workDir()
	cmd.Env = envToSlice(env)
	cmd.Stdin = r.io.Stdin
	cmd.Stdout = r.io.Stdout
	cmd.Stderr = r.io.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
			return exitStatus(s.Task, exitErr.ExitCode())
		}
		return fmt.Errorf("script execution failed: %w", err)
	}
	return nil
}
