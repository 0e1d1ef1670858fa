// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lever-cli/pkg/arglist"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualRuntime executes scripts with the mvdan/sh interpreter. External
// commands still run from the host PATH.
type VirtualRuntime struct {
	io IO
}

// NewVirtualRuntime creates a virtual runtime writing to the given streams.
func NewVirtualRuntime(streams IO) *VirtualRuntime {
	return &VirtualRuntime{io: streams}
}

// Name returns the runtime name.
func (r *VirtualRuntime) Name() RuntimeType {
	return RuntimeTypeVirtual
}

// Parse parses a script the way the virtual runtime will run it. name appears
// in syntax error positions.
func Parse(source, name string) (*syntax.File, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(source), name)
	if err != nil {
		return nil, fmt.Errorf("script syntax error: %w", err)
	}
	return prog, nil
}

// Run interprets the script. Positional arguments become $1..$n.
func (r *VirtualRuntime) Run(ctx context.Context, s *Script, args arglist.Arguments) error {
	prog, err := Parse(s.Source, s.Task)
	if err != nil {
		return err
	}

	env, err := buildEnv(s, args)
	if err != nil {
		return fmt.Errorf("failed to build environment: %w", err)
	}

	opts := []interp.RunnerOption{
		interp.Dir(s.workDir()),
		interp.Env(expand.ListEnviron(envToSlice(env)...)),
		interp.StdIO(r.io.Stdin, r.io.Stdout, r.io.Stderr),
	}

	// "--" ends option parsing, so arguments such as "-v" stay positional.
	if len(args.Positional) > 0 {
		params := append([]string{"--"}, args.Positional...)
		opts = append(opts, interp.Params(params...))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return exitStatus(s.Task, int(status))
		}
		return fmt.Errorf("script execution failed: %w", err)
	}
	return nil
}
