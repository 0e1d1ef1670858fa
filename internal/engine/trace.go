// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"lever-cli/pkg/task"
)

// maxTraceDepth bounds the number of program counters captured for a panic.
const maxTraceDepth = 64

var (
	enginePkg = reflect.TypeOf(Executor{}).PkgPath() + "."
	// taskCall is the forwarding frame between the engine and a task body.
	taskCall = reflect.TypeOf(task.Task{}).PkgPath() + ".(*Task).Call"
)

// Frame is one stack frame of a panicking task body.
type Frame struct {
	Function string
	File     string
	Line     int
}

// String formats the frame the way Go prints goroutine stacks.
func (f Frame) String() string {
	return fmt.Sprintf("%s\n\t%s:%d", f.Function, f.File, f.Line)
}

// FormatTrace renders frames innermost first, one frame per two lines.
func FormatTrace(frames []Frame) string {
	lines := make([]string, len(frames))
	for i, f := range frames {
		lines[i] = f.String()
	}
	return strings.Join(lines, "\n")
}

// panicFrames captures the stack of a panicking task body. It must be called
// from the deferred function that recovered the panic. Frames up to and
// including runtime.gopanic belong to the recovery machinery; after them the
// task's own frames follow until the first engine frame. Runtime frames in
// between (sigpanic and friends) are dropped as well.
func panicFrames() []Frame {
	pcs := make([]uintptr, maxTraceDepth)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var (
		trace     []Frame
		pastPanic bool
	)
	for {
		frame, more := frames.Next()
		fn := frame.Function
		switch {
		case !pastPanic:
			pastPanic = fn == "runtime.gopanic"
		case isEngineFrame(fn):
			return trace
		case strings.HasPrefix(fn, "runtime."):
		default:
			trace = append(trace, Frame{Function: fn, File: frame.File, Line: frame.Line})
		}
		if !more {
			return trace
		}
	}
}

func isEngineFrame(fn string) bool {
	return strings.HasPrefix(fn, enginePkg) || fn == taskCall
}
