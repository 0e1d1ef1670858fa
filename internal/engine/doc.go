// SPDX-License-Identifier: MPL-2.0

// Package engine executes resolved task invocations.
//
// Execution is a depth-first, post-order walk: the dependencies of a task run,
// in the order they were declared, before the task itself. A per-run set of
// completed tasks keyed by task identity keeps shared dependencies from running
// twice, while a task the user names explicitly always runs again. Ignored tasks
// are reported and marked completed without running. The first failing body
// (an error or a panic) aborts the whole run.
//
// Execution is synchronous; bodies run one at a time on the caller's goroutine.
// Lifecycle events go to an EventSink held by the Executor; LogSink renders them
// through charmbracelet/log.
package engine
