// SPDX-License-Identifier: MPL-2.0

package engine

import "time"

const (
	// EventSkipping is emitted when an ignored task is reached.
	EventSkipping EventKind = "skipping"
	// EventStarting is emitted right before a task body is called.
	EventStarting EventKind = "starting"
	// EventCompleted is emitted when a task body returns without error.
	EventCompleted EventKind = "completed"
	// EventFailed is emitted when a task body fails or panics.
	EventFailed EventKind = "failed"
	// EventAborting is emitted once, after EventFailed, when the run stops.
	EventAborting EventKind = "aborting"
)

type (
	// EventKind identifies a task lifecycle event.
	EventKind string

	// Event describes one lifecycle step of one task.
	Event struct {
		Kind EventKind
		// Task is the name of the task the event is about.
		Task string
		// Err is set for EventFailed and EventAborting.
		Err error
		// Trace is set for EventFailed when the body panicked.
		Trace []Frame
		// Duration is set for EventCompleted and EventFailed.
		Duration time.Duration
	}

	// EventSink receives task lifecycle events. Implementations decide how to
	// present them; the executor only reports.
	EventSink interface {
		Event(ev Event)
	}

	// SinkFunc adapts a function to EventSink.
	SinkFunc func(ev Event)

	discardSink struct{}
)

// Event calls f(ev).
func (f SinkFunc) Event(ev Event) { f(ev) }

func (discardSink) Event(Event) {}
