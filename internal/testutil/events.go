// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"sync"

	"lever-cli/internal/engine"
)

// RecordingSink stores every event it receives, in order.
type RecordingSink struct {
	mu     sync.Mutex
	events []engine.Event
}

// Event implements engine.EventSink.
func (s *RecordingSink) Event(ev engine.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// Events returns a copy of the recorded events.
func (s *RecordingSink) Events() []engine.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]engine.Event(nil), s.events...)
}

// Lines renders each event as "kind task", the shape most assertions need.
func (s *RecordingSink) Lines() []string {
	events := s.Events()
	lines := make([]string, len(events))
	for i, ev := range events {
		lines[i] = fmt.Sprintf("%s %s", ev.Kind, ev.Task)
	}
	return lines
}

// Tasks returns the task names of the events of the given kind, in order.
func (s *RecordingSink) Tasks(kind engine.EventKind) []string {
	var names []string
	for _, ev := range s.Events() {
		if ev.Kind == kind {
			names = append(names, ev.Task)
		}
	}
	return names
}
