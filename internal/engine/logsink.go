// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"io"

	"github.com/charmbracelet/log"
)

// logTimeFormat shows milliseconds so quick tasks can still be told apart.
const logTimeFormat = "15:04:05.000"

type (
	// LogOptions configures a LogSink.
	LogOptions struct {
		// Prefix is printed before every record, usually the build script name.
		Prefix string
		// Verbose enables debug records (durations, panic traces).
		Verbose bool
		// Timestamps adds the wall clock time to every record.
		Timestamps bool
	}

	// LogSink writes task lifecycle events as structured log records.
	LogSink struct {
		logger *log.Logger
	}
)

// NewLogSink creates a LogSink writing to w.
func NewLogSink(w io.Writer, opts LogOptions) *LogSink {
	level := log.InfoLevel
	if opts.Verbose {
		level = log.DebugLevel
	}

	logger := log.NewWithOptions(w, log.Options{
		Prefix:          opts.Prefix,
		Level:           level,
		ReportTimestamp: opts.Timestamps,
		TimeFormat:      logTimeFormat,
	})

	return &LogSink{logger: logger}
}

// Logger returns the underlying logger.
func (s *LogSink) Logger() *log.Logger {
	return s.logger
}

// Event implements EventSink.
func (s *LogSink) Event(ev Event) {
	switch ev.Kind {
	case EventSkipping:
		s.logger.Info("Skipping task", "task", ev.Task)
	case EventStarting:
		s.logger.Info("Starting task", "task", ev.Task)
	case EventCompleted:
		s.logger.Info("Completed task", "task", ev.Task)
		s.logger.Debug("Task duration", "task", ev.Task, "duration", ev.Duration)
	case EventFailed:
		s.logger.Error("Error in task", "task", ev.Task, "err", ev.Err)
		if len(ev.Trace) > 0 {
			s.logger.Debug("Task stack trace", "task", ev.Task, "trace", FormatTrace(ev.Trace))
		}
	case EventAborting:
		// Log, not Fatal: the process exit belongs to the caller.
		s.logger.Log(log.FatalLevel, "Aborting run", "task", ev.Task)
	}
}
