// Package logging provides the structured, operator-facing logger used by
// the planner and transport packages. It wraps zerolog the same way
// alexisbeaulieu97/streamy's internal logger wraps it: a thin struct with
// leveled, chainable field helpers, so call sites never import zerolog
// directly.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is a structured logger bound to a component name.
type Logger struct {
	z zerolog.Logger
}

// New creates a Logger writing to w (os.Stderr if nil) at the given level
// name ("debug", "info", "warn", "error"; unrecognized defaults to "info").
func New(w io.Writer, level string) Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	z := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return Logger{z: z}
}

// Nop returns a Logger that discards everything, for tests that don't care
// about log output.
func Nop() Logger {
	return Logger{z: zerolog.Nop()}
}

// With returns a child Logger with an additional string field attached to
// every subsequent entry.
func (l Logger) With(key, value string) Logger {
	return Logger{z: l.z.With().Str(key, value).Logger()}
}

// WithComponent tags the logger with a "component" field naming the
// subsystem that logs through it.
func (l Logger) WithComponent(name string) Logger {
	return l.With("component", name)
}

// Debug logs at debug level.
func (l Logger) Debug(msg string, fields map[string]any) { l.log(l.z.Debug(), msg, fields) }

// Info logs at info level.
func (l Logger) Info(msg string, fields map[string]any) { l.log(l.z.Info(), msg, fields) }

// Warn logs at warn level.
func (l Logger) Warn(msg string, fields map[string]any) { l.log(l.z.Warn(), msg, fields) }

// Error logs at error level, attaching err under the "error" key when set.
func (l Logger) Error(msg string, err error, fields map[string]any) {
	ev := l.z.Error()
	if err != nil {
		ev = ev.Err(err)
	}
	l.log(ev, msg, fields)
}

func (l Logger) log(ev *zerolog.Event, msg string, fields map[string]any) {
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}
