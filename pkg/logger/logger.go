// Package logger provides structured logging for the SDK.
// It wraps zerolog behind the key-value call surface used across the
// codebase so packages never depend on the logging backend directly.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger emits structured log events for a single component.
type Logger struct {
	zl zerolog.Logger
}

// New creates a logger for the named component writing to stderr.
func New(component string) *Logger {
	return NewWithWriter(component, os.Stderr)
}

// NewWithWriter creates a logger for the named component writing to w.
func NewWithWriter(component string, w io.Writer) *Logger {
	zl := zerolog.New(w).With().
		Timestamp().
		Str("component", component).
		Logger()
	return &Logger{zl: zl}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// WithLevel returns a copy of the logger filtered to the given level.
// Unknown level names leave the logger unchanged.
func (l *Logger) WithLevel(level string) *Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return l
	}
	return &Logger{zl: l.zl.Level(lvl)}
}

// Debug logs a debug message with optional key-value pairs.
func (l *Logger) Debug(msg string, kv ...any) {
	l.emit(l.zl.Debug(), msg, kv)
}

// Info logs an informational message with optional key-value pairs.
func (l *Logger) Info(msg string, kv ...any) {
	l.emit(l.zl.Info(), msg, kv)
}

// Warn logs a warning with optional key-value pairs.
func (l *Logger) Warn(msg string, kv ...any) {
	l.emit(l.zl.Warn(), msg, kv)
}

// Error logs an error with optional key-value pairs.
func (l *Logger) Error(msg string, kv ...any) {
	l.emit(l.zl.Error(), msg, kv)
}

func (l *Logger) emit(ev *zerolog.Event, msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kv[i])
		}
		switch v := kv[i+1].(type) {
		case string:
			ev = ev.Str(key, v)
		case error:
			ev = ev.AnErr(key, v)
		case int:
			ev = ev.Int(key, v)
		case bool:
			ev = ev.Bool(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	if len(kv)%2 != 0 {
		ev = ev.Interface("arg", kv[len(kv)-1])
	}
	ev.Msg(msg)
}
