package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Logger is a deliberately small, framework-agnostic logging interface.
// Keep implementations in this package so components can swap in any logger.
type Logger interface {
	// Debug logs a debug-level message.
	Debug(msg string, fields ...Field)

	// Info logs an informational message.
	Info(msg string, fields ...Field)

	// Warn logs a warning.
	Warn(msg string, fields ...Field)

	// Error logs an error.
	Error(msg string, fields ...Field)

	// With returns a child logger with persistent fields.
	With(fields ...Field) Logger
}

// Field is a simple key/value pair for structured logging fields.
type Field struct {
	Key   string
	Value interface{}
}

// StdoutLogger prints one JSON object per entry, suited to a server whose
// output is collected line by line. Persistent fields from With() merge into
// every entry; call-site fields win on key collisions.
type StdoutLogger struct {
	component string
	fields    []Field
	w         io.Writer
}

// NewStdoutLogger creates a StdoutLogger writing to stdout. component is
// optional and appears on every entry.
func NewStdoutLogger(component string) *StdoutLogger {
	return &StdoutLogger{component: component, w: os.Stdout}
}

func (s *StdoutLogger) log(level string, msg string, fields []Field) {
	type outEntry struct {
		Level     string         `json:"level"`
		Msg       string         `json:"msg"`
		Component string         `json:"component,omitempty"`
		Time      string         `json:"time"`
		Fields    map[string]any `json:"fields,omitempty"`
	}
	m := make(map[string]any, len(s.fields)+len(fields))
	for _, f := range s.fields {
		m[f.Key] = f.Value
	}
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	entry := outEntry{
		Level:     level,
		Msg:       msg,
		Component: s.component,
		Time:      time.Now().UTC().Format(time.RFC3339),
		Fields:    m,
	}
	enc, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(s.w, "%s %s %v\n", level, msg, m)
		return
	}
	fmt.Fprintln(s.w, string(enc))
}

func (s *StdoutLogger) Debug(msg string, fields ...Field) {
	s.log("debug", msg, fields)
}

func (s *StdoutLogger) Info(msg string, fields ...Field) {
	s.log("info", msg, fields)
}

func (s *StdoutLogger) Warn(msg string, fields ...Field) {
	s.log("warn", msg, fields)
}

func (s *StdoutLogger) Error(msg string, fields ...Field) {
	s.log("error", msg, fields)
}

// With returns a child carrying the given fields on every entry. A field
// keyed "component" renames the child instead of joining its field set.
func (s *StdoutLogger) With(fields ...Field) Logger {
	child := &StdoutLogger{
		component: s.component,
		fields:    append([]Field{}, s.fields...),
		w:         s.w,
	}
	for _, f := range fields {
		if f.Key == "component" {
			if str, ok := f.Value.(string); ok {
				child.component = str
				continue
			}
		}
		child.fields = append(child.fields, f)
	}
	return child
}

// NopLogger discards everything. Useful as a default in tests.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (n NopLogger) With(...Field) Logger { return n }
