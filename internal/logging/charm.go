package logging

import (
	"os"

	charmlog "github.com/charmbracelet/log"
)

// CharmLogger adapts charmbracelet/log to the Logger interface. It is the
// logger used by the CLI, where human-readable output beats JSON lines.
type CharmLogger struct {
	l *charmlog.Logger
}

// NewCharmLogger creates a CharmLogger writing to stderr with the given
// component as prefix.
func NewCharmLogger(component string) *CharmLogger {
	l := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		Prefix:          component,
	})
	return &CharmLogger{l: l}
}

func keyvals(fields []Field) []interface{} {
	kv := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}

func (c *CharmLogger) Debug(msg string, fields ...Field) {
	c.l.Debug(msg, keyvals(fields)...)
}

func (c *CharmLogger) Info(msg string, fields ...Field) {
	c.l.Info(msg, keyvals(fields)...)
}

func (c *CharmLogger) Warn(msg string, fields ...Field) {
	c.l.Warn(msg, keyvals(fields)...)
}

func (c *CharmLogger) Error(msg string, fields ...Field) {
	c.l.Error(msg, keyvals(fields)...)
}

func (c *CharmLogger) With(fields ...Field) Logger {
	return &CharmLogger{l: c.l.With(keyvals(fields)...)}
}
