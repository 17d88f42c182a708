package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogRecord is a captured log entry with its attributes flattened, including
// those bound through Logger.With.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogCapture collects records from every logger derived from it.
type LogCapture struct {
	mu      sync.Mutex
	records []LogRecord
	t       *testing.T
}

// captureHandler is the slog.Handler side of a LogCapture.
type captureHandler struct {
	capture *LogCapture
	attrs   []slog.Attr
	group   string
}

// NewTestLogger returns a logger writing into a fresh capture. Records are
// echoed to the test log.
func NewTestLogger(t *testing.T) (*slog.Logger, *LogCapture) {
	c := &LogCapture{t: t}
	return slog.New(&captureHandler{capture: c}), c
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		attrs[key] = a.Value.Any()
		return true
	})

	c := h.capture
	c.mu.Lock()
	c.records = append(c.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	c.mu.Unlock()

	if c.t != nil {
		c.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &captureHandler{capture: h.capture, group: h.group}
	next.attrs = append(append(next.attrs, h.attrs...), attrs...)
	return next
}

func (h *captureHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &captureHandler{capture: h.capture, attrs: h.attrs, group: group}
}

// Records returns a copy of everything captured so far.
func (c *LogCapture) Records() []LogRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LogRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Find returns the first record at level whose message contains msg.
func (c *LogCapture) Find(level slog.Level, msg string) (LogRecord, bool) {
	for _, r := range c.Records() {
		if r.Level == level && strings.Contains(r.Message, msg) {
			return r, true
		}
	}
	return LogRecord{}, false
}

// AssertLogContains fails the test when no record at level contains msg.
func AssertLogContains(t *testing.T, c *LogCapture, level slog.Level, msg string) {
	t.Helper()
	if _, ok := c.Find(level, msg); ok {
		return
	}
	t.Errorf("expected %s log containing %q", level, msg)
	for _, r := range c.Records() {
		t.Logf("  captured [%s] %s", r.Level, r.Message)
	}
}

// AssertNoErrors fails the test when an error-level record was captured.
func AssertNoErrors(t *testing.T, c *LogCapture) {
	t.Helper()
	for _, r := range c.Records() {
		if r.Level >= slog.LevelError {
			t.Errorf("unexpected error log: %s %v", r.Message, r.Attrs)
		}
	}
}
