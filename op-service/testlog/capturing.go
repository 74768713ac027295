package testlog

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/upgrade-check/op-service/logmods"
)

// CapturedRecord is a log record together with the attributes inherited from
// the logger it was emitted through.
type CapturedRecord struct {
	slog.Record
	Inherited []slog.Attr
}

// Attrs calls f on the record attributes first, then the inherited ones.
// Iteration stops if f returns false.
func (r *CapturedRecord) Attrs(f func(slog.Attr) bool) {
	searching := true
	r.Record.Attrs(func(a slog.Attr) bool {
		searching = f(a)
		return searching
	})
	if !searching {
		return
	}
	for i := len(r.Inherited) - 1; i >= 0; i-- {
		if !f(r.Inherited[i]) {
			return
		}
	}
}

// AttrValue returns the value of the first attribute with the given key, or nil.
func (r *CapturedRecord) AttrValue(name string) (v any) {
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == name {
			v = a.Value.Any()
			return false
		}
		return true
	})
	return
}

type capturedLogs struct {
	mu      sync.Mutex
	records []*CapturedRecord
}

// CapturingHandler records every log record and forwards it to a delegate handler.
type CapturingHandler struct {
	handler slog.Handler
	logs    *capturedLogs
	attrs   []slog.Attr
}

var _ logmods.Handler = (*CapturingHandler)(nil)

func WrapCaptureLogger(h slog.Handler) slog.Handler {
	return &CapturingHandler{handler: h, logs: new(capturedLogs)}
}

// CaptureLogger returns a test logger and the handler capturing its records.
func CaptureLogger(t Testing, level slog.Level) (_ log.Logger, ch *CapturingHandler) {
	logger := LoggerWithHandlerMod(t, level, WrapCaptureLogger)
	out, ok := logmods.FindHandler[*CapturingHandler](logger.Handler())
	if !ok {
		panic("failed to get attached log-capturing handler")
	}
	return logger, out
}

func (c *CapturingHandler) Unwrap() slog.Handler {
	return c.handler
}

func (c *CapturingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return c.handler.Enabled(ctx, level)
}

func (c *CapturingHandler) Handle(ctx context.Context, r slog.Record) error {
	c.logs.mu.Lock()
	c.logs.records = append(c.logs.records, &CapturedRecord{Record: r.Clone(), Inherited: c.attrs})
	c.logs.mu.Unlock()
	return c.handler.Handle(ctx, r)
}

func (c *CapturingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	inherited := make([]slog.Attr, 0, len(c.attrs)+len(attrs))
	inherited = append(inherited, c.attrs...)
	inherited = append(inherited, attrs...)
	return &CapturingHandler{handler: c.handler.WithAttrs(attrs), logs: c.logs, attrs: inherited}
}

func (c *CapturingHandler) WithGroup(name string) slog.Handler {
	return &CapturingHandler{handler: c.handler.WithGroup(name), logs: c.logs, attrs: c.attrs}
}

// Clear drops all captured records.
func (c *CapturingHandler) Clear() {
	c.logs.mu.Lock()
	defer c.logs.mu.Unlock()
	c.logs.records = c.logs.records[:0]
}

type LogFilter func(record *CapturedRecord) bool

func NewLevelFilter(level slog.Level) LogFilter {
	return func(r *CapturedRecord) bool {
		return r.Level == level
	}
}

func NewMessageFilter(message string) LogFilter {
	return func(r *CapturedRecord) bool {
		return r.Message == message
	}
}

func NewAttributesFilter(key, value string) LogFilter {
	return func(r *CapturedRecord) bool {
		found := false
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == key && a.Value.String() == value {
				found = true
				return false
			}
			return true
		})
		return found
	}
}

// FindLog returns the first captured record matching all filters, or nil.
func (c *CapturingHandler) FindLog(filters ...LogFilter) *CapturedRecord {
	if logs := c.FindLogs(filters...); len(logs) > 0 {
		return logs[0]
	}
	return nil
}

// FindLogs returns all captured records matching all filters, in emission order.
func (c *CapturingHandler) FindLogs(filters ...LogFilter) []*CapturedRecord {
	c.logs.mu.Lock()
	defer c.logs.mu.Unlock()
	var out []*CapturedRecord
outer:
	for _, record := range c.logs.records {
		for _, filter := range filters {
			if !filter(record) {
				continue outer
			}
		}
		out = append(out, record)
	}
	return out
}
