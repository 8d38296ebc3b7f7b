package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Record is one captured log entry.
type Record struct {
	Time    time.Time
	Level   slog.Level
	Logger  string
	Message string
	Attrs   []slog.Attr
}

// RecordBuffer is an append-only, concurrency-safe list of records.
// Readers get copies and never observe a partially appended record.
type RecordBuffer struct {
	mu      sync.RWMutex
	records []Record
}

// NewRecordBuffer creates an empty buffer.
func NewRecordBuffer() *RecordBuffer {
	return &RecordBuffer{}
}

// Append adds r to the end of the buffer.
func (b *RecordBuffer) Append(r Record) {
	b.mu.Lock()
	b.records = append(b.records, r)
	b.mu.Unlock()
}

// Records returns a copy of every record.
func (b *RecordBuffer) Records() []Record {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Record, len(b.records))
	copy(out, b.records)
	return out
}

// From returns the records at index i and later, plus the index to pass on
// the next call.
func (b *RecordBuffer) From(i int) ([]Record, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := len(b.records)
	if i < 0 {
		i = 0
	}
	if i >= n {
		return nil, n
	}
	out := make([]Record, n-i)
	copy(out, b.records[i:])
	return out, n
}

// Len returns the number of records.
func (b *RecordBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

// HandlerOptions configures a RecordHandler.
type HandlerOptions struct {
	// Level is the minimum level recorded. Nil means slog.LevelInfo.
	Level slog.Leveler
	// Echo, when set, also receives every record formatted by Formatter
	// followed by a newline.
	Echo io.Writer
	// Formatter formats echoed records. Nil means DefaultFormatter().
	Formatter Formatter
}

// RecordHandler is a slog.Handler that appends into a RecordBuffer until
// it is closed.
type RecordHandler struct {
	buf    *RecordBuffer
	closed *atomic.Bool
	name   string
	opts   HandlerOptions
	attrs  []slog.Attr
	groups []string
}

// NewRecordHandler creates a handler that records under logger name.
func NewRecordHandler(buf *RecordBuffer, name string, opts HandlerOptions) *RecordHandler {
	if opts.Level == nil {
		opts.Level = slog.LevelInfo
	}
	if opts.Echo != nil && opts.Formatter == nil {
		opts.Formatter = DefaultFormatter()
	}
	return &RecordHandler{buf: buf, closed: new(atomic.Bool), name: name, opts: opts}
}

// Close stops h and every handler derived from it. Later records are
// dropped.
func (h *RecordHandler) Close() {
	h.closed.Store(true)
}

// Enabled implements slog.Handler.
func (h *RecordHandler) Enabled(_ context.Context, level slog.Level) bool {
	return !h.closed.Load() && level >= h.opts.Level.Level()
}

// Handle implements slog.Handler.
func (h *RecordHandler) Handle(_ context.Context, r slog.Record) error {
	if h.closed.Load() {
		return nil
	}
	rec := Record{
		Time:    r.Time,
		Level:   r.Level,
		Logger:  h.name,
		Message: r.Message,
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}
	if len(h.attrs) > 0 || r.NumAttrs() > 0 {
		rec.Attrs = make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
		rec.Attrs = append(rec.Attrs, h.attrs...)
		r.Attrs(func(a slog.Attr) bool {
			rec.Attrs = append(rec.Attrs, h.qualify(a))
			return true
		})
	}
	h.buf.Append(rec)

	if h.opts.Echo != nil {
		_, err := io.WriteString(h.opts.Echo, h.opts.Formatter.Format(rec)+"\n")
		return err
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *RecordHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := h.clone()
	for _, a := range attrs {
		c.attrs = append(c.attrs, h.qualify(a))
	}
	return c
}

// WithGroup implements slog.Handler. Groups prefix attribute keys.
func (h *RecordHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.groups = append(c.groups, name)
	return c
}

func (h *RecordHandler) clone() *RecordHandler {
	return &RecordHandler{
		buf:    h.buf,
		closed: h.closed,
		name:   h.name,
		opts:   h.opts,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}

func (h *RecordHandler) qualify(a slog.Attr) slog.Attr {
	if len(h.groups) == 0 {
		return a
	}
	a.Key = strings.Join(h.groups, ".") + "." + a.Key
	return a
}

// fanoutHandler sends each record to every handler that accepts its level.
type fanoutHandler []slog.Handler

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
