package trace

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"vislevel/internal/level"
)

// DefaultCapacity is the ring size used when NewRecorder gets a non-positive capacity.
const DefaultCapacity = 256

// Recorder keeps the most recent level events in a ring buffer and forwards
// each one to an optional OTLP exporter. It is a level.Hook.
type Recorder struct {
	mu         sync.RWMutex
	traceID    string
	rootSpanID string
	started    time.Time
	ring       []Entry // Fixed-size ring buffer
	next       int     // Slot for the next entry
	total      uint64  // Entries ever recorded
	onChange   func()  // Callback when a new entry lands
	exporter   *OTLPExporter
	logger     *slog.Logger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithExporter forwards every entry to exporter.
func WithExporter(exporter *OTLPExporter) RecorderOption {
	return func(r *Recorder) {
		r.exporter = exporter
	}
}

// WithRecorderLogger sets the logger used for export failures.
func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// NewRecorder creates a recorder holding up to capacity entries.
func NewRecorder(capacity int, opts ...RecorderOption) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	r := &Recorder{
		traceID:    NewTraceID(),
		rootSpanID: NewSpanID(),
		started:    time.Now(),
		ring:       make([]Entry, capacity),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// OnEvent records ev.
func (r *Recorder) OnEvent(ev level.Event) {
	r.mu.Lock()
	r.total++
	entry := Entry{
		TraceID:  r.traceID,
		SpanID:   NewSpanID(),
		ParentID: r.rootSpanID,
		Seq:      r.total,
		Event:    ev,
	}
	r.ring[r.next] = entry
	r.next = (r.next + 1) % len(r.ring)
	onChange := r.onChange
	exporter := r.exporter
	r.mu.Unlock()

	if exporter != nil {
		if err := exporter.Export(context.Background(), entry); err != nil {
			r.logger.Warn("trace export failed", "seq", entry.Seq, "error", err)
		}
	}
	if onChange != nil {
		onChange()
	}
}

// Recent returns up to n entries, newest first. n <= 0 returns everything held.
func (r *Recorder) Recent(n int) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	held := r.lenLocked()
	if n <= 0 || n > held {
		n = held
	}
	out := make([]Entry, 0, n)
	for i := 1; i <= n; i++ {
		idx := (r.next - i + len(r.ring)) % len(r.ring)
		out = append(out, r.ring[idx])
	}
	return out
}

// Len returns the number of entries currently held.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lenLocked()
}

func (r *Recorder) lenLocked() int {
	if r.total < uint64(len(r.ring)) {
		return int(r.total)
	}
	return len(r.ring)
}

// Total returns the number of entries ever recorded, including evicted ones.
func (r *Recorder) Total() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// TraceID returns the recording session's trace ID.
func (r *Recorder) TraceID() string {
	return r.traceID
}

// Started returns when the recording session began.
func (r *Recorder) Started() time.Time {
	return r.started
}

// SetOnChange sets callback for new entries (thread-safe).
func (r *Recorder) SetOnChange(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Shutdown flushes pending exports and closes the OTLP exporter.
// Must be called before process exit to ensure spans are exported.
func (r *Recorder) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	exporter := r.exporter
	r.mu.Unlock()

	if exporter != nil {
		return exporter.Shutdown(ctx)
	}
	return nil
}
