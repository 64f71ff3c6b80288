package trace

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"

	"vislevel/internal/level"
)

// Entry is one recorded level event within a recording session.
type Entry struct {
	TraceID  string      `json:"trace_id"`  // Recording session
	SpanID   string      `json:"span_id"`   // This event
	ParentID string      `json:"parent_id"` // Session root span
	Seq      uint64      `json:"seq"`       // 1-based, monotonic per recorder
	Event    level.Event `json:"event"`
}

// Name is the span name used for the entry, e.g. "vislevel.item_visibility".
func (e Entry) Name() string {
	return "vislevel." + string(e.Event.Kind)
}

// NewTraceID generates a random 16-byte trace ID as hex string (32 characters).
func NewTraceID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// NewSpanID generates a random 8-byte span ID as hex string (16 characters).
func NewSpanID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
