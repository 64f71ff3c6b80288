package level

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// EventKind identifies a creation or transition event.
type EventKind string

const (
	EventLevelCreated    EventKind = "level_created"
	EventItemCreated     EventKind = "item_created"
	EventItemRemoved     EventKind = "item_removed"
	EventItemsCleared    EventKind = "items_cleared"
	EventLevelVisibility EventKind = "level_visibility"
	EventItemVisibility  EventKind = "item_visibility"
	EventRegistryCleared EventKind = "registry_cleared"
)

// HasVisibility reports whether events of this kind carry a meaningful
// Visible flag.
func (k EventKind) HasVisibility() bool {
	return k == EventLevelVisibility || k == EventItemVisibility
}

// Event describes something that happened inside a registry.
type Event struct {
	Kind    EventKind         `json:"kind"`
	Level   string            `json:"level,omitempty"`
	Item    string            `json:"item,omitempty"`
	Visible bool              `json:"visible"`
	At      time.Time         `json:"at"`
	Attrs   map[string]string `json:"attrs,omitempty"`
}

// Hook receives every event emitted by a registry.
type Hook interface {
	OnEvent(Event)
}

// HookFunc adapts a function to Hook.
type HookFunc func(Event)

// OnEvent implements Hook.
func (f HookFunc) OnEvent(ev Event) {
	if f != nil {
		f(ev)
	}
}

// Hooks fans an event out to several hooks. A panicking hook does not stop
// the others.
type Hooks []Hook

// OnEvent implements Hook.
func (h Hooks) OnEvent(ev Event) {
	for _, hook := range h {
		if hook != nil {
			safeCall(func() { hook.OnEvent(ev) })
		}
	}
}

func safeCall(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}

var debug atomic.Bool

// SetDebug toggles process-wide trace logging of every creation and
// transition event. It has no effect on behavior.
func SetDebug(enabled bool) {
	debug.Store(enabled)
}

// Debug reports whether trace logging is enabled.
func Debug() bool {
	return debug.Load()
}

// Emitter stamps events, writes debug lines and forwards to hooks. Registries
// in this package and in typedlevel share it.
type Emitter struct {
	Logger *slog.Logger
	Hooks  Hooks
}

// Emit delivers ev.
func (e Emitter) Emit(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	if Debug() {
		logger := e.Logger
		if logger == nil {
			logger = slog.Default()
		}
		attrs := []slog.Attr{slog.String("event", string(ev.Kind))}
		if ev.Level != "" {
			attrs = append(attrs, slog.String("level_name", ev.Level))
		}
		if ev.Item != "" {
			attrs = append(attrs, slog.String("item", ev.Item))
		}
		if ev.Kind.HasVisibility() {
			attrs = append(attrs, slog.Bool("visible", ev.Visible))
		}
		for k, v := range ev.Attrs {
			attrs = append(attrs, slog.String(k, v))
		}
		logger.LogAttrs(context.Background(), slog.LevelInfo, "vislevel", attrs...)
	}
	if len(e.Hooks) > 0 {
		e.Hooks.OnEvent(ev)
	}
}
