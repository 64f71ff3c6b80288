// Package typedlevel is the type-keyed flavour of the level registry.
//
// Each level kind is defined once by a Factory that declares the fixed set of
// item keys the level may ever hold. The registry builds the level on first
// Get and fails fast when the factory is missing, fails, or declares nothing.
// Typed levels track a single selected item; there is no child-level cascade.
package typedlevel

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"vislevel/internal/level"
)

// Kind identifies a level type.
type Kind string

// ItemKey identifies an item type within a level.
type ItemKey string

// Blueprint is what a Factory declares for its level.
type Blueprint struct {
	// Items is the fixed, non-empty set of item keys.
	Items []ItemKey
	// OnItemCreate runs once per item, when it is first referenced.
	OnItemCreate func(item *Item)
}

// Factory builds the blueprint for one level kind.
type Factory func() (Blueprint, error)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for debug trace lines.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.emitter.Logger = logger
	}
}

// WithHooks appends event hooks.
func WithHooks(hooks ...level.Hook) Option {
	return func(r *Registry) {
		for _, h := range hooks {
			if h != nil {
				r.emitter.Hooks = append(r.emitter.Hooks, h)
			}
		}
	}
}

// Registry maps kinds to factories and to the levels built from them.
type Registry struct {
	mu        sync.Mutex
	factories map[Kind]Factory
	levels    map[Kind]*Level
	emitter   level.Emitter

	building singleflight.Group
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return NewRegistry()
})

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry()
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		factories: make(map[Kind]Factory),
		levels:    make(map[Kind]*Level),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.emitter.Logger == nil {
		r.emitter.Logger = slog.Default()
	}
	return r
}

// Define registers the factory for kind. A kind can be defined once.
func (r *Registry) Define(kind Kind, factory Factory) error {
	if kind == "" {
		return level.NewError("define", "", "", level.ErrInvalidArgument, "kind is empty")
	}
	if factory == nil {
		return level.NewError("define", string(kind), "", level.ErrInvalidArgument, "factory is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[kind]; exists {
		return level.NewError("define", string(kind), "", level.ErrInvalidArgument, "kind already defined")
	}
	r.factories[kind] = factory
	return nil
}

// Kinds returns the defined kinds, sorted.
func (r *Registry) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]Kind, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Get returns the level for kind, building it on first access. Factories run
// outside the registry lock, so a factory may Get other kinds; concurrent
// callers for the same kind share one build. A factory must not Get its own
// kind.
func (r *Registry) Get(kind Kind) (*Level, error) {
	if kind == "" {
		return nil, level.NewError("get level", "", "", level.ErrInvalidArgument, "kind is empty")
	}
	r.mu.Lock()
	l, built := r.levels[kind]
	factory, defined := r.factories[kind]
	r.mu.Unlock()

	if built {
		return l, nil
	}
	if !defined {
		return nil, level.NewError("get level", string(kind), "", level.ErrConstruction, "kind is not defined")
	}

	v, err, _ := r.building.Do(string(kind), func() (any, error) {
		return r.construct(kind, factory)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Level), nil
}

func (r *Registry) construct(kind Kind, factory Factory) (*Level, error) {
	// Another build may have finished between the lookup and Do.
	r.mu.Lock()
	if l, ok := r.levels[kind]; ok {
		r.mu.Unlock()
		return l, nil
	}
	r.mu.Unlock()

	bp, err := build(factory)
	if err != nil {
		return nil, &level.Error{Op: "get level", Level: string(kind), Err: level.ErrConstruction, Detail: err.Error()}
	}
	if len(bp.Items) == 0 {
		return nil, level.NewError("get level", string(kind), "", level.ErrConstruction, "factory declared no items")
	}
	l, err := newLevel(r, kind, bp)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.levels[kind] = l
	r.mu.Unlock()

	keys := make([]string, len(bp.Items))
	for i, k := range bp.Items {
		keys[i] = string(k)
	}
	r.emitter.Emit(level.Event{
		Kind:  level.EventLevelCreated,
		Level: string(kind),
		Attrs: map[string]string{"items": strings.Join(keys, ",")},
	})
	return l, nil
}

// Clear drops every built level. Factories stay defined, so the next Get
// builds a fresh level.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.levels = make(map[Kind]*Level)
	r.mu.Unlock()
	r.emitter.Emit(level.Event{Kind: level.EventRegistryCleared})
}

// build runs factory, turning a panic into an error.
func build(factory Factory) (bp Blueprint, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("factory panicked: %v", p)
		}
	}()
	return factory()
}
