package level

import (
	"sort"
	"sync"
)

// Registry maps level names to Levels, creating them on first access.
// Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	levels  map[string]*Level
	cfg     registryConfig
	emitter Emitter
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return NewRegistry()
})

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry()
}

// NewRegistry creates an independent registry.
func NewRegistry(opts ...Option) *Registry {
	cfg := applyOptions(opts)
	return &Registry{
		levels:  make(map[string]*Level),
		cfg:     cfg,
		emitter: Emitter{Logger: cfg.logger, Hooks: cfg.hooks},
	}
}

// GetLevel returns the level called name, creating it on first access. The
// same name always yields the same instance until Clear.
func (r *Registry) GetLevel(name string) (*Level, error) {
	if name == "" {
		return nil, NewError("get level", "", "", ErrInvalidArgument, "name is empty")
	}

	r.mu.RLock()
	l, ok := r.levels[name]
	r.mu.RUnlock()
	if ok {
		return l, nil
	}

	r.mu.Lock()
	l, ok = r.levels[name]
	if !ok {
		l = newLevel(r, name)
		r.levels[name] = l
	}
	r.mu.Unlock()

	if !ok {
		r.emit(Event{Kind: EventLevelCreated, Level: name})
	}
	return l, nil
}

// MustLevel is GetLevel for names known to be valid. It panics on error.
func (r *Registry) MustLevel(name string) *Level {
	l, err := r.GetLevel(name)
	if err != nil {
		panic(err)
	}
	return l
}

// Lookup returns the level called name without creating it.
func (r *Registry) Lookup(name string) (*Level, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.levels[name]
	return l, ok
}

// Levels returns the registered level names, sorted.
func (r *Registry) Levels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.levels))
	for name := range r.levels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear drops every level. Levels obtained earlier keep working but are no
// longer reachable by name, and their own state is left untouched.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.levels = make(map[string]*Level)
	r.mu.Unlock()

	r.emit(Event{Kind: EventRegistryCleared})
}

// Snapshot captures the state of every registered level, sorted by name.
func (r *Registry) Snapshot() []LevelState {
	r.mu.RLock()
	levels := make([]*Level, 0, len(r.levels))
	for _, l := range r.levels {
		levels = append(levels, l)
	}
	r.mu.RUnlock()

	sort.Slice(levels, func(i, j int) bool { return levels[i].name < levels[j].name })
	out := make([]LevelState, 0, len(levels))
	for _, l := range levels {
		out = append(out, l.State())
	}
	return out
}

func (r *Registry) emit(ev Event) {
	r.emitter.Emit(ev)
}
