// Package callback holds observers without owning them.
//
// A Registry keys each observer by identity. Pointer observers are stored as
// weak references: once nothing else in the program refers to them, the
// garbage collector reclaims them and they silently drop out of future
// snapshots. Non-pointer observers have no lifetime to track and are held
// strongly until removed.
package callback

import (
	"reflect"
	"slices"
	"sync"
	"unsafe"
	"weak"
)

type entry[C any] struct {
	seq    uint64
	ref    weak.Pointer[byte]
	typ    reflect.Type
	strong C
	weakly bool
}

// resolve returns the live observer, or false when a weak entry was collected.
func (e *entry[C]) resolve() (C, bool) {
	if !e.weakly {
		return e.strong, true
	}
	p := e.ref.Value()
	if p == nil {
		var zero C
		return zero, false
	}
	c, ok := reflect.NewAt(e.typ.Elem(), unsafe.Pointer(p)).Interface().(C)
	return c, ok
}

// Registry is an identity-keyed observer set. Safe for concurrent use.
type Registry[C any] struct {
	mu      sync.Mutex
	seq     uint64
	entries map[any]*entry[C]
}

// New creates an empty registry.
func New[C any]() *Registry[C] {
	return &Registry[C]{
		entries: make(map[any]*entry[C]),
	}
}

// Add stores observer. Adding an observer that is already present is a no-op.
// Returns false when observer is nil or cannot be used as an identity key
// (for example a bare func value).
func (r *Registry[C]) Add(observer C) bool {
	key, ref, weakly, ok := identity(observer)
	if !ok {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = make(map[any]*entry[C])
	}
	if _, exists := r.entries[key]; exists {
		return true
	}
	r.seq++
	e := &entry[C]{seq: r.seq, weakly: weakly}
	if weakly {
		e.ref = ref
		e.typ = reflect.TypeOf(observer)
	} else {
		e.strong = observer
	}
	r.entries[key] = e
	return true
}

// Remove drops observer. Removing an absent observer is a no-op.
func (r *Registry[C]) Remove(observer C) {
	key, _, _, ok := identity(observer)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// Contains reports whether observer is registered and still alive.
func (r *Registry[C]) Contains(observer C) bool {
	key, _, _, ok := identity(observer)
	if !ok {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, exists := r.entries[key]
	if !exists {
		return false
	}
	_, alive := e.resolve()
	return alive
}

// Snapshot returns the live observers in registration order. The slice is
// owned by the caller; later Add/Remove calls do not affect it. Collected
// entries are pruned as a side effect.
func (r *Registry[C]) Snapshot() []C {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return nil
	}
	live := make([]*entry[C], 0, len(r.entries))
	for key, e := range r.entries {
		if _, alive := e.resolve(); !alive {
			delete(r.entries, key)
			continue
		}
		live = append(live, e)
	}
	slices.SortFunc(live, func(a, b *entry[C]) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	out := make([]C, 0, len(live))
	for _, e := range live {
		// The entry may have been collected between the two passes.
		if c, ok := e.resolve(); ok {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of live observers.
func (r *Registry[C]) Len() int {
	return len(r.Snapshot())
}

// Clear drops every observer.
func (r *Registry[C]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.entries)
}

// identity derives the map key for observer. Pointers to sized values are
// keyed by a weak handle, which compares equal for the same object and never
// keeps it alive.
func identity(observer any) (key any, ref weak.Pointer[byte], weakly, ok bool) {
	if observer == nil {
		return nil, ref, false, false
	}
	rv := reflect.ValueOf(observer)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, ref, false, false
		}
		if rv.Type().Elem().Size() > 0 {
			ref = weak.Make((*byte)(rv.UnsafePointer()))
			return ref, ref, true, true
		}
	}
	if !rv.Type().Comparable() {
		return nil, ref, false, false
	}
	return observer, ref, false, true
}
