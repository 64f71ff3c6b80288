package typedlevel

import (
	"sync"

	"vislevel/internal/callback"
	"vislevel/internal/level"
)

// LevelCallback hears when a typed level is shown or hidden.
type LevelCallback interface {
	OnLevelVisibilityChanged(visible bool, l *Level)
}

// ItemCallback hears when a typed item is shown or hidden.
type ItemCallback interface {
	OnItemVisibilityChanged(visible bool, item *Item)
}

// Level is a typed level with a declared, fixed item set.
type Level struct {
	kind     Kind
	registry *Registry
	onCreate func(*Item)
	declared []ItemKey

	mu      sync.Mutex
	items   map[ItemKey]*Item // nil value: declared, not yet created
	visible bool
	current *Item

	callbacks *callback.Registry[LevelCallback]
}

func newLevel(r *Registry, kind Kind, bp Blueprint) (*Level, error) {
	l := &Level{
		kind:      kind,
		registry:  r,
		onCreate:  bp.OnItemCreate,
		declared:  make([]ItemKey, 0, len(bp.Items)),
		items:     make(map[ItemKey]*Item, len(bp.Items)),
		visible:   true,
		callbacks: callback.New[LevelCallback](),
	}
	for _, key := range bp.Items {
		if key == "" {
			return nil, level.NewError("get level", string(kind), "", level.ErrInvalidArgument, "declared item key is empty")
		}
		if _, dup := l.items[key]; dup {
			return nil, level.NewError("get level", string(kind), string(key), level.ErrInvalidArgument, "item declared twice")
		}
		l.items[key] = nil
		l.declared = append(l.declared, key)
	}
	return l, nil
}

// Kind returns the level kind.
func (l *Level) Kind() Kind { return l.kind }

// Declared returns the declared item keys in declaration order.
func (l *Level) Declared() []ItemKey {
	return append([]ItemKey(nil), l.declared...)
}

// Item returns the item for key, creating it on first reference. Keys the
// level did not declare fail with ErrInvalidArgument.
func (l *Level) Item(key ItemKey) (*Item, error) {
	l.mu.Lock()
	item, declared := l.items[key]
	if !declared {
		l.mu.Unlock()
		return nil, level.NewError("get item", string(l.kind), string(key), level.ErrInvalidArgument, "item is not declared by level")
	}
	created := false
	if item == nil {
		item = newItem(key, l)
		l.items[key] = item
		created = true
	}
	l.mu.Unlock()

	if created {
		l.registry.emitter.Emit(level.Event{Kind: level.EventItemCreated, Level: string(l.kind), Item: string(key)})
		if l.onCreate != nil {
			l.onCreate(item)
		}
	}
	return item, nil
}

// IsVisible reports the level's visibility flag.
func (l *Level) IsVisible() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.visible
}

// CurrentItem returns the selected item, or nil.
func (l *Level) CurrentItem() *Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// SetVisible changes the level's visibility, notifying level callbacks and
// then the selected item. Unchanged values are ignored.
func (l *Level) SetVisible(visible bool) error {
	l.mu.Lock()
	if l.visible == visible {
		l.mu.Unlock()
		return nil
	}
	l.visible = visible
	item := l.current
	l.mu.Unlock()

	l.registry.emitter.Emit(level.Event{Kind: level.EventLevelVisibility, Level: string(l.kind), Visible: visible})
	for _, cb := range l.callbacks.Snapshot() {
		cb.OnLevelVisibilityChanged(visible, l)
	}
	return l.deliver(visible, item)
}

// SelectItem makes the item for key the visible one. It fails with
// ErrIllegalState while the level is hidden and ErrInvalidArgument for
// undeclared keys.
func (l *Level) SelectItem(key ItemKey) error {
	if !l.IsVisible() {
		return level.NewError("select item", string(l.kind), string(key), level.ErrIllegalState, "level is not visible")
	}
	item, err := l.Item(key)
	if err != nil {
		return err
	}

	l.mu.Lock()
	old := l.current
	if old == item {
		l.mu.Unlock()
		return nil
	}
	l.current = nil
	l.mu.Unlock()

	if err := l.deliver(false, old); err != nil {
		return err
	}

	// A selection made by a callback while old was being hidden stands.
	l.mu.Lock()
	if l.current != nil {
		l.mu.Unlock()
		return nil
	}
	if !l.visible {
		l.mu.Unlock()
		return level.NewError("select item", string(l.kind), string(key), level.ErrIllegalState, "level was hidden during select")
	}
	l.current = item
	l.mu.Unlock()
	return l.deliver(true, item)
}

// InvisibleCurrentItem hides the selected item and clears the selection.
func (l *Level) InvisibleCurrentItem() error {
	l.mu.Lock()
	item := l.current
	l.mu.Unlock()

	err := l.deliver(false, item)

	l.mu.Lock()
	if l.current == item {
		l.current = nil
	}
	l.mu.Unlock()
	return err
}

// NotifyCurrentItem re-delivers a visible transition for the selected item.
func (l *Level) NotifyCurrentItem() error {
	l.mu.Lock()
	item := l.current
	l.mu.Unlock()
	return l.deliver(true, item)
}

// AddCallback registers cb. Pointer callbacks are held weakly.
func (l *Level) AddCallback(cb LevelCallback) {
	l.callbacks.Add(cb)
}

// RemoveCallback unregisters cb.
func (l *Level) RemoveCallback(cb LevelCallback) {
	l.callbacks.Remove(cb)
}

func (l *Level) deliver(visible bool, item *Item) error {
	if item == nil {
		return nil
	}
	l.mu.Lock()
	member := l.items[item.key] == item
	l.mu.Unlock()
	if !member {
		return level.NewError("notify item", string(l.kind), string(item.key), level.ErrIllegalState, "item is not in level")
	}
	l.registry.emitter.Emit(level.Event{Kind: level.EventItemVisibility, Level: string(l.kind), Item: string(item.key), Visible: visible})
	item.notify(visible)
	return nil
}
