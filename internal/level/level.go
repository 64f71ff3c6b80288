package level

import (
	"sort"
	"sync"

	"vislevel/internal/callback"
)

// Level is a named set of mutually exclusive items. At most one item is
// selected at a time; the level's own visibility flag gates propagation.
//
// State changes are computed under the level mutex and callbacks run after it
// is released, so a callback may call back into the same level.
type Level struct {
	name     string
	registry *Registry

	mu          sync.Mutex
	items       map[string]*Item
	visible     bool
	visibleItem *Item

	callbacks *callback.Registry[Callback]
}

func newLevel(r *Registry, name string) *Level {
	return &Level{
		name:      name,
		registry:  r,
		items:     make(map[string]*Item),
		visible:   true,
		callbacks: callback.New[Callback](),
	}
}

// Name returns the level name.
func (l *Level) Name() string { return l.name }

// Is reports whether the level is called name.
func (l *Level) Is(name string) bool { return l.name == name }

// AddItem returns the item called name, creating it on first reference.
func (l *Level) AddItem(name string) (*Item, error) {
	if name == "" {
		return nil, NewError("add item", l.name, "", ErrInvalidArgument, "name is empty")
	}
	l.mu.Lock()
	item, ok := l.items[name]
	if !ok {
		item = newItem(name, l)
		l.items[name] = item
		// A removed item that was still selected is replaced by the new one.
		if item.Equal(l.visibleItem) {
			l.visibleItem = item
		}
	}
	l.mu.Unlock()

	if !ok {
		l.registry.emit(Event{Kind: EventItemCreated, Level: l.name, Item: name})
	}
	return item, nil
}

// GetItem returns the item called name if it exists.
func (l *Level) GetItem(name string) (*Item, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	item, ok := l.items[name]
	return item, ok
}

// RemoveItem drops the item called name. References held elsewhere become
// stale. If it was selected, transitions report ErrIllegalState until the
// selection is cleared or an item of the same name is added back, which then
// takes over the selection.
func (l *Level) RemoveItem(name string) {
	l.mu.Lock()
	_, ok := l.items[name]
	delete(l.items, name)
	l.mu.Unlock()

	if ok {
		l.registry.emit(Event{Kind: EventItemRemoved, Level: l.name, Item: name})
	}
}

// Items returns the item names, sorted.
func (l *Level) Items() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.items))
	for name := range l.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClearItem drops every item and the selection. No invisibility notification
// is sent unless the registry was built WithStrictClear.
func (l *Level) ClearItem() error {
	var err error
	if l.registry.cfg.strictClear {
		l.mu.Lock()
		item := l.visibleItem
		l.mu.Unlock()
		err = l.deliver(false, item)
	}

	l.mu.Lock()
	l.items = make(map[string]*Item)
	l.visibleItem = nil
	l.mu.Unlock()

	l.registry.emit(Event{Kind: EventItemsCleared, Level: l.name})
	return err
}

// IsVisible reports the level's visibility flag.
func (l *Level) IsVisible() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.visible
}

// VisibleItem returns the selected item, or nil.
func (l *Level) VisibleItem() *Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.visibleItem
}

// SetVisible changes the level's visibility. Nothing fires when the value is
// unchanged. Otherwise level callbacks hear about it first, then the selected
// item receives the same value, cascading into its child level.
func (l *Level) SetVisible(visible bool) error {
	l.mu.Lock()
	if l.visible == visible {
		l.mu.Unlock()
		return nil
	}
	item := l.visibleItem
	if item != nil && !l.memberLocked(item) {
		l.mu.Unlock()
		return NewError("set visible", l.name, item.name, ErrIllegalState, "selected item is not in level")
	}
	l.visible = visible
	l.mu.Unlock()

	l.registry.emit(Event{Kind: EventLevelVisibility, Level: l.name, Visible: visible})
	for _, cb := range l.callbacks.Snapshot() {
		if lc, ok := cb.(LevelCallback); ok {
			lc.OnLevelVisibleChanged(visible, l)
		}
	}
	return l.deliver(visible, item)
}

// SelectItem makes the item called name the visible one. It fails with
// ErrIllegalState while the level is hidden. Unknown names and the already
// selected item are ignored. The previous item, including its child level,
// is fully hidden before the new one is shown.
//
// If a callback selects another item while the previous one is being hidden,
// that later selection stands and this call returns without showing name.
func (l *Level) SelectItem(name string) error {
	l.mu.Lock()
	if !l.visible {
		l.mu.Unlock()
		return NewError("select item", l.name, name, ErrIllegalState, "level is not visible")
	}
	item, ok := l.items[name]
	if !ok || item.Equal(l.visibleItem) {
		l.mu.Unlock()
		return nil
	}
	old := l.visibleItem
	l.visibleItem = nil
	l.mu.Unlock()

	if err := l.deliver(false, old); err != nil {
		return err
	}

	l.mu.Lock()
	switch {
	case l.visibleItem != nil:
		l.mu.Unlock()
		return nil
	case !l.visible:
		l.mu.Unlock()
		return NewError("select item", l.name, name, ErrIllegalState, "level was hidden during select")
	case l.items[name] != item:
		l.mu.Unlock()
		return NewError("select item", l.name, name, ErrIllegalState, "item was removed during select")
	}
	l.visibleItem = item
	l.mu.Unlock()
	return l.deliver(true, item)
}

// InvisibleItem hides the selected item regardless of the level's own flag
// and clears the selection.
func (l *Level) InvisibleItem() error {
	l.mu.Lock()
	item := l.visibleItem
	l.mu.Unlock()

	err := l.deliver(false, item)

	l.mu.Lock()
	if l.visibleItem == item {
		l.visibleItem = nil
	}
	l.mu.Unlock()
	return err
}

// NotifyVisibleItem re-delivers a visible transition for the selected item
// without changing state.
func (l *Level) NotifyVisibleItem() error {
	l.mu.Lock()
	item := l.visibleItem
	l.mu.Unlock()
	return l.deliver(true, item)
}

// AddCallback registers cb. Pointer callbacks are held weakly.
func (l *Level) AddCallback(cb Callback) {
	l.callbacks.Add(cb)
}

// RemoveCallback unregisters cb.
func (l *Level) RemoveCallback(cb Callback) {
	l.callbacks.Remove(cb)
}

// deliver fires item callbacks for item and cascades into its child level.
func (l *Level) deliver(visible bool, item *Item) error {
	if item == nil {
		return nil
	}
	l.mu.Lock()
	member := l.memberLocked(item)
	l.mu.Unlock()
	if !member {
		return NewError("notify item", l.name, item.name, ErrIllegalState, "item is not in level")
	}

	l.registry.emit(Event{Kind: EventItemVisibility, Level: l.name, Item: item.name, Visible: visible})
	for _, cb := range l.callbacks.Snapshot() {
		cb.OnVisibleChanged(visible, item)
	}
	return item.notifyChildLevel(visible)
}

// memberLocked reports whether item is the instance the level holds under its
// name. l.mu must be held.
func (l *Level) memberLocked(item *Item) bool {
	return l.items[item.name] == item
}

// LevelState is a point-in-time view of a level.
type LevelState struct {
	Name        string      `json:"name"`
	Visible     bool        `json:"visible"`
	VisibleItem string      `json:"visible_item,omitempty"`
	Items       []ItemState `json:"items"`
	Callbacks   int         `json:"callbacks"`
}

// ItemState is a point-in-time view of an item.
type ItemState struct {
	Name       string `json:"name"`
	ChildLevel string `json:"child_level,omitempty"`
	Visible    bool   `json:"visible"`
}

// State captures the level's current state.
func (l *Level) State() LevelState {
	l.mu.Lock()
	st := LevelState{
		Name:    l.name,
		Visible: l.visible,
		Items:   make([]ItemState, 0, len(l.items)),
	}
	if l.visibleItem != nil {
		st.VisibleItem = l.visibleItem.name
	}
	items := make([]*Item, 0, len(l.items))
	for _, item := range l.items {
		items = append(items, item)
		st.Items = append(st.Items, ItemState{
			Name:    item.name,
			Visible: l.visible && item.Equal(l.visibleItem),
		})
	}
	l.mu.Unlock()

	for i, item := range items {
		st.Items[i].ChildLevel = item.ChildLevel()
	}
	sort.Slice(st.Items, func(i, j int) bool { return st.Items[i].Name < st.Items[j].Name })
	st.Callbacks = l.callbacks.Len()
	return st
}
