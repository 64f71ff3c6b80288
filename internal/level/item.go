package level

import "sync"

// Item is a named member of exactly one Level. It may name a child level whose
// visibility follows its own.
type Item struct {
	name  string
	level *Level

	mu         sync.RWMutex
	childLevel string
}

func newItem(name string, l *Level) *Item {
	return &Item{name: name, level: l}
}

// Name returns the item name.
func (i *Item) Name() string { return i.name }

// Level returns the owning level.
func (i *Item) Level() *Level { return i.level }

// Is reports whether the item is called name.
func (i *Item) Is(name string) bool { return i.name == name }

// Equal reports whether i and other share a name and an owning level.
func (i *Item) Equal(other *Item) bool {
	if i == nil || other == nil {
		return i == other
	}
	return i.name == other.name && i.level == other.level
}

// SetChildLevel links the item to the level called name. It takes effect the
// next time the item changes visibility. An empty name removes the link.
func (i *Item) SetChildLevel(name string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.childLevel = name
}

// ChildLevel returns the linked level name, or "".
func (i *Item) ChildLevel() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.childLevel
}

// IsVisible reports whether the owning level is visible and has this item
// selected.
func (i *Item) IsVisible() bool {
	l := i.level
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.visible && i.Equal(l.visibleItem)
}

// notifyChildLevel pushes visible into the linked level, creating it if it
// has not been referenced yet so that a late consumer sees the right state.
func (i *Item) notifyChildLevel(visible bool) error {
	name := i.ChildLevel()
	if name == "" {
		return nil
	}
	child, err := i.level.registry.GetLevel(name)
	if err != nil {
		return err
	}
	return child.SetVisible(visible)
}
