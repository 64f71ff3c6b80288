package typedlevel

import "vislevel/internal/callback"

// Item is a lazily created member of a typed level.
type Item struct {
	key       ItemKey
	level     *Level
	callbacks *callback.Registry[ItemCallback]
}

func newItem(key ItemKey, l *Level) *Item {
	return &Item{key: key, level: l, callbacks: callback.New[ItemCallback]()}
}

// Key returns the item key.
func (i *Item) Key() ItemKey { return i.key }

// Level returns the owning level.
func (i *Item) Level() *Level { return i.level }

// IsVisible reports whether the level is visible and this item is selected.
func (i *Item) IsVisible() bool {
	l := i.level
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.visible && l.current == i
}

// AddCallback registers cb. Pointer callbacks are held weakly.
func (i *Item) AddCallback(cb ItemCallback) {
	i.callbacks.Add(cb)
}

// RemoveCallback unregisters cb.
func (i *Item) RemoveCallback(cb ItemCallback) {
	i.callbacks.Remove(cb)
}

func (i *Item) notify(visible bool) {
	for _, cb := range i.callbacks.Snapshot() {
		cb.OnItemVisibilityChanged(visible, i)
	}
}
