package level

import "sync/atomic"

// Renderable is anything that shows or hides itself when told to: a view, a
// panel, a tab.
type Renderable interface {
	SetVisible(visible bool)
}

// Binding forwards the transitions of one (level, item) pair to a
// Renderable and ignores everything else on the level.
//
// Levels hold bindings weakly. The consumer owns the *Binding and should
// call Close on teardown.
type Binding struct {
	level  *Level
	item   string
	target Renderable
	closed atomic.Bool
}

// Bind registers target for transitions of the item called item.
func (l *Level) Bind(item string, target Renderable) (*Binding, error) {
	if item == "" {
		return nil, NewError("bind", l.name, "", ErrInvalidArgument, "item name is empty")
	}
	if target == nil {
		return nil, NewError("bind", l.name, item, ErrInvalidArgument, "target is nil")
	}
	b := &Binding{level: l, item: item, target: target}
	l.AddCallback(b)
	return b, nil
}

// Level returns the bound level name.
func (b *Binding) Level() string { return b.level.name }

// Item returns the bound item name.
func (b *Binding) Item() string { return b.item }

// OnVisibleChanged implements Callback.
func (b *Binding) OnVisibleChanged(visible bool, item *Item) {
	if b.closed.Load() || item == nil {
		return
	}
	if !item.Is(b.item) || !item.Level().Is(b.level.name) {
		return
	}
	b.target.SetVisible(visible)
}

// Sync pushes the item's current visibility to the target, for consumers
// that bind after the item was already selected.
func (b *Binding) Sync() {
	if b.closed.Load() {
		return
	}
	item, ok := b.level.GetItem(b.item)
	b.target.SetVisible(ok && item.IsVisible())
}

// Close stops forwarding and unregisters the binding.
func (b *Binding) Close() {
	if b.closed.Swap(true) {
		return
	}
	b.level.RemoveCallback(b)
}
