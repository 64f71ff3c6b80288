package level

// Callback observes item visibility transitions on a Level.
type Callback interface {
	OnVisibleChanged(visible bool, item *Item)
}

// LevelCallback is implemented by callbacks that also want to hear when the
// level itself is shown or hidden.
type LevelCallback interface {
	OnLevelVisibleChanged(visible bool, level *Level)
}

// FuncCallback adapts functions to Callback and LevelCallback. Levels hold
// callbacks weakly, so the caller must keep the returned pointer reachable
// for as long as it wants notifications.
type FuncCallback struct {
	OnItem  func(visible bool, item *Item)
	OnLevel func(visible bool, level *Level)
}

// NewCallback wraps fn as an item callback.
func NewCallback(fn func(visible bool, item *Item)) *FuncCallback {
	return &FuncCallback{OnItem: fn}
}

// OnVisibleChanged implements Callback.
func (f *FuncCallback) OnVisibleChanged(visible bool, item *Item) {
	if f.OnItem != nil {
		f.OnItem(visible, item)
	}
}

// OnLevelVisibleChanged implements LevelCallback.
func (f *FuncCallback) OnLevelVisibleChanged(visible bool, level *Level) {
	if f.OnLevel != nil {
		f.OnLevel(visible, level)
	}
}
