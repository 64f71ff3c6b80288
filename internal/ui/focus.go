package ui

import "vislevel/internal/level"

// FocusManager rotates focus across the items of a level. Focus is the
// level's selected item, so moving focus selects.
type FocusManager struct {
	Level    *level.Level
	Order    []string // Tab order for focus rotation
	OnChange func(from, to string)
}

// Current returns the focused item name, or "" if nothing is selected.
func (f *FocusManager) Current() string {
	if f.Level == nil {
		return ""
	}
	if item := f.Level.VisibleItem(); item != nil {
		return item.Name()
	}
	return ""
}

// Next advances focus to the next item in order.
// Returns the new current focus ID.
func (f *FocusManager) Next() (string, error) {
	return f.move(1)
}

// Prev moves focus to the previous item in order.
func (f *FocusManager) Prev() (string, error) {
	return f.move(-1)
}

func (f *FocusManager) move(delta int) (string, error) {
	if len(f.Order) == 0 {
		return "", nil
	}
	current := f.Current()
	idx := -1
	for i, id := range f.Order {
		if id == current {
			idx = i
			break
		}
	}
	var nextIdx int
	switch {
	case idx < 0 && delta < 0:
		nextIdx = len(f.Order) - 1
	case idx < 0:
		nextIdx = 0
	default:
		nextIdx = (idx + delta + len(f.Order)) % len(f.Order)
	}
	if _, err := f.SetFocus(f.Order[nextIdx]); err != nil {
		return current, err
	}
	return f.Current(), nil
}

// SetFocus selects the given item.
// Returns true if the ID exists in order.
func (f *FocusManager) SetFocus(id string) (bool, error) {
	for _, o := range f.Order {
		if o != id {
			continue
		}
		from := f.Current()
		if err := f.Level.SelectItem(id); err != nil {
			return true, err
		}
		if f.OnChange != nil && from != id {
			f.OnChange(from, id)
		}
		return true, nil
	}
	return false, nil
}
