package ui

// Layout arranges panels and defines focus order.
type Layout interface {
	Panels() []*Panel
	FocusOrder() []string // Tab order for focus
}

// VisiblePanels returns the layout's panels that are currently shown.
func VisiblePanels(l Layout) []*Panel {
	var out []*Panel
	for _, p := range l.Panels() {
		if p.Visible() {
			out = append(out, p)
		}
	}
	return out
}
