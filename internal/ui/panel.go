package ui

import "vislevel/internal/level"

// BoundsFunc returns the panel's position and size given terminal dimensions.
// Returns x, y, width, height.
type BoundsFunc func(width, height int) (x, y, w, h int)

// Panel hosts a View and shows it only while its (level, item) is visible.
type Panel struct {
	ID     string
	View   View
	Bounds BoundsFunc

	visible bool
	binding *level.Binding
}

var _ level.Renderable = (*Panel)(nil)

// NewPanel creates a hidden panel for view.
func NewPanel(id string, view View) *Panel {
	return &Panel{ID: id, View: view}
}

// Attach binds the panel to item on l, replacing any earlier binding, and
// syncs it to the item's current visibility.
func (p *Panel) Attach(l *level.Level, item string) error {
	b, err := l.Bind(item, p)
	if err != nil {
		return err
	}
	p.Detach()
	p.binding = b
	b.Sync()
	return nil
}

// Detach stops following the bound item.
func (p *Panel) Detach() {
	if p.binding != nil {
		p.binding.Close()
		p.binding = nil
	}
}

// SetVisible implements level.Renderable. Views that track their own
// visibility are told as well.
func (p *Panel) SetVisible(visible bool) {
	p.visible = visible
	if r, ok := p.View.(level.Renderable); ok {
		r.SetVisible(visible)
	}
}

// Visible reports whether the panel is currently shown.
func (p *Panel) Visible() bool {
	return p.visible
}

// Render returns the view's output, or "" while hidden.
func (p *Panel) Render() string {
	if !p.visible || p.View == nil {
		return ""
	}
	return p.View.View()
}
