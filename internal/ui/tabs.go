package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"vislevel/internal/level"
)

// Tab is one entry of a TabSet. A Tab whose View is itself a *TabSet becomes
// the parent of that set's level, so hiding the tab hides the nested tabs.
type Tab struct {
	Name  string
	Title string
	View  View
}

// TabSet renders a level as a tab bar with one panel per item.
type TabSet struct {
	level  *level.Level
	tabs   []Tab
	panels []*Panel
	Focus  *FocusManager
}

var (
	_ View   = (*TabSet)(nil)
	_ Layout = (*TabSet)(nil)
)

// NewTabSet creates an item on l per tab and binds a panel to each.
func NewTabSet(l *level.Level, tabs ...Tab) (*TabSet, error) {
	if len(tabs) == 0 {
		return nil, fmt.Errorf("tab set %q: no tabs", l.Name())
	}
	ts := &TabSet{
		level: l,
		tabs:  tabs,
		Focus: &FocusManager{Level: l},
	}
	for _, tab := range tabs {
		item, err := l.AddItem(tab.Name)
		if err != nil {
			return nil, fmt.Errorf("tab set %q: %w", l.Name(), err)
		}
		if child, ok := tab.View.(*TabSet); ok {
			item.SetChildLevel(child.level.Name())
			// The nested level starts hidden unless this tab is already showing.
			if err := child.level.SetVisible(item.IsVisible()); err != nil {
				return nil, err
			}
		}
		p := NewPanel(tab.Name, tab.View)
		if err := p.Attach(l, tab.Name); err != nil {
			return nil, fmt.Errorf("tab set %q: %w", l.Name(), err)
		}
		ts.panels = append(ts.panels, p)
		ts.Focus.Order = append(ts.Focus.Order, tab.Name)
	}
	return ts, nil
}

// Level returns the level backing the tab set.
func (t *TabSet) Level() *level.Level { return t.level }

// Panels implements Layout.
func (t *TabSet) Panels() []*Panel { return t.panels }

// FocusOrder implements Layout.
func (t *TabSet) FocusOrder() []string { return t.Focus.Order }

// Panel returns the panel for a tab name.
func (t *TabSet) Panel(name string) *Panel {
	for _, p := range t.panels {
		if p.ID == name {
			return p
		}
	}
	return nil
}

// Active returns the selected tab name.
func (t *TabSet) Active() string {
	return t.Focus.Current()
}

// Select activates the named tab.
func (t *TabSet) Select(name string) error {
	ok, err := t.Focus.SetFocus(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("tab set %q: no tab %q", t.level.Name(), name)
	}
	return nil
}

// Close detaches every panel, including nested tab sets.
func (t *TabSet) Close() {
	for _, p := range t.panels {
		p.Detach()
		if child, ok := p.View.(*TabSet); ok {
			child.Close()
		}
	}
}

// Init implements View
func (t *TabSet) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(t.panels))
	for _, p := range t.panels {
		if p.View != nil {
			cmds = append(cmds, p.View.Init())
		}
	}
	return tea.Batch(cmds...)
}

// Update implements View. Keys go to the visible panel only; everything else
// is broadcast so hidden views stay current.
func (t *TabSet) Update(msg tea.Msg) (View, tea.Cmd) {
	var cmds []tea.Cmd
	_, isKey := msg.(tea.KeyMsg)
	for _, p := range t.panels {
		if p.View == nil || (isKey && !p.Visible()) {
			continue
		}
		v, cmd := p.View.Update(msg)
		p.View = v
		cmds = append(cmds, cmd)
	}
	return t, tea.Batch(cmds...)
}

// SetSize implements Sizer. Nested views lose two rows to the tab bar.
func (t *TabSet) SetSize(width, height int) {
	for _, p := range t.panels {
		if s, ok := p.View.(Sizer); ok {
			s.SetSize(width, height-2)
		}
	}
}

// View implements View
func (t *TabSet) View() string {
	if !t.level.IsVisible() {
		return ""
	}
	active := t.Active()
	labels := make([]string, 0, len(t.tabs))
	for i, tab := range t.tabs {
		title := tab.Title
		if title == "" {
			title = tab.Name
		}
		if tab.Name == active {
			labels = append(labels, Styles.TabActive.Render(title))
		} else {
			labels = append(labels, Styles.TabInactive.Render(title))
		}
		if i < len(t.tabs)-1 {
			labels = append(labels, Styles.TabGap.Render("│"))
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, labels...)

	var body strings.Builder
	for _, p := range t.panels {
		if out := p.Render(); out != "" {
			body.WriteString(out)
		}
	}
	if body.Len() == 0 {
		return bar + "\n" + Styles.Empty.Render("  (nothing selected)")
	}
	return bar + "\n" + body.String()
}
