package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"vislevel/internal/level"
)

// LevelSource provides point-in-time level state.
type LevelSource interface {
	Snapshot() []level.LevelState
}

// TreeView renders the registry as an ASCII tree: root levels, their items
// and, under each item, its child level.
type TreeView struct {
	source   LevelSource
	viewport viewport.Model
	visible  bool
}

var (
	_ View             = (*TreeView)(nil)
	_ level.Renderable = (*TreeView)(nil)
)

// NewTreeView creates a tree view over source.
func NewTreeView(source LevelSource) *TreeView {
	vp := viewport.New(60, 20)
	vp.Style = Styles.Box
	return &TreeView{source: source, viewport: vp}
}

// Init implements View
func (v *TreeView) Init() tea.Cmd { return nil }

// Update implements View
func (v *TreeView) Update(msg tea.Msg) (View, tea.Cmd) {
	if !v.visible {
		return v, nil
	}
	switch msg := msg.(type) {
	case RegistryChangedMsg:
		v.refreshContent()
		return v, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			v.viewport.LineDown(1)
			return v, nil
		case "k", "up":
			v.viewport.LineUp(1)
			return v, nil
		}
	}
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// View implements View
func (v *TreeView) View() string {
	if !v.visible {
		return ""
	}
	return v.viewport.View()
}

// SetSize implements Sizer
func (v *TreeView) SetSize(width, height int) {
	v.viewport.Width = width
	v.viewport.Height = height
	v.refreshContent()
}

// SetVisible implements level.Renderable
func (v *TreeView) SetVisible(visible bool) {
	v.visible = visible
	if visible {
		v.refreshContent()
	}
}

func (v *TreeView) refreshContent() {
	v.viewport.SetContent(RenderTree(v.source.Snapshot()))
}

// RenderTree draws levels as a tree. Levels that are no item's child are
// roots; a child level reached twice is drawn once.
func RenderTree(states []level.LevelState) string {
	if len(states) == 0 {
		return Styles.Empty.Render("  (no levels)")
	}
	byName := make(map[string]level.LevelState, len(states))
	isChild := make(map[string]bool)
	for _, st := range states {
		byName[st.Name] = st
		for _, it := range st.Items {
			if it.ChildLevel != "" {
				isChild[it.ChildLevel] = true
			}
		}
	}

	var lines []string
	seen := make(map[string]bool)
	for _, st := range states {
		if isChild[st.Name] {
			continue
		}
		lines = append(lines, renderLevel(st, byName, "", seen)...)
	}
	// Levels only reachable through a cycle have no root; draw them too.
	for _, st := range states {
		if !seen[st.Name] {
			lines = append(lines, renderLevel(st, byName, "", seen)...)
		}
	}
	return strings.Join(lines, "\n")
}

func renderLevel(st level.LevelState, byName map[string]level.LevelState, prefix string, seen map[string]bool) []string {
	seen[st.Name] = true
	header := Styles.Title.Render(st.Name)
	if !st.Visible {
		header += " " + Styles.Muted.Render("(hidden)")
	}
	lines := []string{prefix + header}

	for i, it := range st.Items {
		last := i == len(st.Items)-1
		connector := "├─"
		childPrefix := prefix + "│  "
		if last {
			connector = "└─"
			childPrefix = prefix + "   "
		}
		marker := Styles.Muted.Render("○")
		name := Styles.Normal.Render(it.Name)
		if it.Visible {
			marker = Styles.Visible.Render("●")
			name = Styles.Selected.Render(it.Name)
		} else if it.Name == st.VisibleItem {
			marker = Styles.Muted.Render("◐")
		}
		lines = append(lines, prefix+connector+" "+marker+" "+name)

		if it.ChildLevel == "" {
			continue
		}
		child, ok := byName[it.ChildLevel]
		switch {
		case !ok:
			lines = append(lines, childPrefix+"└─ "+Styles.Empty.Render(it.ChildLevel+" (not created)"))
		case seen[child.Name]:
			lines = append(lines, childPrefix+"└─ "+Styles.Muted.Render(child.Name+" ↺"))
		default:
			sub := renderLevel(child, byName, childPrefix+"   ", seen)
			sub[0] = childPrefix + "└─ " + strings.TrimPrefix(sub[0], childPrefix+"   ")
			lines = append(lines, sub...)
		}
	}
	return lines
}
