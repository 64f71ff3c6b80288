package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vislevel/internal/level"
)

// stubView records what it is told and renders its name.
type stubView struct {
	name    string
	visible []bool
	msgs    int
}

func (v *stubView) Init() tea.Cmd { return nil }
func (v *stubView) Update(tea.Msg) (View, tea.Cmd) { v.msgs++; return v, nil }
func (v *stubView) View() string { return "<" + v.name + ">" }
func (v *stubView) SetVisible(visible bool) { v.visible = append(v.visible, visible) }

func TestPanel_FollowsBoundItem(t *testing.T) {
	l := level.NewRegistry().MustLevel("root")
	_, err := l.AddItem("a")
	require.NoError(t, err)
	_, err = l.AddItem("b")
	require.NoError(t, err)
	view := &stubView{name: "a"}
	p := NewPanel("a", view)

	require.NoError(t, p.Attach(l, "a"))
	assert.False(t, p.Visible())
	assert.Empty(t, p.Render())

	require.NoError(t, l.SelectItem("a"))
	assert.True(t, p.Visible())
	assert.Equal(t, "<a>", p.Render())

	require.NoError(t, l.SelectItem("b"))
	assert.False(t, p.Visible())

	p.Detach()
	require.NoError(t, l.SelectItem("a"))
	assert.False(t, p.Visible())
	assert.Equal(t, []bool{false, true, false}, view.visible)
}

func TestPanel_AttachSyncsCurrentState(t *testing.T) {
	l := level.NewRegistry().MustLevel("root")
	_, err := l.AddItem("a")
	require.NoError(t, err)
	require.NoError(t, l.SelectItem("a"))

	p := NewPanel("a", &stubView{name: "a"})
	require.NoError(t, p.Attach(l, "a"))

	assert.True(t, p.Visible())
	assert.Error(t, p.Attach(l, ""))
}

func newNestedTabs(t *testing.T) (*level.Registry, *TabSet, *TabSet, map[string]*stubView) {
	t.Helper()
	reg := level.NewRegistry()
	views := map[string]*stubView{}
	for _, n := range []string{"one", "two", "x", "y"} {
		views[n] = &stubView{name: n}
	}

	inner, err := NewTabSet(reg.MustLevel("inner"),
		Tab{Name: "x", View: views["x"]},
		Tab{Name: "y", View: views["y"]},
	)
	require.NoError(t, err)
	require.NoError(t, inner.Select("x"))

	outer, err := NewTabSet(reg.MustLevel("outer"),
		Tab{Name: "one", Title: "One", View: views["one"]},
		Tab{Name: "two", Title: "Two", View: views["two"]},
		Tab{Name: "nested", Title: "Nested", View: inner},
	)
	require.NoError(t, err)
	return reg, outer, inner, views
}

func TestTabSet_NestedLevelStartsHidden(t *testing.T) {
	_, outer, inner, views := newNestedTabs(t)

	assert.False(t, inner.Level().IsVisible())
	assert.False(t, outer.Panel("nested").Visible())
	assert.False(t, inner.Panel("x").Visible())
	assert.Equal(t, []bool{false, true, false}, views["x"].visible)

	item, ok := outer.Level().GetItem("nested")
	require.True(t, ok)
	assert.Equal(t, "inner", item.ChildLevel())
	assert.Equal(t, []string{"one", "two", "nested"}, outer.FocusOrder())
}

func TestTabSet_SelectCascadesIntoNestedTabs(t *testing.T) {
	_, outer, inner, _ := newNestedTabs(t)

	require.NoError(t, outer.Select("nested"))
	assert.True(t, inner.Level().IsVisible())
	assert.True(t, inner.Panel("x").Visible())
	assert.Contains(t, outer.View(), "<x>")

	require.NoError(t, inner.Select("y"))
	assert.Contains(t, outer.View(), "<y>")
	assert.NotContains(t, outer.View(), "<x>")

	require.NoError(t, outer.Select("one"))
	assert.False(t, inner.Level().IsVisible())
	assert.False(t, inner.Panel("y").Visible())
	assert.Equal(t, []*Panel{outer.Panel("one")}, VisiblePanels(outer))

	// Nested selection is refused while its parent tab is hidden.
	assert.ErrorIs(t, inner.Select("x"), level.ErrIllegalState)
	assert.Error(t, outer.Select("missing"))
}

func TestTabSet_ViewRendersBarAndActivePanel(t *testing.T) {
	_, outer, _, _ := newNestedTabs(t)

	out := outer.View()
	assert.Contains(t, out, "One")
	assert.Contains(t, out, "(nothing selected)")

	require.NoError(t, outer.Select("two"))
	out = outer.View()
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Nested")
	assert.Equal(t, "<two>", lines[1])

	require.NoError(t, outer.Level().SetVisible(false))
	assert.Empty(t, outer.View())
}

func TestTabSet_KeysGoToVisiblePanelOnly(t *testing.T) {
	_, outer, _, views := newNestedTabs(t)
	require.NoError(t, outer.Select("one"))

	outer.Update(keyMsg("j"))
	assert.Equal(t, 1, views["one"].msgs)
	assert.Equal(t, 0, views["two"].msgs)

	outer.Update(RegistryChangedMsg{})
	assert.Equal(t, 2, views["one"].msgs)
	assert.Equal(t, 1, views["two"].msgs)
}

func TestFocusManager_Rotates(t *testing.T) {
	_, outer, _, _ := newNestedTabs(t)
	var changes []string
	outer.Focus.OnChange = func(from, to string) { changes = append(changes, from+">"+to) }

	got, err := outer.Focus.Next()
	require.NoError(t, err)
	assert.Equal(t, "one", got)

	got, err = outer.Focus.Prev()
	require.NoError(t, err)
	assert.Equal(t, "nested", got)

	got, err = outer.Focus.Next()
	require.NoError(t, err)
	assert.Equal(t, "one", got)

	ok, err := outer.Focus.SetFocus("zzz")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []string{">one", "one>nested", "nested>one"}, changes)
	assert.Equal(t, "one", outer.Active())
}

func TestFocusManager_HiddenLevelFails(t *testing.T) {
	_, outer, _, _ := newNestedTabs(t)
	require.NoError(t, outer.Level().SetVisible(false))

	got, err := outer.Focus.Next()

	assert.ErrorIs(t, err, level.ErrIllegalState)
	assert.Empty(t, got)
}

func TestNewTabSet_RejectsEmpty(t *testing.T) {
	_, err := NewTabSet(level.NewRegistry().MustLevel("x"))
	assert.Error(t, err)
}
