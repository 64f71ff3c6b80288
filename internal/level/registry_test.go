package level

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestRegistry_GetLevelReturnsSameInstance(t *testing.T) {
	reg := NewRegistry()

	first, err := reg.GetLevel("home")
	require.NoError(t, err)
	second, err := reg.GetLevel("home")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, []string{"home"}, reg.Levels())
}

func TestRegistry_GetLevelEmptyName(t *testing.T) {
	reg := NewRegistry()

	l, err := reg.GetLevel("")

	assert.Nil(t, l)
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.True(t, strings.HasPrefix(err.Error(), "vislevel: get level"), err.Error())
	assert.Panics(t, func() { reg.MustLevel("") })
}

func TestRegistry_ConcurrentGetLevelCreatesOnce(t *testing.T) {
	reg := NewRegistry()
	const workers = 64
	got := make([]*Level, workers)

	var g errgroup.Group
	for i := range workers {
		g.Go(func() error {
			l, err := reg.GetLevel("shared")
			got[i] = l
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, l := range got {
		assert.Same(t, got[0], l)
	}
}

func TestRegistry_ConcurrentAddItemCreatesOnce(t *testing.T) {
	l := NewRegistry().MustLevel("root")
	const workers = 64
	got := make([]*Item, workers)

	var g errgroup.Group
	for i := range workers {
		g.Go(func() error {
			item, err := l.AddItem("tab")
			got[i] = item
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, item := range got {
		assert.Same(t, got[0], item)
	}
	assert.Equal(t, []string{"tab"}, l.Items())
}

func TestRegistry_ClearOrphansLevels(t *testing.T) {
	reg := NewRegistry()
	old := reg.MustLevel("home")
	_, err := old.AddItem("a")
	require.NoError(t, err)
	require.NoError(t, old.SelectItem("a"))

	reg.Clear()

	assert.Empty(t, reg.Levels())
	_, ok := reg.Lookup("home")
	assert.False(t, ok)

	fresh := reg.MustLevel("home")
	assert.NotSame(t, old, fresh)
	assert.Empty(t, fresh.Items())

	// The orphan keeps its own state.
	assert.Equal(t, []string{"a"}, old.Items())
	assert.True(t, old.VisibleItem().Is("a"))
	require.NoError(t, old.SelectItem("a"))
}

func TestRegistry_Snapshot(t *testing.T) {
	reg := NewRegistry()
	b := reg.MustLevel("b")
	reg.MustLevel("a")
	_, err := b.AddItem("x")
	require.NoError(t, err)
	require.NoError(t, b.SelectItem("x"))

	snap := reg.Snapshot()

	require.Len(t, snap, 2)
	assert.Equal(t, "a", snap[0].Name)
	assert.Equal(t, "b", snap[1].Name)
	assert.Equal(t, "x", snap[1].VisibleItem)
}

func TestDefault_IsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestRegistry_HooksReceiveEvents(t *testing.T) {
	var events []Event
	reg := NewRegistry(WithHooks(
		HookFunc(func(Event) { panic("boom") }),
		nil,
		HookFunc(func(ev Event) { events = append(events, ev) }),
	))

	root := reg.MustLevel("root")
	_, err := root.AddItem("a")
	require.NoError(t, err)
	require.NoError(t, root.SelectItem("a"))
	require.NoError(t, root.SetVisible(false))
	root.RemoveItem("missing")
	require.NoError(t, root.ClearItem())
	reg.Clear()

	kinds := make([]EventKind, 0, len(events))
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
		assert.False(t, ev.At.IsZero())
	}
	assert.Equal(t, []EventKind{
		EventLevelCreated,
		EventItemCreated,
		EventItemVisibility,
		EventLevelVisibility,
		EventItemVisibility,
		EventItemsCleared,
		EventRegistryCleared,
	}, kinds)
	assert.True(t, events[2].Visible)
	assert.False(t, events[4].Visible)
}

func TestDebug_LogsStructuredLines(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	reg := NewRegistry(WithLogger(logger))

	SetDebug(true)
	t.Cleanup(func() { SetDebug(false) })
	require.True(t, Debug())

	root := reg.MustLevel("root")
	_, err := root.AddItem("a")
	require.NoError(t, err)
	require.NoError(t, root.SelectItem("a"))

	out := buf.String()
	assert.Contains(t, out, "msg=vislevel event=level_created level_name=root")
	assert.Contains(t, out, "event=item_created level_name=root item=a")
	assert.Contains(t, out, "event=item_visibility level_name=root item=a visible=true")
}

func TestDebug_OffIsSilent(t *testing.T) {
	var buf bytes.Buffer
	reg := NewRegistry(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	SetDebug(false)

	reg.MustLevel("root")

	assert.Empty(t, buf.String())
}

func TestError_Format(t *testing.T) {
	err := NewError("select item", "root", "a", ErrIllegalState, "level is not visible")

	assert.Equal(t, `vislevel: select item level="root" item="a": illegal state: level is not visible`, err.Error())
	assert.True(t, errors.Is(err, ErrIllegalState))
	assert.False(t, errors.Is(err, ErrInvalidArgument))
}
