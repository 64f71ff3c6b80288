package typedlevel

import (
	"errors"
	"runtime"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"vislevel/internal/level"
)

type levelRecorder struct {
	got []bool
}

func (r *levelRecorder) OnLevelVisibilityChanged(visible bool, _ *Level) {
	r.got = append(r.got, visible)
}

type itemRecorder struct {
	journal *[]string
}

func (r *itemRecorder) OnItemVisibilityChanged(visible bool, item *Item) {
	state := "hide"
	if visible {
		state = "show"
	}
	*r.journal = append(*r.journal, state+" "+string(item.Key()))
}

func tabs(items ...ItemKey) Factory {
	return func() (Blueprint, error) {
		return Blueprint{Items: items}, nil
	}
}

func TestRegistry_GetBuildsOnce(t *testing.T) {
	calls := 0
	reg := NewRegistry()
	require.NoError(t, reg.Define("tabs", func() (Blueprint, error) {
		calls++
		return Blueprint{Items: []ItemKey{"a", "b"}}, nil
	}))

	first, err := reg.Get("tabs")
	require.NoError(t, err)
	second, err := reg.Get("tabs")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, Kind("tabs"), first.Kind())
	assert.Equal(t, []ItemKey{"a", "b"}, first.Declared())
	assert.True(t, first.IsVisible())
	assert.Nil(t, first.CurrentItem())
}

func TestRegistry_ConstructionFailures(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Define("failing", func() (Blueprint, error) {
		return Blueprint{}, errors.New("no resources")
	}))
	require.NoError(t, reg.Define("panicking", func() (Blueprint, error) {
		panic("bad factory")
	}))
	require.NoError(t, reg.Define("empty", tabs()))

	for _, kind := range []Kind{"undefined", "failing", "panicking", "empty"} {
		t.Run(string(kind), func(t *testing.T) {
			l, err := reg.Get(kind)
			assert.Nil(t, l)
			assert.ErrorIs(t, err, level.ErrConstruction)
		})
	}

	_, err := reg.Get("failing")
	assert.Contains(t, err.Error(), "no resources")
	_, err = reg.Get("panicking")
	assert.Contains(t, err.Error(), "bad factory")
}

func TestRegistry_InvalidArguments(t *testing.T) {
	reg := NewRegistry()

	assert.ErrorIs(t, reg.Define("", tabs("a")), level.ErrInvalidArgument)
	assert.ErrorIs(t, reg.Define("x", nil), level.ErrInvalidArgument)
	require.NoError(t, reg.Define("x", tabs("a")))
	assert.ErrorIs(t, reg.Define("x", tabs("b")), level.ErrInvalidArgument)

	_, err := reg.Get("")
	assert.ErrorIs(t, err, level.ErrInvalidArgument)

	require.NoError(t, reg.Define("dup", tabs("a", "a")))
	_, err = reg.Get("dup")
	assert.ErrorIs(t, err, level.ErrInvalidArgument)

	require.NoError(t, reg.Define("blank", tabs("a", "")))
	_, err = reg.Get("blank")
	assert.ErrorIs(t, err, level.ErrInvalidArgument)

	assert.Equal(t, []Kind{"blank", "dup", "x"}, reg.Kinds())
}

func TestLevel_ItemCreatedLazilyWithHookOnce(t *testing.T) {
	var created []ItemKey
	reg := NewRegistry()
	require.NoError(t, reg.Define("tabs", func() (Blueprint, error) {
		return Blueprint{
			Items:        []ItemKey{"a", "b"},
			OnItemCreate: func(item *Item) { created = append(created, item.Key()) },
		}, nil
	}))
	l, err := reg.Get("tabs")
	require.NoError(t, err)
	assert.Empty(t, created)

	a1, err := l.Item("a")
	require.NoError(t, err)
	a2, err := l.Item("a")
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.Same(t, l, a1.Level())
	assert.Equal(t, []ItemKey{"a"}, created)

	_, err = l.Item("zzz")
	assert.ErrorIs(t, err, level.ErrInvalidArgument)
}

func TestLevel_SelectItemMutualExclusion(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Define("tabs", tabs("a", "b")))
	l, err := reg.Get("tabs")
	require.NoError(t, err)

	var journal []string
	rec := &itemRecorder{journal: &journal}
	for _, key := range []ItemKey{"a", "b"} {
		item, err := l.Item(key)
		require.NoError(t, err)
		item.AddCallback(rec)
	}

	require.NoError(t, l.SelectItem("a"))
	require.NoError(t, l.SelectItem("a"))
	require.NoError(t, l.SelectItem("b"))

	assert.Equal(t, []string{"show a", "hide a", "show b"}, journal)
	assert.Equal(t, ItemKey("b"), l.CurrentItem().Key())
	a, _ := l.Item("a")
	b, _ := l.Item("b")
	assert.False(t, a.IsVisible())
	assert.True(t, b.IsVisible())

	assert.ErrorIs(t, l.SelectItem("nope"), level.ErrInvalidArgument)
	runtime.KeepAlive(rec)
}

type itemFunc struct {
	fn func(visible bool, item *Item)
}

func (f *itemFunc) OnItemVisibilityChanged(visible bool, item *Item) { f.fn(visible, item) }

func TestLevel_CallbackSelectingDuringHideWins(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Define("tabs", tabs("x", "a", "b")))
	l, err := reg.Get("tabs")
	require.NoError(t, err)
	require.NoError(t, l.SelectItem("x"))

	var journal []string
	rec := &itemRecorder{journal: &journal}
	for _, key := range []ItemKey{"a", "b"} {
		item, err := l.Item(key)
		require.NoError(t, err)
		item.AddCallback(rec)
	}
	x, err := l.Item("x")
	require.NoError(t, err)
	redirect := &itemFunc{fn: func(visible bool, item *Item) {
		journal = append(journal, "x "+strconv.FormatBool(visible))
		if !visible {
			_ = item.Level().SelectItem("b")
		}
	}}
	x.AddCallback(redirect)

	require.NoError(t, l.SelectItem("a"))

	assert.Equal(t, []string{"x false", "show b"}, journal)
	assert.Equal(t, ItemKey("b"), l.CurrentItem().Key())
	a, _ := l.Item("a")
	assert.False(t, a.IsVisible())
	runtime.KeepAlive(rec)
	runtime.KeepAlive(redirect)
}

func TestLevel_SelectWhileHiddenFails(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Define("tabs", tabs("a")))
	l, err := reg.Get("tabs")
	require.NoError(t, err)
	require.NoError(t, l.SetVisible(false))

	err = l.SelectItem("a")

	var lerr *level.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "select item", lerr.Op)
	assert.ErrorIs(t, err, level.ErrIllegalState)
	assert.Nil(t, l.CurrentItem())
}

func TestLevel_SetVisibleNotifiesLevelThenItem(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Define("tabs", tabs("a")))
	l, err := reg.Get("tabs")
	require.NoError(t, err)

	var journal []string
	lrec := &levelRecorder{}
	irec := &itemRecorder{journal: &journal}
	l.AddCallback(lrec)
	a, err := l.Item("a")
	require.NoError(t, err)
	a.AddCallback(irec)
	require.NoError(t, l.SelectItem("a"))

	require.NoError(t, l.SetVisible(false))
	require.NoError(t, l.SetVisible(false))
	require.NoError(t, l.SetVisible(true))

	assert.Equal(t, []bool{false, true}, lrec.got)
	assert.Equal(t, []string{"show a", "hide a", "show a"}, journal)

	l.RemoveCallback(lrec)
	require.NoError(t, l.SetVisible(false))
	assert.Equal(t, []bool{false, true}, lrec.got)
	runtime.KeepAlive(irec)
}

func TestLevel_InvisibleAndNotifyCurrentItem(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Define("tabs", tabs("a")))
	l, err := reg.Get("tabs")
	require.NoError(t, err)

	// Nothing selected: both are no-ops.
	require.NoError(t, l.InvisibleCurrentItem())
	require.NoError(t, l.NotifyCurrentItem())

	var journal []string
	rec := &itemRecorder{journal: &journal}
	a, err := l.Item("a")
	require.NoError(t, err)
	a.AddCallback(rec)
	require.NoError(t, l.SelectItem("a"))

	require.NoError(t, l.NotifyCurrentItem())
	require.NoError(t, l.InvisibleCurrentItem())

	assert.Equal(t, []string{"show a", "show a", "hide a"}, journal)
	assert.Nil(t, l.CurrentItem())

	a.RemoveCallback(rec)
	require.NoError(t, l.SelectItem("a"))
	assert.Len(t, journal, 3)
}

func TestLevel_DroppedCallbackIsNotCalled(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Define("tabs", tabs("a")))
	l, err := reg.Get("tabs")
	require.NoError(t, err)

	calls := 0
	func() {
		l.AddCallback(&countingLevel{calls: &calls})
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		return l.callbacks.Len() == 0
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, l.SetVisible(false))
	assert.Zero(t, calls)
}

type countingLevel struct {
	calls *int
}

func (c *countingLevel) OnLevelVisibilityChanged(bool, *Level) { *c.calls++ }

func TestRegistry_ClearRebuilds(t *testing.T) {
	var events []level.Event
	reg := NewRegistry(WithHooks(level.HookFunc(func(ev level.Event) { events = append(events, ev) })))
	require.NoError(t, reg.Define("tabs", tabs("a", "b")))
	old, err := reg.Get("tabs")
	require.NoError(t, err)
	require.NoError(t, old.SelectItem("a"))

	reg.Clear()

	fresh, err := reg.Get("tabs")
	require.NoError(t, err)
	assert.NotSame(t, old, fresh)
	assert.Nil(t, fresh.CurrentItem())
	assert.Equal(t, ItemKey("a"), old.CurrentItem().Key())

	kinds := make([]level.EventKind, 0, len(events))
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []level.EventKind{
		level.EventLevelCreated,
		level.EventItemCreated,
		level.EventItemVisibility,
		level.EventRegistryCleared,
		level.EventLevelCreated,
	}, kinds)
	assert.Equal(t, "a,b", events[0].Attrs["items"])
}

func TestRegistry_ConcurrentGet(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Define("tabs", tabs("a", "b", "c")))
	const workers = 32
	got := make([]*Item, workers)

	var g errgroup.Group
	for i := range workers {
		g.Go(func() error {
			l, err := reg.Get("tabs")
			if err != nil {
				return err
			}
			item, err := l.Item("b")
			got[i] = item
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, item := range got {
		assert.Same(t, got[0], item)
	}
}

func TestRegistry_FactoryMayGetOtherKinds(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Define("child", tabs("leaf")))
	var child *Level
	require.NoError(t, reg.Define("parent", func() (Blueprint, error) {
		var err error
		child, err = reg.Get("child")
		if err != nil {
			return Blueprint{}, err
		}
		return Blueprint{Items: []ItemKey{"nested"}}, nil
	}))

	done := make(chan error, 1)
	go func() {
		_, err := reg.Get("parent")
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Get blocked while a factory built another kind")
	}
	again, err := reg.Get("child")
	require.NoError(t, err)
	assert.Same(t, child, again)
}

func TestRegistry_ConcurrentGetBuildsOnce(t *testing.T) {
	reg := NewRegistry()
	var calls atomic.Int32
	require.NoError(t, reg.Define("tabs", func() (Blueprint, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return Blueprint{Items: []ItemKey{"a"}}, nil
	}))

	var g errgroup.Group
	levels := make([]*Level, 16)
	for i := range levels {
		g.Go(func() error {
			l, err := reg.Get("tabs")
			levels[i] = l
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), calls.Load())
	for _, l := range levels {
		assert.Same(t, levels[0], l)
	}
}

func TestDefault_IsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}
