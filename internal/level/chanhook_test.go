package level

import "testing"

func TestChanHook_Forwards(t *testing.T) {
	ch := make(chan Event, 4)
	reg := NewRegistry(WithHooks(&ChanHook{Ch: ch}))

	reg.MustLevel("root")

	got := <-ch
	if got.Kind != EventLevelCreated || got.Level != "root" {
		t.Errorf("expected level_created for root, got %s %q", got.Kind, got.Level)
	}
	if got.At.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestChanHook_DropsWhenFull(t *testing.T) {
	ch := make(chan Event, 1)
	hook := &ChanHook{Ch: ch}

	hook.OnEvent(Event{Kind: EventLevelCreated, Level: "a"})
	hook.OnEvent(Event{Kind: EventLevelCreated, Level: "b"})
	hook.OnEvent(Event{Kind: EventLevelCreated, Level: "c"})

	if len(ch) != 1 {
		t.Fatalf("expected 1 buffered event, got %d", len(ch))
	}
	if got := <-ch; got.Level != "a" {
		t.Errorf("expected first event kept, got %q", got.Level)
	}
	if hook.Dropped() != 2 {
		t.Errorf("expected 2 dropped, got %d", hook.Dropped())
	}
}
