package level

import "sync/atomic"

// ChanHook forwards events to a channel without blocking the emitter.
// Events that do not fit are dropped and counted.
type ChanHook struct {
	Ch chan<- Event

	dropped atomic.Uint64
}

// OnEvent implements Hook.
func (h *ChanHook) OnEvent(ev Event) {
	select {
	case h.Ch <- ev:
	default:
		h.dropped.Add(1)
	}
}

// Dropped returns how many events did not fit in the channel.
func (h *ChanHook) Dropped() uint64 {
	return h.dropped.Load()
}
