package bus

import "sync/atomic"

// Subscription is the handle returned by Subscribe. It is the only way to
// remove a handler, since function values cannot be compared.
type Subscription struct {
	bus     *Bus
	id      uint64
	event   string
	handler Handler
	once    bool

	fired   atomic.Bool
	removed atomic.Bool
}

// Event returns the event name this subscription listens to.
func (s *Subscription) Event() string {
	return s.event
}

// Unsubscribe removes the handler. Calling it more than once is harmless.
func (s *Subscription) Unsubscribe() {
	if s == nil || !s.removed.CompareAndSwap(false, true) {
		return
	}
	s.bus.remove(s)
}

// claim marks a once-subscription as used. Only the first caller wins.
func (s *Subscription) claim() bool {
	return s.fired.CompareAndSwap(false, true)
}
