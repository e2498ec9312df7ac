package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"

	"gitlab.com/tinyland/lab/pulse-console/pkg/bus"
)

// DefaultEvents are the bus events the console forwards to its widgets.
var DefaultEvents = []string{
	bus.EventUpdate,
	bus.EventHostMetrics,
	bus.EventModuleRegistered,
	bus.EventShutdown,
}

// Sender delivers messages into a running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Bridge forwards bus events to a bubbletea program as BusMsg values.
type Bridge struct {
	subs []*bus.Subscription
}

// NewBridge subscribes to each event (DefaultEvents when none are given) and
// forwards deliveries to sender, stamped with clock's time.
func NewBridge(s bus.Subscriber, sender Sender, clock clockwork.Clock, events ...string) (*Bridge, error) {
	if len(events) == 0 {
		events = DefaultEvents
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	b := &Bridge{}
	for _, name := range events {
		sub, err := s.Subscribe(name, func(ev bus.Event) {
			sender.Send(BusMsg{Event: ev, Received: clock.Now()})
		})
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("bridge %q: %w", name, err)
		}
		b.subs = append(b.subs, sub)
	}
	return b, nil
}

// Close removes every subscription. It is safe to call more than once.
func (b *Bridge) Close() {
	for _, sub := range b.subs {
		sub.Unsubscribe()
	}
	b.subs = nil
}
