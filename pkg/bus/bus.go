// Package bus provides the console's publish/subscribe event bus. Widgets
// and modules that never reference each other directly rendezvous here:
// one side subscribes to a named event, the other publishes it.
//
// Topic routing is delegated to github.com/asaskevich/EventBus. Publish
// snapshots the subscriber list and hands it to the underlying bus, whose
// handler for the event appends it to that event's queue and returns. One
// goroutine per busy queue delivers in publish order, so a slow handler
// delays later deliveries of its own event but never the publisher.
// Subscribing or unsubscribing, from a handler or elsewhere, affects later
// publishes only.
package bus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/asaskevich/EventBus"
)

// Well-known event names.
const (
	// EventUpdate is broadcast by the update ticker on every tick. It carries
	// no payload.
	EventUpdate = "update"

	// EventHostMetrics carries a fresh hostinfo.Metrics snapshot.
	EventHostMetrics = "host:metrics"

	// EventModuleRegistered carries the name of a module just added to the
	// application context.
	EventModuleRegistered = "app:module:registered"

	// EventShutdown is published once when the application context stops.
	EventShutdown = "app:shutdown"
)

var (
	// ErrEmptyEvent is returned when subscribing to an empty event name.
	ErrEmptyEvent = errors.New("bus: empty event name")

	// ErrNilHandler is returned when subscribing a nil handler.
	ErrNilHandler = errors.New("bus: nil handler")
)

// Event is what handlers receive.
type Event struct {
	Name    string
	Payload interface{}
}

// Handler is called once per delivered event.
type Handler func(Event)

// Publisher is the publishing half of the bus. The update ticker depends
// only on this.
type Publisher interface {
	Publish(event string, payload interface{})
}

// Subscriber is the subscribing half of the bus.
type Subscriber interface {
	Subscribe(event string, h Handler) (*Subscription, error)
	SubscribeOnce(event string, h Handler) (*Subscription, error)
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used to report recovered handler panics.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// Bus is a named-event publish/subscribe hub. It is safe for concurrent use.
type Bus struct {
	eb     EventBus.Bus
	logger *slog.Logger

	mu     sync.Mutex
	nextID uint64
	subs   map[string][]*Subscription
	queues map[string]*queue

	flightMu sync.Mutex
	idle     *sync.Cond
	inflight int
}

// New returns an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		eb:     EventBus.New(),
		logger: slog.Default(),
		subs:   make(map[string][]*Subscription),
		queues: make(map[string]*queue),
	}
	b.idle = sync.NewCond(&b.flightMu)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for event. Handlers for the same event are called in
// subscription order.
func (b *Bus) Subscribe(event string, h Handler) (*Subscription, error) {
	return b.subscribe(event, h, false)
}

// SubscribeOnce registers h for the next delivery of event only.
func (b *Bus) SubscribeOnce(event string, h Handler) (*Subscription, error) {
	return b.subscribe(event, h, true)
}

func (b *Bus) subscribe(event string, h Handler, once bool) (*Subscription, error) {
	if event == "" {
		return nil, ErrEmptyEvent
	}
	if h == nil {
		return nil, ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.queues[event]; !ok {
		q := &queue{bus: b}
		if err := b.eb.Subscribe(event, q.push); err != nil {
			return nil, fmt.Errorf("bus: subscribe %q: %w", event, err)
		}
		b.queues[event] = q
	}

	b.nextID++
	s := &Subscription{
		bus:     b,
		id:      b.nextID,
		event:   event,
		handler: h,
		once:    once,
	}
	b.subs[event] = append(b.subs[event], s)
	return s, nil
}

// Publish delivers Event{event, payload} to every handler subscribed to
// event at the time of the call. Publishing an event nobody listens to is a
// no-op. Publish only enqueues and never waits for handlers, so it is safe
// to call from a handler, even for the event being handled.
func (b *Bus) Publish(event string, payload interface{}) {
	b.mu.Lock()
	list := b.subs[event]
	if len(list) == 0 {
		b.mu.Unlock()
		return
	}
	d := delivery{
		ev:   Event{Name: event, Payload: payload},
		subs: append([]*Subscription(nil), list...),
	}
	b.mu.Unlock()

	b.begin()
	b.eb.Publish(event, d)
}

// HasSubscribers reports whether any handler is registered for event.
func (b *Bus) HasSubscribers(event string) bool {
	return b.SubscriberCount(event) > 0
}

// SubscriberCount returns the number of handlers registered for event.
func (b *Bus) SubscriberCount(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[event])
}

// Wait blocks until every delivery started by a prior Publish has finished,
// including deliveries published by handlers in the meantime. It must not be
// called from a handler.
func (b *Bus) Wait() {
	b.flightMu.Lock()
	defer b.flightMu.Unlock()
	for b.inflight > 0 {
		b.idle.Wait()
	}
}

func (b *Bus) begin() {
	b.flightMu.Lock()
	b.inflight++
	b.flightMu.Unlock()
}

func (b *Bus) end() {
	b.flightMu.Lock()
	b.inflight--
	if b.inflight == 0 {
		b.idle.Broadcast()
	}
	b.flightMu.Unlock()
}

// deliver runs d's handlers in subscription order. A once-subscription
// fires for the first delivery that claims it and is then removed.
func (b *Bus) deliver(d delivery) {
	defer b.end()
	for _, s := range d.subs {
		if s.once && !s.claim() {
			continue
		}
		b.call(s, d.ev)
		if s.once {
			s.Unsubscribe()
		}
	}
}

// call runs one handler, recovering a panic so the remaining handlers still
// receive the event.
func (b *Bus) call(s *Subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event", ev.Name,
				"subscription", s.id,
				"panic", r,
			)
		}
	}()
	s.handler(ev)
}

// remove drops s from its event's list. The queue stays registered with the
// underlying bus; Publish skips it while the list is empty.
func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.subs[s.event]
	for i, cur := range list {
		if cur.id == s.id {
			b.subs[s.event] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(b.subs[s.event]) == 0 {
		delete(b.subs, s.event)
	}
}
