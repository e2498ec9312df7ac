package bus

import "sync"

// delivery is one published event together with the handlers that were
// subscribed when it was published.
type delivery struct {
	ev   Event
	subs []*Subscription
}

// queue serializes the deliveries of one event name. push never blocks on
// handlers; a drain goroutine is started when the queue becomes non-empty
// and exits once it runs dry.
type queue struct {
	bus *Bus

	mu       sync.Mutex
	pending  []delivery
	draining bool
}

func (q *queue) push(d delivery) {
	q.mu.Lock()
	q.pending = append(q.pending, d)
	if q.draining {
		q.mu.Unlock()
		return
	}
	q.draining = true
	q.mu.Unlock()

	go q.drain()
}

func (q *queue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.pending = nil
			q.draining = false
			q.mu.Unlock()
			return
		}
		d := q.pending[0]
		q.pending[0] = delivery{}
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.bus.deliver(d)
	}
}
