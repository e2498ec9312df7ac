package bus

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// quietBus returns a bus whose panic logging is discarded.
func quietBus() *Bus {
	return New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// recorder collects delivered events in order.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recorder) get(i int) Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[i]
}

func TestSubscribeAndPublish(t *testing.T) {
	b := quietBus()
	var rec recorder

	if _, err := b.Subscribe("greet", rec.handle); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	b.Publish("greet", "hello")
	b.Wait()

	if rec.len() != 1 {
		t.Fatalf("got %d deliveries, want 1", rec.len())
	}
	ev := rec.get(0)
	if ev.Name != "greet" {
		t.Errorf("Name = %q, want %q", ev.Name, "greet")
	}
	if ev.Payload != "hello" {
		t.Errorf("Payload = %v, want %q", ev.Payload, "hello")
	}
}

func TestPublishWithoutPayload(t *testing.T) {
	b := quietBus()
	var rec recorder
	_, _ = b.Subscribe(EventUpdate, rec.handle)

	b.Publish(EventUpdate, nil)
	b.Wait()

	if rec.len() != 1 {
		t.Fatalf("got %d deliveries, want 1", rec.len())
	}
	if rec.get(0).Payload != nil {
		t.Errorf("Payload = %v, want nil", rec.get(0).Payload)
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	b := quietBus()
	// Should not panic or block.
	b.Publish("nobody-home", 42)
	b.Wait()

	if b.HasSubscribers("nobody-home") {
		t.Error("HasSubscribers should be false")
	}
}

func TestPublishDoesNotReachOtherEvents(t *testing.T) {
	b := quietBus()
	var rec recorder
	_, _ = b.Subscribe("a", rec.handle)

	b.Publish("b", nil)
	b.Wait()

	if rec.len() != 0 {
		t.Errorf("handler for %q received %d events published on %q", "a", rec.len(), "b")
	}
}

func TestHandlersCalledInSubscriptionOrder(t *testing.T) {
	b := quietBus()

	var mu sync.Mutex
	var order []int
	for i := 1; i <= 3; i++ {
		n := i
		_, err := b.Subscribe("ordered", func(Event) {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
		})
		if err != nil {
			t.Fatalf("Subscribe %d failed: %v", n, err)
		}
	}

	b.Publish("ordered", nil)
	b.Wait()

	want := []int{1, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %d, want %d", i, order[i], want[i])
		}
	}
}

func TestPublishNeverCoalesces(t *testing.T) {
	b := quietBus()
	var rec recorder
	_, _ = b.Subscribe("burst", rec.handle)

	const n = 200
	for i := 0; i < n; i++ {
		b.Publish("burst", i)
	}
	b.Wait()

	if rec.len() != n {
		t.Fatalf("got %d deliveries, want %d", rec.len(), n)
	}
	for i := 0; i < n; i++ {
		if got := rec.get(i).Payload.(int); got != i {
			t.Fatalf("delivery %d carried payload %d; publish order not preserved", i, got)
		}
	}
}

func TestUnsubscribe(t *testing.T) {
	b := quietBus()
	var rec recorder
	sub, _ := b.Subscribe("x", rec.handle)

	b.Publish("x", nil)
	b.Wait()
	sub.Unsubscribe()
	b.Publish("x", nil)
	b.Wait()

	if rec.len() != 1 {
		t.Errorf("got %d deliveries, want 1", rec.len())
	}
	if b.HasSubscribers("x") {
		t.Error("HasSubscribers should be false after Unsubscribe")
	}
}

func TestUnsubscribeIdempotent(t *testing.T) {
	b := quietBus()
	var rec recorder
	sub1, _ := b.Subscribe("x", rec.handle)
	_, _ = b.Subscribe("x", rec.handle)

	sub1.Unsubscribe()
	sub1.Unsubscribe()

	if got := b.SubscriberCount("x"); got != 1 {
		t.Errorf("SubscriberCount = %d, want 1", got)
	}
}

func TestNilSubscriptionUnsubscribe(t *testing.T) {
	var s *Subscription
	// Should not panic.
	s.Unsubscribe()
}

func TestSubscribeOnce(t *testing.T) {
	b := quietBus()
	var rec recorder
	if _, err := b.SubscribeOnce("once", rec.handle); err != nil {
		t.Fatalf("SubscribeOnce failed: %v", err)
	}

	b.Publish("once", 1)
	b.Publish("once", 2)
	b.Wait()

	if rec.len() != 1 {
		t.Fatalf("got %d deliveries, want 1", rec.len())
	}
	if rec.get(0).Payload != 1 {
		t.Errorf("Payload = %v, want 1", rec.get(0).Payload)
	}
	if b.HasSubscribers("once") {
		t.Error("once-subscription should be removed after delivery")
	}
}

func TestSubscribeErrors(t *testing.T) {
	b := quietBus()

	tests := []struct {
		name    string
		event   string
		handler Handler
		want    error
	}{
		{name: "empty event", event: "", handler: func(Event) {}, want: ErrEmptyEvent},
		{name: "nil handler", event: "x", handler: nil, want: ErrNilHandler},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := b.Subscribe(tt.event, tt.handler)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if sub != nil {
				t.Error("subscription should be nil on error")
			}
		})
	}
}

func TestPanickingHandlerDoesNotStopDelivery(t *testing.T) {
	b := quietBus()
	var rec recorder

	_, _ = b.Subscribe("boom", func(Event) { panic("widget exploded") })
	_, _ = b.Subscribe("boom", rec.handle)

	b.Publish("boom", nil)
	b.Publish("boom", nil)
	b.Wait()

	if rec.len() != 2 {
		t.Errorf("got %d deliveries after panicking handler, want 2", rec.len())
	}
}

func TestSubscribeFromHandlerAffectsNextPublish(t *testing.T) {
	b := quietBus()
	var late recorder
	var once sync.Once

	_, _ = b.Subscribe("chain", func(Event) {
		once.Do(func() {
			if _, err := b.Subscribe("chain", late.handle); err != nil {
				t.Errorf("nested Subscribe failed: %v", err)
			}
		})
	})

	b.Publish("chain", 1)
	b.Wait()
	if late.len() != 0 {
		t.Fatalf("late subscriber received %d events from the publish that created it", late.len())
	}

	b.Publish("chain", 2)
	b.Wait()
	if late.len() != 1 {
		t.Fatalf("late subscriber got %d deliveries, want 1", late.len())
	}
}

func TestUnsubscribeFromHandler(t *testing.T) {
	b := quietBus()
	var calls int
	var mu sync.Mutex

	var sub *Subscription
	sub, _ = b.Subscribe("self", func(Event) {
		mu.Lock()
		calls++
		mu.Unlock()
		sub.Unsubscribe()
	})

	b.Publish("self", nil)
	b.Wait()
	b.Publish("self", nil)
	b.Wait()

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestConcurrentPublish(t *testing.T) {
	b := quietBus()
	var rec recorder
	_, _ = b.Subscribe("c", rec.handle)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				b.Publish("c", j)
			}
		}()
	}
	wg.Wait()
	b.Wait()

	if rec.len() != 200 {
		t.Errorf("got %d deliveries, want 200", rec.len())
	}
}

func TestSubscriberCount(t *testing.T) {
	b := quietBus()
	if b.SubscriberCount("n") != 0 {
		t.Fatal("new bus should have no subscribers")
	}
	_, _ = b.Subscribe("n", func(Event) {})
	_, _ = b.Subscribe("n", func(Event) {})
	if got := b.SubscriberCount("n"); got != 2 {
		t.Errorf("SubscriberCount = %d, want 2", got)
	}
}

func TestSubscriptionEvent(t *testing.T) {
	b := quietBus()
	sub, _ := b.Subscribe(EventHostMetrics, func(Event) {})
	if sub.Event() != EventHostMetrics {
		t.Errorf("Event() = %q, want %q", sub.Event(), EventHostMetrics)
	}
}

func TestDeliveryUsesSubscribersAtPublishTime(t *testing.T) {
	for i := 0; i < 200; i++ {
		b := quietBus()
		var first, second, late recorder

		_, _ = b.Subscribe("x", first.handle)
		leaving, _ := b.Subscribe("x", second.handle)

		b.Publish("x", i)
		_, _ = b.Subscribe("x", late.handle)
		leaving.Unsubscribe()
		b.Wait()

		if first.len() != 1 || second.len() != 1 {
			t.Fatalf("run %d: handlers subscribed at publish got %d/%d deliveries, want 1/1", i, first.len(), second.len())
		}
		if late.len() != 0 {
			t.Fatalf("run %d: handler subscribed after publish got %d deliveries", i, late.len())
		}
	}
}

func TestPublishDoesNotWaitForSlowHandler(t *testing.T) {
	b := quietBus()
	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	var rec recorder

	_, _ = b.Subscribe(EventUpdate, func(ev Event) {
		entered <- struct{}{}
		<-release
		rec.handle(ev)
	})

	b.Publish(EventUpdate, 1)
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never ran")
	}

	published := make(chan struct{})
	go func() {
		b.Publish(EventUpdate, 2)
		close(published)
	}()
	select {
	case <-published:
	case <-time.After(2 * time.Second):
		close(release)
		t.Fatal("second Publish blocked behind a running handler")
	}

	close(release)
	b.Wait()
	if rec.len() != 2 {
		t.Fatalf("got %d deliveries, want 2", rec.len())
	}
	if rec.get(0).Payload != 1 || rec.get(1).Payload != 2 {
		t.Errorf("deliveries out of order: %v, %v", rec.get(0).Payload, rec.get(1).Payload)
	}
}

func TestHandlerMayPublishItsOwnEvent(t *testing.T) {
	b := quietBus()
	var rec recorder

	_, _ = b.Subscribe("again", func(ev Event) {
		rec.handle(ev)
		if n := ev.Payload.(int); n < 3 {
			b.Publish("again", n+1)
		}
	})

	b.Publish("again", 1)
	b.Wait()

	if rec.len() != 3 {
		t.Fatalf("got %d deliveries, want 3", rec.len())
	}
	for i := 0; i < 3; i++ {
		if got := rec.get(i).Payload.(int); got != i+1 {
			t.Errorf("delivery %d carried %d, want %d", i, got, i+1)
		}
	}
}
