// Package ticker drives the console's periodic refresh cycle. A Ticker
// publishes one payload-less "update" event on the bus per period so that
// widgets can refresh what they display.
package ticker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"gitlab.com/tinyland/lab/pulse-console/pkg/bus"
)

// DefaultInterval is the refresh period used when none is configured.
const DefaultInterval = 5 * time.Second

// ErrAlreadyRunning is returned by Start on a ticker that is running.
var ErrAlreadyRunning = errors.New("ticker: already running")

// Option configures a Ticker.
type Option func(*Ticker)

// WithInterval sets the tick period. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(t *Ticker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithClock replaces the wall clock, typically with a clockwork fake clock
// in tests.
func WithClock(c clockwork.Clock) Option {
	return func(t *Ticker) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithEvent overrides the published event name (default bus.EventUpdate).
func WithEvent(name string) Option {
	return func(t *Ticker) {
		if name != "" {
			t.event = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Ticker) {
		if l != nil {
			t.logger = l
		}
	}
}

// Ticker publishes an event at a fixed period. Ticks are never coalesced:
// if the loop falls behind, the missed ticks are published back to back so
// that SinceStart() always equals the number of whole periods elapsed since
// the last start or reset. Ticks() is the total over every run.
type Ticker struct {
	pub    bus.Publisher
	clock  clockwork.Clock
	event  string
	logger *slog.Logger

	mu       sync.Mutex
	interval time.Duration
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}
	ct       clockwork.Ticker

	// epoch is the instant periods are counted from; fired is how many
	// ticks were published since epoch.
	epoch time.Time
	fired uint64

	ticks    uint64
	lastTick time.Time
}

// New returns a stopped Ticker that publishes on p.
func New(p bus.Publisher, opts ...Option) *Ticker {
	t := &Ticker{
		pub:      p,
		clock:    clockwork.NewRealClock(),
		event:    bus.EventUpdate,
		logger:   slog.Default(),
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start schedules the recurring publish. The first tick happens one full
// interval after Start, never earlier. Cancelling ctx stops the ticker.
func (t *Ticker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	// The epoch must not be later than the clock ticker's origin, or the
	// first tick could count zero elapsed periods.
	t.epoch = t.clock.Now()
	t.fired = 0
	ct := t.clock.NewTicker(t.interval)

	t.running = true
	t.cancel = cancel
	t.done = make(chan struct{})
	t.ct = ct

	t.logger.Debug("update ticker started", "interval", t.interval, "event", t.event)

	go t.loop(ctx, ct, t.done)
	return nil
}

// Stop cancels the schedule and waits for the loop to exit. It is safe to
// call on a stopped ticker. A stopped ticker may be started again.
func (t *Ticker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	cancel, done := t.cancel, t.done
	t.mu.Unlock()

	cancel()
	<-done
}

// Reset changes the period. On a running ticker the schedule restarts from
// the moment of the call.
func (t *Ticker) Reset(d time.Duration) {
	if d <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.interval = d
	t.epoch = t.clock.Now()
	t.fired = 0
	if t.running {
		t.ct.Reset(d)
		t.logger.Debug("update ticker reset", "interval", d)
	}
}

// Running reports whether the ticker is scheduled.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Interval returns the current period.
func (t *Ticker) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}

// Ticks returns the total number of ticks published over the ticker's life.
func (t *Ticker) Ticks() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticks
}

// SinceStart returns the ticks published since the last Start or Reset.
func (t *Ticker) SinceStart() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

// LastTick returns the scheduled time of the most recent tick, or the zero
// time if none has fired.
func (t *Ticker) LastTick() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastTick
}

func (t *Ticker) loop(ctx context.Context, ct clockwork.Ticker, done chan struct{}) {
	defer func() {
		ct.Stop()
		t.mu.Lock()
		t.running = false
		t.mu.Unlock()
		close(done)
		t.logger.Debug("update ticker stopped", "ticks", t.Ticks())
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ct.Chan():
			t.catchUp(ctx)
		}
	}
}

// catchUp publishes every tick that is due but not yet published. The clock
// ticker drops ticks when its channel is full; counting elapsed periods
// against the epoch recovers them.
func (t *Ticker) catchUp(ctx context.Context) {
	now := t.clock.Now()

	t.mu.Lock()
	if missed := t.dueLocked(now); missed > t.fired+1 {
		t.logger.Debug("update ticker catching up", "missed", missed-t.fired-1)
	}
	t.mu.Unlock()

	for ctx.Err() == nil {
		t.mu.Lock()
		if t.fired >= t.dueLocked(now) {
			t.mu.Unlock()
			return
		}
		t.fired++
		t.ticks++
		t.lastTick = t.epoch.Add(time.Duration(t.fired) * t.interval)
		t.mu.Unlock()

		t.pub.Publish(t.event, nil)
	}
}

// dueLocked returns how many whole periods separate the epoch from now.
func (t *Ticker) dueLocked(now time.Time) uint64 {
	if !now.After(t.epoch) {
		return 0
	}
	return uint64(now.Sub(t.epoch) / t.interval)
}
