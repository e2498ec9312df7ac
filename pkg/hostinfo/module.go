package hostinfo

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/pulse-console/pkg/app"
	"gitlab.com/tinyland/lab/pulse-console/pkg/bus"
)

// Name is the module's registry name.
const Name = "host"

// DefaultTimeout bounds a single collection.
const DefaultTimeout = 2 * time.Second

// Status tracks the runtime state of the module. It mirrors what the
// console shows next to the metrics.
type Status struct {
	Healthy    bool
	LastRun    time.Time
	LastError  error
	RunCount   int64
	ErrorCount int64
}

// Option configures a Module.
type Option func(*Module)

// WithSource replaces the gopsutil source.
func WithSource(s Source) Option {
	return func(m *Module) {
		if s != nil {
			m.src = s
		}
	}
}

// WithTimeout bounds each collection. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(m *Module) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// Module collects host metrics each time the update event fires and
// publishes them as bus.EventHostMetrics.
type Module struct {
	src     Source
	timeout time.Duration

	mu      sync.RWMutex
	logger  *slog.Logger
	pub     bus.Publisher
	sub     *bus.Subscription
	trigger chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
	latest  *Metrics
	status  Status
}

// New returns a stopped module.
func New(opts ...Option) *Module {
	m := &Module{
		src:     GopsutilSource{},
		timeout: DefaultTimeout,
		logger:  slog.Default(),
		status:  Status{Healthy: true},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the registry name.
func (m *Module) Name() string { return Name }

// Start subscribes to the update event and launches the collection worker.
func (m *Module) Start(ctx context.Context, a *app.App) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done != nil {
		return errors.New("hostinfo: already started")
	}

	trigger := make(chan struct{}, 1)
	sub, err := a.Bus().Subscribe(bus.EventUpdate, func(bus.Event) {
		// A collection still in flight absorbs this request.
		select {
		case trigger <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	m.logger = a.Logger().With("module", Name)
	m.pub = a.Bus()
	m.sub = sub
	m.trigger = trigger
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.worker(ctx, trigger, m.done)
	return nil
}

// Stop unsubscribes and waits for the worker to exit.
func (m *Module) Stop() {
	m.mu.Lock()
	if m.done == nil {
		m.mu.Unlock()
		return
	}
	sub, cancel, done := m.sub, m.cancel, m.done
	m.sub, m.cancel, m.done = nil, nil, nil
	m.mu.Unlock()

	sub.Unsubscribe()
	cancel()
	<-done
}

// Latest returns the most recent snapshot, if any.
func (m *Module) Latest() (*Metrics, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.latest != nil
}

// Status returns a copy of the runtime status.
func (m *Module) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Healthy reports whether the last collection produced any data.
func (m *Module) Healthy() bool {
	return m.Status().Healthy
}

// Refresh runs one collection immediately and publishes the result.
func (m *Module) Refresh(ctx context.Context) error {
	return m.collect(ctx)
}

func (m *Module) worker(ctx context.Context, trigger <-chan struct{}, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-trigger:
			_ = m.collect(ctx)
		}
	}
}

func (m *Module) collect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	metrics, err := m.src.Collect(ctx)

	m.mu.Lock()
	m.status.LastRun = start
	m.status.RunCount++
	m.status.LastError = err
	if err != nil {
		m.status.ErrorCount++
	}
	m.status.Healthy = metrics != nil
	if metrics != nil {
		m.latest = metrics
	}
	logger, pub := m.logger, m.pub
	m.mu.Unlock()

	switch {
	case metrics == nil:
		logger.Warn("host metrics unavailable", "error", err)
		return err
	case err != nil:
		logger.Debug("host metrics partial", "error", err)
	default:
		logger.Debug("host metrics collected", "latency", time.Since(start))
	}

	if pub != nil {
		pub.Publish(bus.EventHostMetrics, metrics)
	}
	return err
}
