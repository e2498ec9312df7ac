package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"gitlab.com/tinyland/lab/pulse-console/pkg/app"
	"gitlab.com/tinyland/lab/pulse-console/pkg/bus"
)

// Name is the module's registry name.
const Name = "health"

// healthReporter is implemented by modules that can be unhealthy.
type healthReporter interface {
	Healthy() bool
}

// Option configures a Module.
type Option func(*Module)

// WithClock sets the clock used for timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(m *Module) {
		if c != nil {
			m.clock = c
		}
	}
}

// Module keeps the health file current while the console runs.
type Module struct {
	path    string
	pidPath string
	clock   clockwork.Clock

	mu      sync.Mutex
	app     *app.App
	logger  *slog.Logger
	sub     *bus.Subscription
	started time.Time
	writes  int
}

// New returns a module writing to path and holding pidPath. An empty
// path disables the health file; an empty pidPath disables the PID file.
func New(path, pidPath string, opts ...Option) *Module {
	m := &Module{
		path:    path,
		pidPath: pidPath,
		clock:   clockwork.NewRealClock(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the registry name.
func (m *Module) Name() string { return Name }

// Start acquires the PID file, writes the first status, and rewrites it on
// every update event.
func (m *Module) Start(ctx context.Context, a *app.App) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sub != nil {
		return errors.New("health: already started")
	}

	if m.pidPath != "" {
		if err := AcquirePID(ctx, m.pidPath); err != nil {
			return err
		}
	}

	m.app = a
	m.logger = a.Logger().With("module", Name)
	m.started = m.clock.Now()

	sub, err := a.Bus().Subscribe(bus.EventUpdate, func(bus.Event) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.sub == nil {
			return
		}
		m.writeLocked(false)
	})
	if err != nil {
		m.releaseLocked()
		return fmt.Errorf("health: subscribe: %w", err)
	}
	m.sub = sub

	m.writeLocked(false)
	m.logger.Debug("health reporting started", "file", m.path, "pid_file", m.pidPath)
	return nil
}

// Stop writes a final stopped status and releases the PID file.
func (m *Module) Stop() {
	m.mu.Lock()
	sub := m.sub
	m.sub = nil
	m.mu.Unlock()
	if sub == nil {
		return
	}

	sub.Unsubscribe()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeLocked(true)
	m.releaseLocked()
}

// Writes returns how many times the health file has been written.
func (m *Module) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Snapshot builds the current status without writing it.
func (m *Module) Snapshot() *Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(false)
}

func (m *Module) snapshotLocked(stopped bool) *Status {
	s := &Status{
		PID:       os.Getpid(),
		StartedAt: m.started,
		UpdatedAt: m.clock.Now(),
		Stopped:   stopped,
		Modules:   []ModuleState{},
	}
	if m.app == nil {
		return s
	}

	t := m.app.Ticker()
	s.Ticks = t.Ticks()
	s.LastTick = t.LastTick()
	s.Interval = t.Interval().String()

	for _, name := range m.app.Modules() {
		state := ModuleState{Name: name, Healthy: true}
		if mod, ok := m.app.Module(name); ok {
			if hr, ok := mod.(healthReporter); ok {
				state.Healthy = hr.Healthy()
			}
		}
		s.Modules = append(s.Modules, state)
	}
	return s
}

func (m *Module) writeLocked(stopped bool) {
	if m.path == "" {
		return
	}
	if err := WriteFile(m.path, m.snapshotLocked(stopped)); err != nil {
		m.logger.Warn("health file write failed", "error", err)
		return
	}
	m.writes++
}

func (m *Module) releaseLocked() {
	if m.pidPath == "" {
		return
	}
	if err := ReleasePID(m.pidPath); err != nil {
		m.logger.Warn("PID file release failed", "error", err)
	}
}
