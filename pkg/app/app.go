// Package app provides the console's application context: the single value,
// built once by main, that owns the event bus, the update ticker, the loaded
// configuration, and every named sub-module. Components receive it by
// reference instead of reaching for globals.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/jonboulle/clockwork"

	"gitlab.com/tinyland/lab/pulse-console/pkg/bus"
	"gitlab.com/tinyland/lab/pulse-console/pkg/config"
	"gitlab.com/tinyland/lab/pulse-console/pkg/ticker"
)

var (
	// ErrDuplicateModule is returned when registering a name twice.
	ErrDuplicateModule = errors.New("app: module already registered")

	// ErrEmptyModuleName is returned when a module reports an empty name.
	ErrEmptyModuleName = errors.New("app: empty module name")

	// ErrAlreadyStarted is returned by Start on a running context.
	ErrAlreadyStarted = errors.New("app: already started")
)

// Module is a named sub-module of the application context.
type Module interface {
	Name() string
}

// Starter is implemented by modules that need to run while the application
// is started, typically to subscribe to bus events.
type Starter interface {
	Start(ctx context.Context, a *App) error
}

// Stopper is implemented by modules that hold resources until shutdown.
type Stopper interface {
	Stop()
}

// Option configures an App.
type Option func(*options)

type options struct {
	clock clockwork.Clock
}

// WithClock sets the clock driving the update ticker.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// App is the application context. It is safe for concurrent use.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	bus    *bus.Bus
	ticker *ticker.Ticker

	mu      sync.RWMutex
	modules map[string]Module
	order   []string
	started []Module
	running bool
}

// New builds the application context from cfg. A nil cfg means
// config.DefaultConfig(); a nil logger means slog.Default().
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}

	b := bus.New(bus.WithLogger(logger.With("component", "bus")))
	t := ticker.New(b,
		ticker.WithInterval(cfg.General.UpdateInterval.Duration),
		ticker.WithClock(o.clock),
		ticker.WithLogger(logger.With("component", "ticker")),
	)

	return &App{
		cfg:     cfg,
		logger:  logger,
		bus:     b,
		ticker:  t,
		modules: make(map[string]Module),
	}
}

// Bus returns the shared event bus. Every call returns the same value.
func (a *App) Bus() *bus.Bus { return a.bus }

// Ticker returns the update ticker.
func (a *App) Ticker() *ticker.Ticker { return a.ticker }

// Config returns the configuration the context was built with.
func (a *App) Config() *config.Config { return a.cfg }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Register adds a named module. Registering on a started context does not
// start the module; register everything before Start.
func (a *App) Register(m Module) error {
	name := m.Name()
	if name == "" {
		return ErrEmptyModuleName
	}

	a.mu.Lock()
	if _, exists := a.modules[name]; exists {
		a.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateModule, name)
	}
	a.modules[name] = m
	a.order = append(a.order, name)
	a.mu.Unlock()

	a.logger.Debug("module registered", "module", name)
	a.bus.Publish(bus.EventModuleRegistered, name)
	return nil
}

// Unregister removes a module by name. It is a no-op if the name is not
// found. A started module is not stopped.
func (a *App) Unregister(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.modules[name]; !ok {
		return
	}
	delete(a.modules, name)
	for i, n := range a.order {
		if n == name {
			a.order = append(a.order[:i:i], a.order[i+1:]...)
			break
		}
	}
}

// Module returns the module registered under name.
func (a *App) Module(name string) (Module, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m, ok := a.modules[name]
	return m, ok
}

// Modules returns a sorted slice of all registered module names.
func (a *App) Modules() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, 0, len(a.modules))
	for name := range a.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Running reports whether Start has succeeded and Stop has not been called.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// Start starts every Starter module in registration order, then the update
// ticker. If a module fails, the modules already started are stopped and the
// error is returned.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ErrAlreadyStarted
	}
	order := append([]string(nil), a.order...)
	mods := make([]Module, len(order))
	for i, name := range order {
		mods[i] = a.modules[name]
	}
	a.mu.Unlock()

	var started []Module
	for i, m := range mods {
		s, ok := m.(Starter)
		if !ok {
			continue
		}
		if err := s.Start(ctx, a); err != nil {
			a.stopModules(started)
			return fmt.Errorf("start module %q: %w", order[i], err)
		}
		started = append(started, m)
	}

	if err := a.ticker.Start(ctx); err != nil {
		a.stopModules(started)
		return fmt.Errorf("start update ticker: %w", err)
	}

	a.mu.Lock()
	a.started = started
	a.running = true
	a.mu.Unlock()

	a.logger.Info("console started",
		"interval", a.ticker.Interval(),
		"modules", len(order),
	)
	return nil
}

// Stop halts the ticker, announces shutdown on the bus, stops modules in
// reverse start order, and waits for in-flight bus deliveries.
func (a *App) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	started := a.started
	a.started = nil
	a.running = false
	a.mu.Unlock()

	a.ticker.Stop()
	a.bus.Publish(bus.EventShutdown, nil)
	a.bus.Wait()
	a.stopModules(started)
	a.bus.Wait()

	a.logger.Info("console stopped", "ticks", a.ticker.Ticks())
}

// stopModules stops modules in reverse order.
func (a *App) stopModules(mods []Module) {
	for i := len(mods) - 1; i >= 0; i-- {
		if s, ok := mods[i].(Stopper); ok {
			s.Stop()
			a.logger.Debug("module stopped", "module", mods[i].Name())
		}
	}
}
