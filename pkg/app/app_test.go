package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"gitlab.com/tinyland/lab/pulse-console/pkg/bus"
	"gitlab.com/tinyland/lab/pulse-console/pkg/config"
)

// journal records module lifecycle calls across modules, in order.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, s)
}

func (j *journal) String() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return strings.Join(j.entries, ",")
}

// testModule implements Module, Starter, and Stopper.
type testModule struct {
	name     string
	j        *journal
	startErr error
	gotApp   *App
}

func (m *testModule) Name() string { return m.name }

func (m *testModule) Start(_ context.Context, a *App) error {
	m.gotApp = a
	if m.startErr != nil {
		m.j.add("fail:" + m.name)
		return m.startErr
	}
	m.j.add("start:" + m.name)
	return nil
}

func (m *testModule) Stop() { m.j.add("stop:" + m.name) }

// plainModule has a name and nothing else.
type plainModule string

func (p plainModule) Name() string { return string(p) }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// helper to create an App on a fake clock with a one second interval.
func newTestApp() (*App, *clockwork.FakeClock) {
	cfg := config.DefaultConfig()
	cfg.General.UpdateInterval = config.Duration{Duration: time.Second}
	clock := clockwork.NewFakeClock()
	return New(cfg, quietLogger(), WithClock(clock)), clock
}

func TestNewUsesDefaultsForNil(t *testing.T) {
	a := New(nil, nil)
	if a.Config() == nil {
		t.Fatal("expected default config")
	}
	if a.Logger() == nil {
		t.Fatal("expected default logger")
	}
	if got := a.Ticker().Interval(); got != config.DefaultUpdateInterval {
		t.Errorf("expected default interval %v, got %v", config.DefaultUpdateInterval, got)
	}
}

func TestAccessorsReturnSameValues(t *testing.T) {
	a, _ := newTestApp()
	if a.Bus() != a.Bus() {
		t.Error("Bus() should return the same value on every call")
	}
	if a.Ticker() != a.Ticker() {
		t.Error("Ticker() should return the same value on every call")
	}
	if a.Ticker().Interval() != time.Second {
		t.Errorf("expected ticker interval from config, got %v", a.Ticker().Interval())
	}
}

func TestRegisterAndLookup(t *testing.T) {
	a, _ := newTestApp()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := a.Register(plainModule(name)); err != nil {
			t.Fatalf("Register(%q): %v", name, err)
		}
	}

	if got := strings.Join(a.Modules(), ","); got != "alpha,mid,zeta" {
		t.Errorf("Modules() = %q, want sorted names", got)
	}
	m, ok := a.Module("mid")
	if !ok || m.Name() != "mid" {
		t.Errorf("Module(mid) = %v, %v", m, ok)
	}
	if _, ok := a.Module("missing"); ok {
		t.Error("expected missing module lookup to fail")
	}
}

func TestRegisterErrors(t *testing.T) {
	a, _ := newTestApp()
	if err := a.Register(plainModule("host")); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	tests := []struct {
		name string
		mod  Module
		want error
	}{
		{"duplicate", plainModule("host"), ErrDuplicateModule},
		{"empty", plainModule(""), ErrEmptyModuleName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := a.Register(tt.mod); !errors.Is(err, tt.want) {
				t.Errorf("Register() error = %v, want %v", err, tt.want)
			}
		})
	}
	if n := len(a.Modules()); n != 1 {
		t.Errorf("failed registrations should not add modules, got %d", n)
	}
}

func TestRegisterPublishesEvent(t *testing.T) {
	a, _ := newTestApp()
	got := make(chan interface{}, 1)
	if _, err := a.Bus().Subscribe(bus.EventModuleRegistered, func(ev bus.Event) {
		got <- ev.Payload
	}); err != nil {
		t.Fatal(err)
	}

	if err := a.Register(plainModule("host")); err != nil {
		t.Fatal(err)
	}
	a.Bus().Wait()

	select {
	case name := <-got:
		if name != "host" {
			t.Errorf("expected payload 'host', got %v", name)
		}
	default:
		t.Fatal("expected a module registered event")
	}
}

func TestUnregister(t *testing.T) {
	a, _ := newTestApp()
	_ = a.Register(plainModule("a"))
	_ = a.Register(plainModule("b"))

	a.Unregister("a")
	a.Unregister("missing")

	if got := strings.Join(a.Modules(), ","); got != "b" {
		t.Errorf("Modules() after Unregister = %q, want b", got)
	}
	if err := a.Register(plainModule("a")); err != nil {
		t.Errorf("re-register after Unregister: %v", err)
	}
}

func TestStartStopOrder(t *testing.T) {
	a, _ := newTestApp()
	j := &journal{}
	first := &testModule{name: "first", j: j}
	second := &testModule{name: "second", j: j}
	_ = a.Register(first)
	_ = a.Register(plainModule("plain"))
	_ = a.Register(second)

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !a.Running() || !a.Ticker().Running() {
		t.Error("expected app and ticker running after Start")
	}
	if first.gotApp != a {
		t.Error("module should receive the application context")
	}

	a.Stop()
	if a.Running() || a.Ticker().Running() {
		t.Error("expected app and ticker stopped after Stop")
	}

	want := "start:first,start:second,stop:second,stop:first"
	if got := j.String(); got != want {
		t.Errorf("lifecycle = %q, want %q", got, want)
	}
}

func TestStartTwice(t *testing.T) {
	a, _ := newTestApp()
	if err := a.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer a.Stop()

	if err := a.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start error = %v, want ErrAlreadyStarted", err)
	}
}

func TestStartRollsBackOnFailure(t *testing.T) {
	a, _ := newTestApp()
	j := &journal{}
	boom := errors.New("boom")
	_ = a.Register(&testModule{name: "a", j: j})
	_ = a.Register(&testModule{name: "b", j: j, startErr: boom})
	_ = a.Register(&testModule{name: "c", j: j})

	err := a.Start(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Start error = %v, want wrapped boom", err)
	}
	if !strings.Contains(err.Error(), `"b"`) {
		t.Errorf("expected module name in error, got %v", err)
	}
	if a.Running() || a.Ticker().Running() {
		t.Error("failed Start should leave nothing running")
	}

	want := "start:a,fail:b,stop:a"
	if got := j.String(); got != want {
		t.Errorf("lifecycle = %q, want %q", got, want)
	}
}

func TestStopWithoutStartIsNoOp(t *testing.T) {
	a, _ := newTestApp()
	j := &journal{}
	_ = a.Register(&testModule{name: "a", j: j})

	a.Stop()
	if j.String() != "" {
		t.Errorf("expected no lifecycle calls, got %q", j.String())
	}
}

func TestStopPublishesShutdown(t *testing.T) {
	a, _ := newTestApp()
	got := make(chan struct{}, 1)
	if _, err := a.Bus().Subscribe(bus.EventShutdown, func(bus.Event) {
		got <- struct{}{}
	}); err != nil {
		t.Fatal(err)
	}

	if err := a.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	a.Stop()

	select {
	case <-got:
	default:
		t.Fatal("expected shutdown event delivered before Stop returns")
	}
}

func TestUnregisteredModuleStillStopped(t *testing.T) {
	a, _ := newTestApp()
	j := &journal{}
	_ = a.Register(&testModule{name: "a", j: j})
	if err := a.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	a.Unregister("a")
	a.Stop()

	if got := j.String(); got != "start:a,stop:a" {
		t.Errorf("lifecycle = %q, want start:a,stop:a", got)
	}
}

// TestTickerDrivesUpdates checks that every interval reaches update
// listeners through the shared bus.
func TestTickerDrivesUpdates(t *testing.T) {
	a, clock := newTestApp()

	var mu sync.Mutex
	count := 0
	if _, err := a.Bus().Subscribe(bus.EventUpdate, func(bus.Event) {
		mu.Lock()
		count++
		mu.Unlock()
	}); err != nil {
		t.Fatal(err)
	}

	if err := a.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer a.Stop()

	clock.Advance(3 * time.Second)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		a.Bus().Wait()
		mu.Lock()
		n := count
		mu.Unlock()
		if n == 3 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	mu.Lock()
	defer mu.Unlock()
	t.Fatalf("expected 3 updates after 3 intervals, got %d", count)
}
