package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"gitlab.com/tinyland/lab/pulse-console/pkg/app"
	"gitlab.com/tinyland/lab/pulse-console/pkg/bus"
	"gitlab.com/tinyland/lab/pulse-console/pkg/config"
	"gitlab.com/tinyland/lab/pulse-console/pkg/health"
	"gitlab.com/tinyland/lab/pulse-console/pkg/hostinfo"
	"gitlab.com/tinyland/lab/pulse-console/pkg/tui"
)

// buildApp creates the application context and registers the modules the
// config enables. The health module is only registered when headless.
func buildApp(cfg *config.Config, logger *slog.Logger, headless bool) (*app.App, error) {
	a := app.New(cfg, logger)

	if cfg.Host.Enabled {
		if err := a.Register(hostinfo.New()); err != nil {
			return nil, err
		}
	}
	if headless {
		if err := a.Register(health.New(cfg.Health.File, cfg.Health.PIDFile)); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// runHeadless runs the update loop without a screen until the context is
// cancelled or the process is signalled.
func runHeadless(ctx context.Context, cfg *config.Config, opts *rootOptions) error {
	logger, closeLog, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(cfg, logger, true)
	if err != nil {
		return err
	}

	sub, err := a.Bus().Subscribe(bus.EventHostMetrics, func(ev bus.Event) {
		m, ok := ev.Payload.(*hostinfo.Metrics)
		if !ok {
			return
		}
		logger.Debug("host metrics",
			"cpu", fmt.Sprintf("%.1f%%", m.CPU.Total),
			"mem_used", humanize.IBytes(m.Memory.Used),
			"load1", m.Load.Load1,
		)
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	if err := a.Start(ctx); err != nil {
		return err
	}
	logger.Info("running headless",
		"interval", a.Ticker().Interval(),
		"health_file", cfg.Health.File,
		"verbose", opts.verbose,
	)

	<-ctx.Done()
	logger.Info("received shutdown signal")
	a.Stop()
	return nil
}

// runConsole runs the bubbletea console. The program is fed exclusively by
// the bus bridge; the update ticker is the only source of refreshes.
func runConsole(ctx context.Context, cfg *config.Config, _ *rootOptions) error {
	logger, closeLog, err := newLogger(cfg, nil)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(cfg, logger, false)
	if err != nil {
		return err
	}

	model := tui.NewModel(tui.Options{
		Title: cfg.Console.Title,
		Theme: cfg.Console.Theme,
	}, tui.BuildWidgets(a)...)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	bridge, err := tui.NewBridge(a.Bus(), p, nil)
	if err != nil {
		return err
	}
	defer bridge.Close()

	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.Stop()

	if _, err := p.Run(); err != nil &&
		!errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, context.Canceled) {
		logger.Error("console error", "error", err)
		return fmt.Errorf("console: %w", err)
	}
	return nil
}
