// Package cmd implements the pulse-console command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"gitlab.com/tinyland/lab/pulse-console/pkg/config"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	interval   time.Duration
	verbose    bool
}

// NewRootCmd builds the command tree. The root command runs the terminal
// console, or the headless loop when stdout is not a terminal.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "pulse-console",
		Short: "Terminal console refreshed by a shared update ticker",
		Long: `pulse-console runs a small application context: an event bus, an update
ticker broadcasting "update" on a fixed interval, and modules that refresh
when it fires. Without a terminal it runs headless and writes a health file.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if !stdoutIsTerminal() {
				return runHeadless(cmd.Context(), cfg, opts)
			}
			return runConsole(cmd.Context(), cfg, opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "path to configuration file (.toml, .yaml)")
	pf.DurationVarP(&opts.interval, "interval", "i", 0, "update interval override (e.g. 2s)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newHeadlessCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the command tree and exits non-zero on error.
func Execute() {
	if err := ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// ExecuteContext runs the root command with a supplied context for
// cancellation.
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// loadConfig reads the config file (or the search path), then applies
// command line overrides and validates the result.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cmd.Flags().Changed("interval") {
		cfg.General.UpdateInterval = config.Duration{Duration: o.interval}
	}
	if o.verbose {
		cfg.General.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. The returned closer releases the
// log file, if one was opened.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, func(), error) {
	level, err := config.ParseLevel(cfg.General.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {}

	if w == nil {
		w = io.Discard
		if cfg.General.LogFile != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.General.LogFile), 0o755); err != nil {
				return nil, nil, fmt.Errorf("create log directory: %w", err)
			}
			f, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return nil, nil, fmt.Errorf("open log file: %w", err)
			}
			w = f
			closer = func() { f.Close() }
		}
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return logger, closer, nil
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
