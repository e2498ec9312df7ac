package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"gitlab.com/tinyland/lab/pulse-console/pkg/config"
	"gitlab.com/tinyland/lab/pulse-console/pkg/health"
)

var (
	errNotRunning = errors.New("console is not running")
	errUnhealthy  = errors.New("console is unhealthy")
)

func newHeadlessCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "headless",
		Short: "Run the update loop without a screen",
		Long: `Run the application context without the terminal UI. Host metrics are
collected on every update and a JSON health file is rewritten each time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			return runHeadless(cmd.Context(), cfg, opts)
		},
	}
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			return config.Encode(cmd.OutOrStdout(), cfg)
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether a headless console is running and healthy",
		Long: `Read the health file and PID file written by "pulse-console headless" and
summarize them. Exits non-zero when the console is not running or reports an
unhealthy module.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			r, err := health.Inspect(cmd.Context(), cfg.Health.File, cfg.Health.PIDFile)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), r)
			switch {
			case !r.Running:
				return errNotRunning
			case !r.Healthy():
				return errUnhealthy
			}
			return nil
		},
	}
}

func printReport(w io.Writer, r *health.Report) {
	st := r.Status
	if r.Running {
		fmt.Fprintf(w, "running (PID %d)\n", r.Owner.PID)
	} else {
		fmt.Fprintln(w, "not running")
	}
	fmt.Fprintf(w, "ticks:    %s every %s\n", humanize.Comma(int64(st.Ticks)), st.Interval)
	if !st.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "updated:  %s\n", humanize.Time(st.UpdatedAt))
	}

	var mods []string
	for _, m := range st.Modules {
		state := "ok"
		if !m.Healthy {
			state = "failing"
		}
		mods = append(mods, m.Name+" "+state)
	}
	if len(mods) > 0 {
		fmt.Fprintf(w, "modules:  %s\n", strings.Join(mods, ", "))
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pulse-console %s (%s) built %s\n", version, commit, date)
		},
	}
}
