package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate reports every problem in cfg at once.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.envErrs...)

	if c.General.UpdateInterval.Duration <= 0 {
		errs = append(errs, fmt.Errorf("general.update_interval must be positive, got %s", c.General.UpdateInterval))
	}
	if _, err := ParseLevel(c.General.LogLevel); err != nil {
		errs = append(errs, err)
	}
	for _, w := range c.WidgetIDs() {
		if !KnownWidget(w) {
			errs = append(errs, fmt.Errorf("console: unknown widget %q", w))
		}
	}

	return errors.Join(errs...)
}

// ParseLevel maps a config log level onto slog. The empty string means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("general.log_level: unknown level %q", s)
	}
}
