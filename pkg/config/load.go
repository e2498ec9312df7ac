package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// AppName is used for the config, state, and log directory names.
const AppName = "pulse-console"

// DefaultUpdateInterval matches ticker.DefaultInterval. It is repeated here
// so the config package stays free of runtime dependencies.
const DefaultUpdateInterval = 5 * time.Second

// Format selects the decoder used by LoadFromReader.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

// Load reads configuration from the standard config path.
// Search order:
//  1. $XDG_CONFIG_HOME/pulse-console/config.toml
//  2. ~/.config/pulse-console/config.toml
//
// If no file exists, returns DefaultConfig() with env overrides applied.
func Load() (*Config, error) {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return LoadFromFile(p)
		}
	}
	cfg := DefaultConfig()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path. Files ending
// in .yaml or .yml are decoded as YAML, everything else as TOML. A missing
// file yields the defaults.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	defer f.Close()

	cfg, err := LoadFromReader(f, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes configuration from r on top of the defaults.
func LoadFromReader(r io.Reader, format Format) (*Config, error) {
	cfg := DefaultConfig()
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	default:
		if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
			return nil, err
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// FormatForPath picks the decoder from the file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// DefaultConfig returns the default configuration with sensible defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	stateDir := filepath.Join(xdgStateHome(home), AppName)

	return &Config{
		General: GeneralConfig{
			UpdateInterval: Duration{DefaultUpdateInterval},
			LogLevel:       "info",
			LogFile:        filepath.Join(stateDir, AppName+".log"),
		},
		Console: ConsoleConfig{
			Title:  "pulse console",
			Preset: "dashboard",
			Theme:  "default",
		},
		Host: HostConfig{
			Enabled: true,
		},
		Health: HealthConfig{
			File:    filepath.Join(stateDir, "health.json"),
			PIDFile: filepath.Join(stateDir, AppName+".pid"),
		},
	}
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg *Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// applyEnvOverrides checks environment variables and overrides config values.
// A malformed duration leaves the value unchanged and is reported by
// Validate.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PCONSOLE_UPDATE_INTERVAL"); v != "" {
		var d Duration
		if err := d.UnmarshalText([]byte(v)); err != nil {
			cfg.envErrs = append(cfg.envErrs, fmt.Errorf("PCONSOLE_UPDATE_INTERVAL: %w", err))
		} else {
			cfg.General.UpdateInterval = d
		}
	}
	if v := os.Getenv("PCONSOLE_LOG_LEVEL"); v != "" {
		cfg.General.LogLevel = v
	}
	if v := os.Getenv("PCONSOLE_LOG_FILE"); v != "" {
		cfg.General.LogFile = v
	}
	if v := os.Getenv("PCONSOLE_PRESET"); v != "" {
		cfg.Console.Preset = v
	}
}

// configSearchPaths returns the ordered list of config file paths to try.
func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	var paths []string

	xdg := xdgConfigHome(home)
	paths = append(paths, filepath.Join(xdg, AppName, "config.toml"))

	// If XDG_CONFIG_HOME was explicitly set, also try the fallback default.
	defaultXDG := filepath.Join(home, ".config")
	if xdg != defaultXDG {
		paths = append(paths, filepath.Join(defaultXDG, AppName, "config.toml"))
	}

	return paths
}

// xdgConfigHome returns XDG_CONFIG_HOME or ~/.config as fallback.
func xdgConfigHome(home string) string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".config")
}

// xdgStateHome returns XDG_STATE_HOME or ~/.local/state as fallback.
func xdgStateHome(home string) string {
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".local", "state")
}
