package config

// Config is the top-level pulse-console configuration.
type Config struct {
	General GeneralConfig `toml:"general" yaml:"general"`
	Console ConsoleConfig `toml:"console" yaml:"console"`
	Host    HostConfig    `toml:"host" yaml:"host"`
	Health  HealthConfig  `toml:"health" yaml:"health"`

	// envErrs holds environment overrides that could not be applied.
	envErrs []error
}

// GeneralConfig holds process-wide settings.
type GeneralConfig struct {
	// UpdateInterval is the period of the "update" broadcast.
	UpdateInterval Duration `toml:"update_interval" yaml:"update_interval"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level" yaml:"log_level"`

	// LogFile, when set, receives log output. The TUI always logs to a
	// file since stderr belongs to the screen.
	LogFile string `toml:"log_file" yaml:"log_file"`
}

// ConsoleConfig controls the terminal console.
type ConsoleConfig struct {
	// Title is shown in the header bar.
	Title string `toml:"title" yaml:"title"`

	// Preset names a built-in widget arrangement (see WidgetPreset).
	Preset string `toml:"preset" yaml:"preset"`

	// Widgets, when non-empty, overrides the preset's widget list.
	Widgets []string `toml:"widgets" yaml:"widgets"`

	// Theme names the color palette. Unknown names use the default.
	Theme string `toml:"theme" yaml:"theme"`
}

// HostConfig controls the host metrics module.
type HostConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
}

// HealthConfig controls the headless health and PID files.
type HealthConfig struct {
	File    string `toml:"file" yaml:"file"`
	PIDFile string `toml:"pid_file" yaml:"pid_file"`
}
