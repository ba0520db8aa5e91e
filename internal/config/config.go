// Package config loads the presencec configuration: a yaml file with
// defaults, overridable per key through PRESENCEC_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full tool configuration.
type Config struct {
	// Store is the presence store root (the directory holding the
	// single-letter bucket directories).
	Store string `yaml:"store"`

	// Output overrides the per-unit output directory when set.
	Output string `yaml:"output"`

	// CI enables CI annotation output for diagnostics. Defaults to true
	// when the CI environment variable is set.
	CI bool `yaml:"ci"`

	Bundler   BundlerConfig   `yaml:"bundler"`
	Installer InstallerConfig `yaml:"installer"`
	Events    EventsConfig    `yaml:"events"`
	History   HistoryConfig   `yaml:"history"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// BundlerConfig configures the external bundling engine.
type BundlerConfig struct {
	// Command is the engine argv.
	Command []string `yaml:"command"`

	// Extensions restricts module resolution (default: .ts only).
	Extensions []string `yaml:"extensions"`
}

// InstallerConfig configures the dependency installer process.
type InstallerConfig struct {
	Command []string `yaml:"command"`
}

// EventsConfig configures the optional NATS build-event publisher.
type EventsConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// HistoryConfig configures the local invocation history database.
type HistoryConfig struct {
	// Path is the SQLite database file. Empty disables history.
	Path string `yaml:"path"`
}

// MetricsConfig configures the optional Prometheus endpoint.
type MetricsConfig struct {
	// Listen is the address for /metrics (e.g. ":9105"). Empty disables it.
	Listen string `yaml:"listen"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Store: "./websites",
		Bundler: BundlerConfig{
			Command:    []string{"presence-bundler"},
			Extensions: []string{".ts"},
		},
		Installer: InstallerConfig{
			Command: []string{"npm", "install", "--quiet", "--no-audit", "--no-fund"},
		},
		Events: EventsConfig{
			Subject: "presencec.builds",
		},
		History: HistoryConfig{
			Path: ".presencec/history.db",
		},
		CI: os.Getenv("CI") != "",
	}
}

// Load reads the configuration file at path. A missing file yields the
// defaults; a present but malformed file is an error. Environment overrides
// are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv applies PRESENCEC_* environment overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("PRESENCEC_STORE"); v != "" {
		c.Store = v
	}
	if v := os.Getenv("PRESENCEC_OUTPUT"); v != "" {
		c.Output = v
	}
	if v := os.Getenv("PRESENCEC_BUNDLER"); v != "" {
		c.Bundler.Command = strings.Fields(v)
	}
	if v := os.Getenv("PRESENCEC_EVENTS_URL"); v != "" {
		c.Events.URL = v
	}
	if v := os.Getenv("PRESENCEC_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
	if os.Getenv("CI") != "" {
		c.CI = true
	}
}

const defaultConfigFile = `# presencec configuration
store: ./websites

# Destination directory; empty means each presence's own directory.
output: ""

bundler:
  command: [presence-bundler]
  extensions: [".ts"]

installer:
  command: [npm, install, --quiet, --no-audit, --no-fund]

events:
  # NATS server for build events; empty disables publishing.
  url: ""
  subject: presencec.builds

history:
  # SQLite invocation history; empty disables it.
  path: .presencec/history.db

metrics:
  # Prometheus listen address (e.g. ":9105"); empty disables it.
  listen: ""
`

// Init writes a commented default configuration file.
func Init(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		}
	}
	if err := os.WriteFile(path, []byte(defaultConfigFile), 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
