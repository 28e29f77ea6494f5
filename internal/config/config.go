// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: CLI flags > environment variables > config file > embedded > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "15s", "30s", "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all configuration for a collection run.
type Config struct {
	Controller ControllerConfig `yaml:"controller"`
	Collection CollectionConfig `yaml:"collection"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Output     OutputConfig     `yaml:"output"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ControllerConfig holds the vCenter connection settings. The password is
// never stored here; it is read from PasswordFile at run time.
type ControllerConfig struct {
	Address            string `yaml:"address"`
	Port               int    `yaml:"port"`
	Username           string `yaml:"username"`
	PasswordFile       string `yaml:"password_file"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// CollectionConfig describes what to query.
type CollectionConfig struct {
	// Hosts is the allowlist of host names. Empty means every discovered host.
	Hosts      []string `yaml:"hosts"`
	Interfaces []string `yaml:"interfaces"`
	Counter    string   `yaml:"counter"`
	Rollup     string   `yaml:"rollup"`

	// IntervalID is the sampling interval in seconds (20 = real-time stats).
	IntervalID  int32   `yaml:"interval_id"`
	MaxSamples  int32   `yaml:"max_samples"`
	Concurrency int     `yaml:"concurrency"`
	QueryRate   float64 `yaml:"query_rate"`
}

// ScheduleConfig controls repeated runs. Every == 0 runs once and exits.
type ScheduleConfig struct {
	Every Duration `yaml:"every"`
}

// OutputConfig holds chart output settings.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// MetricsConfig holds run metrics settings.
type MetricsConfig struct {
	// Textfile is written in Prometheus text format after each run when set.
	Textfile string `yaml:"textfile"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Controller: ControllerConfig{
			Port:               443,
			PasswordFile:       "./password.txt",
			InsecureSkipVerify: true,
		},
		Collection: CollectionConfig{
			Interfaces:  []string{"vmnic4", "vmnic5"},
			Counter:     "net.usage",
			Rollup:      "average",
			IntervalID:  20,
			MaxSamples:  300,
			Concurrency: 1,
		},
		Output: OutputConfig{
			Dir: "./charts",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromBytes parses YAML configuration from a byte slice and merges with defaults.
// Environment variables take highest precedence and override values from the byte slice.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config data: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// Load reads configuration from a YAML file and merges with defaults.
// If path is empty or the file does not exist, only defaults and environment
// variables are used.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadFromBytes(nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		return LoadFromBytes(nil)
	}

	return LoadFromBytes(data)
}

// CLIOverrides holds values from command-line flags.
// Empty strings are treated as "not set" and skipped.
type CLIOverrides struct {
	Address   string
	Username  string
	OutputDir string
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	candidates := configSearchPaths()
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars > external YAML file > embedded bytes > defaults.
//
// An optional configPath argument controls external-file discovery:
//   - omitted        → auto-discover via Locate()
//   - explicit value  → use that path ("" means no external file)
//
// Unlike Load, an explicit path that cannot be read is an error.
func LoadLayered(cli CLIOverrides, embedded []byte, configPath ...string) (*Config, error) {
	cfg := DefaultConfig()

	if len(embedded) > 0 {
		if err := yaml.Unmarshal(embedded, cfg); err != nil {
			return nil, fmt.Errorf("parsing embedded config: %w", err)
		}
	}

	var filePath string
	explicit := len(configPath) > 0
	if explicit {
		filePath = configPath[0]
	} else {
		filePath = Locate()
	}
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
			}
		case explicit:
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if cli.Address != "" {
		cfg.Controller.Address = cli.Address
	}
	if cli.Username != "" {
		cfg.Controller.Username = cli.Username
	}
	if cli.OutputDir != "" {
		cfg.Output.Dir = cli.OutputDir
	}

	return cfg, nil
}

// WriteConfig serializes the config to a YAML file at the given path.
// Creates parent directories if needed.
func WriteConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0640)
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if addr := os.Getenv("HN_CONTROLLER_ADDRESS"); addr != "" {
		cfg.Controller.Address = addr
	}
	if user := os.Getenv("HN_CONTROLLER_USERNAME"); user != "" {
		cfg.Controller.Username = user
	}
	if pwFile := os.Getenv("HN_PASSWORD_FILE"); pwFile != "" {
		cfg.Controller.PasswordFile = pwFile
	}
	if level := os.Getenv("HN_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

// Validate checks that the configuration can drive a collection run.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Controller.Address) == "" {
		return fmt.Errorf("controller address is required")
	}
	if c.Controller.Username == "" {
		return fmt.Errorf("controller username is required")
	}
	if c.Controller.PasswordFile == "" {
		return fmt.Errorf("controller password file is required")
	}
	if c.Controller.Port < 0 || c.Controller.Port > 65535 {
		return fmt.Errorf("controller port out of range (got: %d)", c.Controller.Port)
	}

	col := c.Collection
	if len(col.Interfaces) == 0 {
		return fmt.Errorf("at least one interface is required")
	}
	seen := make(map[string]bool, len(col.Interfaces))
	for _, iface := range col.Interfaces {
		if iface == "" {
			return fmt.Errorf("interface names must not be empty")
		}
		if seen[iface] {
			return fmt.Errorf("duplicate interface %q", iface)
		}
		seen[iface] = true
	}
	if col.Counter == "" || col.Rollup == "" {
		return fmt.Errorf("counter and rollup are required")
	}
	if col.IntervalID <= 0 {
		return fmt.Errorf("interval_id must be > 0 (got: %d)", col.IntervalID)
	}
	if col.MaxSamples <= 0 {
		return fmt.Errorf("max_samples must be > 0 (got: %d)", col.MaxSamples)
	}
	if col.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1 (got: %d)", col.Concurrency)
	}
	if col.QueryRate < 0 {
		return fmt.Errorf("query_rate must be >= 0 (got: %v)", col.QueryRate)
	}

	if c.Schedule.Every.Duration < 0 {
		return fmt.Errorf("schedule interval must be >= 0")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output directory is required")
	}
	return nil
}
