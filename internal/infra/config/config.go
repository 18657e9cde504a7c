// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Source SourceConfig `yaml:"source"`
	Output OutputConfig `yaml:"output"`
	Hooks  HooksConfig  `yaml:"hooks"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Output string `yaml:"output" default:"stderr"` // "stdout", "stderr", or file path
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
}

// SourceConfig represents the frame source configuration.
type SourceConfig struct {
	Type     string         `yaml:"type" default:"file" validate:"oneof=file tone stdin"`
	Settings map[string]any `yaml:"settings"`
}

// OutputConfig represents where produced frames are written.
type OutputConfig struct {
	Path     string `yaml:"path" default:"-"` // "-" for stdout
	Realtime bool   `yaml:"realtime"`         // Pace output at one frame per 20ms
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStopped []string `yaml:"on_stopped"`
}

// Default returns a configuration with only default values.
func Default() (*Config, error) {
	var cfg Config
	cfg.overrideFromEnv()
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}
	return &cfg, nil
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("EVENTPLAYER_SOURCE_PATH"); v != "" {
		c.SetSourcePath(v)
	}
	if v := os.Getenv("EVENTPLAYER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// SetSourcePath sets the file path of a file source.
func (c *Config) SetSourcePath(path string) {
	if c.Source.Settings == nil {
		c.Source.Settings = make(map[string]any)
	}
	c.Source.Settings["path"] = path
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}
