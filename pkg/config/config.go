// Package config loads and validates the session configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the YAML session configuration
type Config struct {
	// ServerURL is the agent API base (scheme + host)
	ServerURL string `yaml:"server_url" validate:"required,url"`
	// PollIntervalSeconds is the ADB status poll interval
	PollIntervalSeconds int `yaml:"poll_interval_seconds" validate:"gte=1"`
	// ReconnectDelaySeconds is the fixed push-channel reconnect delay
	ReconnectDelaySeconds int `yaml:"reconnect_delay_seconds" validate:"gte=1"`
	// LayoutDirection is TB (top-to-bottom) or LR (left-to-right)
	LayoutDirection string `yaml:"layout_direction" validate:"oneof=TB LR"`
	// MetricsAddr, when set, serves prometheus metrics on this address
	MetricsAddr string `yaml:"metrics_addr" validate:"omitempty,hostname_port"`
	// LogLevel filters log output
	LogLevel string `yaml:"log_level" validate:"oneof=DEBUG INFO WARN ERROR"`
	// PrefsPath is where client-local preferences (theme) persist
	PrefsPath string `yaml:"prefs_path"`
}

// Default returns a config pointed at a local agent
func Default() *Config {
	return &Config{
		ServerURL:             "http://localhost:8000",
		PollIntervalSeconds:   3,
		ReconnectDelaySeconds: 3,
		LayoutDirection:       "TB",
		LogLevel:              "INFO",
	}
}

// Load reads a YAML config file over the defaults and validates the result
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config against its field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// PollInterval returns the poll interval as a duration
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// ReconnectDelay returns the reconnect delay as a duration
func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelaySeconds) * time.Second
}
