// Package config loads service configuration from the environment
// (12-factor), optionally layered over a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Logging   LogConfig       `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8600" yaml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" yaml:"host"`
}

// TracingConfig holds tracer tuning knobs.
type TracingConfig struct {
	MaxChains   int           `envconfig:"TRACE_MAX_CHAINS" default:"1000" yaml:"max_chains"`
	SpanTTL     time.Duration `envconfig:"TRACE_SPAN_TTL" default:"0s" yaml:"span_ttl"`
	EventBuffer int           `envconfig:"TRACE_EVENT_BUFFER" default:"1000" yaml:"event_buffer"`
	Enabled     bool          `envconfig:"TRACE_ENABLED" default:"true" yaml:"enabled"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development"`
}

// RateLimitConfig holds rate limiting configuration. The per-IP limit
// shields against a single noisy client; the global limit caps total
// throughput across all clients.
type RateLimitConfig struct {
	RequestsPerSecond       int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"requests_per_second"`
	Burst                   int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst"`
	GlobalRequestsPerSecond int  `envconfig:"RATE_LIMIT_GLOBAL_RPS" default:"1000" yaml:"global_requests_per_second"`
	GlobalBurst             int  `envconfig:"RATE_LIMIT_GLOBAL_BURST" default:"2000" yaml:"global_burst"`
	Enabled                 bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadFile loads configuration from the environment, then overlays the
// given YAML file. Values set in the file win over environment values.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8600",
			Host: "0.0.0.0",
		},
		Tracing: TracingConfig{
			MaxChains:   1000,
			SpanTTL:     0,
			EventBuffer: 1000,
			Enabled:     true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond:       100,
			Burst:                   200,
			GlobalRequestsPerSecond: 1000,
			GlobalBurst:             2000,
			Enabled:                 true,
		},
	}
}
