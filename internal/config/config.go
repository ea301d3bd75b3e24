// Package config loads and validates the mapboard server configuration.
//
// The Redis connection string always comes from the REDIS_URL environment
// variable; its absence is a startup-time hard failure for anything touching
// the store. Everything else is tunable through an optional mapboard.yml.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level mapboard.yml configuration.
// Zero values are filled in with defaults by Load.
type Config struct {
	ListenAddr string          `yaml:"listen_addr,omitempty"` // default ":8080"
	Instance   string          `yaml:"instance,omitempty"`    // Redis namespace, default "default"
	Debug      bool            `yaml:"debug,omitempty"`       // enable debug logging
	RateLimit  RateLimitConfig `yaml:"rate_limit,omitempty"`
	Stream     StreamConfig    `yaml:"stream,omitempty"`
}

// RateLimitConfig tunes the per-client request limiter.
type RateLimitConfig struct {
	Window      string `yaml:"window,omitempty"`       // duration, default "60s"
	MaxRequests int    `yaml:"max_requests,omitempty"` // default 100
}

// StreamConfig tunes the streaming sync endpoints.
type StreamConfig struct {
	PingInterval string `yaml:"ping_interval,omitempty"` // keep-alive cadence, default "30s"
}

// Default returns the configuration used when no mapboard.yml is present.
func Default() *Config {
	return &Config{
		ListenAddr: ":8080",
		Instance:   "default",
		RateLimit:  RateLimitConfig{Window: "60s", MaxRequests: 100},
		Stream:     StreamConfig{PingInterval: "30s"},
	}
}

// Load reads the configuration from path. An empty path returns the defaults.
// A named file that does not exist is an error: a misspelled config path
// should fail loudly rather than silently run with defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
	if c.Instance == "" {
		c.Instance = def.Instance
	}
	if c.RateLimit.Window == "" {
		c.RateLimit.Window = def.RateLimit.Window
	}
	if c.RateLimit.MaxRequests == 0 {
		c.RateLimit.MaxRequests = def.RateLimit.MaxRequests
	}
	if c.Stream.PingInterval == "" {
		c.Stream.PingInterval = def.Stream.PingInterval
	}
}

// Validate performs strict validation on the configuration.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.RateLimit.Window); err != nil {
		return fmt.Errorf("rate_limit.window: %w", err)
	}
	if c.RateLimit.MaxRequests < 1 {
		return fmt.Errorf("rate_limit.max_requests must be >= 1, got %d", c.RateLimit.MaxRequests)
	}
	if _, err := time.ParseDuration(c.Stream.PingInterval); err != nil {
		return fmt.Errorf("stream.ping_interval: %w", err)
	}
	return nil
}

// RateLimitWindow returns the parsed limiter window. Validate must have
// passed for the result to be meaningful.
func (c *Config) RateLimitWindow() time.Duration {
	d, err := time.ParseDuration(c.RateLimit.Window)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// PingInterval returns the parsed keep-alive cadence for streaming
// connections.
func (c *Config) PingInterval() time.Duration {
	d, err := time.ParseDuration(c.Stream.PingInterval)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
