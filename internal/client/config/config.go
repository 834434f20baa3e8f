// Package config loads settings for the roomctl operator CLI: defaults, then
// an optional JSON file (-c/-config), then command-line flags.
package config

import "time"

// Config holds runtime settings for roomctl.
type Config struct {
	ServerURL      string
	HealthAddr     string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with defaults matching a local server.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.HealthAddr = "127.0.0.1:50051"
	c.RequestTimeout = 12 * time.Second
}

// LoadConfig builds a Config from defaults, JSON and flags, later sources
// taking precedence.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
