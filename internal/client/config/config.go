package config

import "time"

// Config holds runtime settings for the Luma CLI client.
//
// Fields:
//   - ServerBaseURL: base URL of the backend REST API.
//   - DatabaseDSN: path/DSN of the local sqlite credential database.
//   - RequestTimeout: per-request budget for API calls (health probes keep
//     their own, shorter budget).
//   - HealthCheckInterval: how often the client probes server reachability.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	ServerBaseURL       string
	DatabaseDSN         string
	RequestTimeout      time.Duration
	HealthCheckInterval time.Duration
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8000"
	c.DatabaseDSN = "luma.db"
	c.RequestTimeout = 12 * time.Second
	c.HealthCheckInterval = 30 * time.Second
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the environment (including a .env file, if present), a JSON file and
// command-line flags. Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
