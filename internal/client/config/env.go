package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with LUMA_* environment variables. A .env file in
// the working directory is loaded first when present; its absence is not an
// error. Durations accept time.ParseDuration syntax; unparseable values are
// ignored so a broken environment cannot brick startup.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("LUMA_SERVER_URL"); v != "" {
		cfg.ServerBaseURL = v
	}
	if v := os.Getenv("LUMA_DB_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("LUMA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LUMA_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
	if v := os.Getenv("LUMA_HEALTH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HealthCheckInterval = d
		}
	}
}
