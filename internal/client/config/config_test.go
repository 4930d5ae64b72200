package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8000", c.ServerBaseURL)
	assert.Equal(t, "luma.db", c.DatabaseDSN)
	assert.Equal(t, 12*time.Second, c.RequestTimeout)
	assert.Equal(t, 30*time.Second, c.HealthCheckInterval)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://127.0.0.1:8000", cfg.ServerBaseURL)
	assert.Equal(t, 30*time.Second, cfg.HealthCheckInterval)
}

func TestParseEnv_Overlays(t *testing.T) {
	t.Setenv("LUMA_SERVER_URL", "https://api.luma.example")
	t.Setenv("LUMA_LOG_LEVEL", "debug")
	t.Setenv("LUMA_REQUEST_TIMEOUT", "7s")

	var cfg Config
	cfg.LoadDefaults()
	parseEnv(&cfg)

	assert.Equal(t, "https://api.luma.example", cfg.ServerBaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 7*time.Second, cfg.RequestTimeout)
	// Untouched fields keep their defaults.
	assert.Equal(t, "luma.db", cfg.DatabaseDSN)
}

func TestParseEnv_IgnoresUnparseableDuration(t *testing.T) {
	t.Setenv("LUMA_REQUEST_TIMEOUT", "whenever")

	var cfg Config
	cfg.LoadDefaults()
	parseEnv(&cfg)

	assert.Equal(t, 12*time.Second, cfg.RequestTimeout)
}
