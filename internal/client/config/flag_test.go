package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_parseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("overrides from flags", func(t *testing.T) {
		os.Args = []string{"testbin", "-s", "https://api.example", "-d", "other.db", "-t", "20", "-i", "5", "-l", "debug"}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFlags(cfg)

		assert.Equal(t, "https://api.example", cfg.ServerBaseURL)
		assert.Equal(t, "other.db", cfg.DatabaseDSN)
		assert.Equal(t, 20*time.Second, cfg.RequestTimeout)
		assert.Equal(t, 5*time.Second, cfg.HealthCheckInterval)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("no flags keeps defaults", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFlags(cfg)

		assert.Equal(t, "http://127.0.0.1:8000", cfg.ServerBaseURL)
		assert.Equal(t, 12*time.Second, cfg.RequestTimeout)
	})

	t.Run("foreign flags are ignored", func(t *testing.T) {
		os.Args = []string{"testbin", "-x", "1", "-s", "https://kept.example"}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFlags(cfg)

		assert.Equal(t, "https://kept.example", cfg.ServerBaseURL)
	})
}
