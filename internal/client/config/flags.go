package config

import (
	"flag"
	"os"
	"time"

	"github.com/olegsv/lumacli/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-s string   base URL of the backend server (default from Config)
//	-d string   local database path/DSN (default from Config)
//	-t int      request timeout in seconds (default from Config)
//	-i int      health check interval in seconds (default from Config)
//	-l string   log level (default from Config)
//
// The function filters os.Args down to the flags it owns, using
// flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-s", "-d", "-t", "-i", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerBaseURL, "s", cfg.ServerBaseURL, "base URL of the backend server")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "local database path")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	healthInterval := fs.Int("i", int(cfg.HealthCheckInterval.Seconds()), "health check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
	cfg.HealthCheckInterval = time.Duration(*healthInterval) * time.Second
}
