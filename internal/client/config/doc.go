// Package config loads runtime configuration for the Luma CLI client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. LUMA_* environment variables, including a .env file in the working
//     directory when present (see parseEnv).
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-s string   base URL of the backend server
//	-d string   local database path/DSN
//	-t int      request timeout (seconds)
//	-i int      health check interval (seconds)
//	-l string   log level
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_base_url": "https://api.luma.example",
//	  "database_dsn": "luma.db",
//	  "request_timeout": "12s",
//	  "health_check_interval": "30s",
//	  "log_level": "info"
//	}
package config
