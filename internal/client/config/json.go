package config

import (
	"encoding/json"
	"os"

	"github.com/olegsv/lumacli/internal/flagx"
	"github.com/olegsv/lumacli/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "3s"
// or as integer nanoseconds. After parsing, set values are copied into the
// runtime Config.
type JsonConfig struct {
	ServerBaseURL       string          `json:"server_base_url"`
	DatabaseDSN         string          `json:"database_dsn"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	HealthCheckInterval *timex.Duration `json:"health_check_interval"`
	LogLevel            string          `json:"log_level"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c or -config flag; when neither is given, no JSON is
// loaded. Read or unmarshal errors panic (caller may recover); a config file
// that was explicitly requested but is broken should not be half-applied.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerBaseURL != "" {
		cfg.ServerBaseURL = jc.ServerBaseURL
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.HealthCheckInterval != nil {
		cfg.HealthCheckInterval = jc.HealthCheckInterval.Duration
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
}
