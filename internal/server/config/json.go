package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/vibedtracker/internal/flagx"
	"github.com/dmitrijs2005/vibedtracker/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations accept "1s" strings
// or integer nanoseconds.
type JsonConfig struct {
	ListenAddr            string         `json:"listen_addr"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	Storage               string         `json:"storage"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	ShutdownTimeout       timex.Duration `json:"shutdown_timeout"`
	LogLevel              string         `json:"log_level"`
	RateLimit             *float64       `json:"rate_limit"`
	RateBurst             int            `json:"rate_burst"`
}

// parseJson loads the JSON file named by -c/-config into config. Keys absent
// from the file keep their previous values. Read or decode errors panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&config.ListenAddr, c.ListenAddr)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.SecretKey, c.SecretKey)
	set(&config.Storage, c.Storage)
	set(&config.LogLevel, c.LogLevel)
	if c.TokenValidityDuration.Duration > 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.ShutdownTimeout.Duration > 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	// rate_limit may be 0 to switch limiting off
	if c.RateLimit != nil {
		config.RateLimit = *c.RateLimit
	}
	if c.RateBurst > 0 {
		config.RateBurst = c.RateBurst
	}
}
