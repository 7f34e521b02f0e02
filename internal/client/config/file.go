package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dmitrijs2005/vibedtracker/internal/flagx"
	"github.com/dmitrijs2005/vibedtracker/internal/timex"
)

// fileConfig is the on-disk shape shared by the JSON and TOML loaders.
type fileConfig struct {
	ServerURL      string         `json:"server_url" toml:"server_url"`
	AuthToken      string         `json:"auth_token" toml:"auth_token"`
	DatabasePath   string         `json:"database_path" toml:"database_path"`
	RequestTimeout timex.Duration `json:"request_timeout" toml:"request_timeout"`
	LogLevel       string         `json:"log_level" toml:"log_level"`
	Backup         struct {
		Dir         string `json:"dir" toml:"dir"`
		S3Bucket    string `json:"s3_bucket" toml:"s3_bucket"`
		S3Region    string `json:"s3_region" toml:"s3_region"`
		S3Endpoint  string `json:"s3_endpoint" toml:"s3_endpoint"`
		S3AccessKey string `json:"s3_access_key" toml:"s3_access_key"`
		S3SecretKey string `json:"s3_secret_key" toml:"s3_secret_key"`
		S3Prefix    string `json:"s3_prefix" toml:"s3_prefix"`
	} `json:"backup" toml:"backup"`
}

// parseFile overlays Config with the file named by -c/-config. Files ending
// in .toml are decoded as TOML, everything else as JSON. Only keys present
// in the file override earlier values. Read and decode errors panic, like
// flag errors.
func parseFile(cfg *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc fileConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &fc); err != nil {
			panic(err)
		}
	} else if err := json.Unmarshal(data, &fc); err != nil {
		panic(err)
	}

	fc.apply(cfg)
}

func (fc *fileConfig) apply(cfg *Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	set(&cfg.ServerURL, fc.ServerURL)
	set(&cfg.AuthToken, fc.AuthToken)
	set(&cfg.DatabasePath, fc.DatabasePath)
	set(&cfg.LogLevel, fc.LogLevel)
	if fc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}

	set(&cfg.Backup.Dir, fc.Backup.Dir)
	set(&cfg.Backup.S3Bucket, fc.Backup.S3Bucket)
	set(&cfg.Backup.S3Region, fc.Backup.S3Region)
	set(&cfg.Backup.S3Endpoint, fc.Backup.S3Endpoint)
	set(&cfg.Backup.S3AccessKey, fc.Backup.S3AccessKey)
	set(&cfg.Backup.S3SecretKey, fc.Backup.S3SecretKey)
	set(&cfg.Backup.S3Prefix, fc.Backup.S3Prefix)
}
