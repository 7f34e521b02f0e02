package config

import "time"

// Config holds runtime settings for the VibedTracker CLI.
type Config struct {
	// ServerURL is the base URL of the JSON API, e.g. http://127.0.0.1:8080.
	ServerURL string
	// AuthToken is sent as a bearer token when non-empty.
	AuthToken string
	// DatabasePath is the SQLite file holding non-secret client state.
	DatabasePath   string
	RequestTimeout time.Duration
	LogLevel       string
	Backup         BackupConfig
}

// BackupConfig selects where encrypted backups are written. When S3Bucket is
// set, backups go to S3; otherwise they are written under Dir.
type BackupConfig struct {
	Dir         string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Prefix    string
}

// UsesS3 reports whether backups target an S3 bucket.
func (b BackupConfig) UsesS3() bool {
	return b.S3Bucket != ""
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DatabasePath = "vibedtracker.db"
	c.RequestTimeout = 10 * time.Second
	c.LogLevel = "info"
	c.Backup = BackupConfig{
		Dir:      "backups",
		S3Region: "us-east-1",
		S3Prefix: "vibedtracker/",
	}
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the config file (if given) and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
