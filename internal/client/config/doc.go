// Package config loads runtime configuration for the VibedTracker CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config. A .toml file is read
//     as TOML, anything else as JSON.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   server base URL
//	-t string   bearer token
//	-d string   local state database path
//	-l string   log level
//	-r int      request timeout (seconds)
//
// # File schema
//
// Durations use timex.Duration, so "10s" and integer nanoseconds both work:
//
//	{
//	  "server_url": "https://tracker.example.org/web/api",
//	  "auth_token": "eyJhbGciOi...",
//	  "database_path": "/home/me/.vibedtracker.db",
//	  "request_timeout": "10s",
//	  "log_level": "info",
//	  "backup": {"s3_bucket": "backups", "s3_endpoint": "http://127.0.0.1:9000"}
//	}
//
// The same keys work in TOML, with backup settings under a [backup] table.
//
// Key material is never part of the configuration.
package config
