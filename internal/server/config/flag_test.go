package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret", "-m", "postgres", "-v", "2", "-l", "debug",
		}, expected: &Config{
			ListenAddr:            "127.0.0.1:9090",
			DatabaseDSN:           "db",
			SecretKey:             "secret",
			Storage:               "postgres",
			TokenValidityDuration: 2 * time.Hour,
			LogLevel:              "debug",
		}},
		{name: "sub-command flags are ignored", args: []string{"cmd", "token", "-u", "alice", "-s", "k"},
			expected: &Config{SecretKey: "k"}},
		{name: "bad int", args: []string{"cmd", "-v", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
