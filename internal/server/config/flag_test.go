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
			"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret", "-m", ":9100", "-v", "7", "-l", "debug",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddrGRPC:   "127.0.0.1:9090",
				DatabaseDSN:        "db",
				SecretKey:          "secret",
				MetricsAddr:        ":9100",
				ServiceKeyValidity: 7 * 24 * time.Hour,
				LogLevel:           "debug",
			}},
		{name: "foreign flags ignored", args: []string{"cmd", "-mint-key", "member", "-a", ":1"},
			expected: &Config{EndpointAddrGRPC: ":1"}},
		{name: "bad validity", args: []string{"cmd", "-v", "week"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
