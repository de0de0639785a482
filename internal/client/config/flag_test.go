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
		{
			name: "all flags",
			args: []string{"cmd", "-m", "remote", "-d", "p.db", "-a", "127.0.0.1:9090", "-k", "key",
				"-w", "ws://localhost:1/w", "-t", "10", "-l", "debug"},
			expected: &Config{
				Mode: "remote", DBPath: "p.db", ServerEndpointAddr: "127.0.0.1:9090", ServiceKey: "key",
				WalletBridgeURL: "ws://localhost:1/w", WalletConnectTimeout: 10 * time.Second, LogLevel: "debug",
			},
		},
		{
			name:     "config flag is ignored",
			args:     []string{"cmd", "-c", "forum.json", "-m", "local"},
			expected: &Config{Mode: "local"},
		},
		{name: "incorrect timeout", args: []string{"cmd", "-t", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(tt.expected, config))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
