package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "local", c.Mode)
	assert.Equal(t, "forum.db", c.DBPath)
	assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
	assert.Equal(t, 30*time.Second, c.WalletConnectTimeout)
	assert.Equal(t, 30*24*time.Hour, c.SessionTTL)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"forum"}

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "127.0.0.1:50051", cfg.ServerEndpointAddr)
	assert.Equal(t, "local", cfg.Mode)
}

func TestLoadConfig_FlagsOverrideJSON(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{"mode": "remote", "db_path": "json.db"})
	os.Args = []string{"forum", "-c", path, "-d", "flag.db"}

	cfg := LoadConfig()
	assert.Equal(t, "remote", cfg.Mode)
	assert.Equal(t, "flag.db", cfg.DBPath)
}
