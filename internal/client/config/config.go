package config

import (
	"time"

	"github.com/dmitrijs2005/prestigeforum/internal/client/blob"
	"github.com/dmitrijs2005/prestigeforum/internal/client/mailer"
)

// Config holds runtime settings for the forum client.
//
// Fields:
//   - Mode: account store variant, "local" (offline/debug) or "remote".
//   - DBPath: SQLite profile database. Holds local accounts and the cached
//     remote session token.
//   - ServerEndpointAddr, ServiceKey, CallTimeout: remote data service.
//   - SessionTTL: lifetime of remote sessions.
//   - OnlineCheckInterval: how often the remote data service is pinged.
//   - AdminEmails: emails created as admins by the local store.
//   - WalletBridgeURL, WalletConnectTimeout: wallet extension bridge.
//   - Blob, SMTP: avatar storage and welcome email; both optional.
type Config struct {
	Mode                 string
	DBPath               string
	ServerEndpointAddr   string
	ServiceKey           string
	CallTimeout          time.Duration
	SessionTTL           time.Duration
	OnlineCheckInterval  time.Duration
	AdminEmails          []string
	WalletBridgeURL      string
	WalletConnectTimeout time.Duration
	LogLevel             string
	Blob                 blob.Config
	SMTP                 mailer.Config
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Mode = "local"
	c.DBPath = "forum.db"
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.CallTimeout = 10 * time.Second
	c.SessionTTL = 30 * 24 * time.Hour
	c.OnlineCheckInterval = 30 * time.Second
	c.WalletBridgeURL = "ws://127.0.0.1:9797/wallet"
	c.WalletConnectTimeout = 30 * time.Second
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
