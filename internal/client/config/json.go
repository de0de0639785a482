package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/prestigeforum/internal/client/blob"
	"github.com/dmitrijs2005/prestigeforum/internal/client/mailer"
	"github.com/dmitrijs2005/prestigeforum/internal/flagx"
	"github.com/dmitrijs2005/prestigeforum/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	Mode                 string         `json:"mode"`
	DBPath               string         `json:"db_path"`
	ServerEndpointAddr   string         `json:"server_endpoint_addr"`
	ServiceKey           string         `json:"service_key"`
	CallTimeout          timex.Duration `json:"call_timeout"`
	SessionTTL           timex.Duration `json:"session_ttl"`
	OnlineCheckInterval  timex.Duration `json:"online_check_interval"`
	AdminEmails          []string       `json:"admin_emails"`
	WalletBridgeURL      string         `json:"wallet_bridge_url"`
	WalletConnectTimeout timex.Duration `json:"wallet_connect_timeout"`
	LogLevel             string         `json:"log_level"`
	Blob                 *blob.Config   `json:"blob"`
	SMTP                 *mailer.Config `json:"smtp"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays Config with the fields present in the JSON file named
// by -c or -config. It panics on read or unmarshal errors.
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

	setString(&cfg.Mode, jc.Mode)
	setString(&cfg.DBPath, jc.DBPath)
	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.ServiceKey, jc.ServiceKey)
	setString(&cfg.WalletBridgeURL, jc.WalletBridgeURL)
	setString(&cfg.LogLevel, jc.LogLevel)

	if jc.CallTimeout.Duration > 0 {
		cfg.CallTimeout = jc.CallTimeout.Duration
	}
	if jc.SessionTTL.Duration > 0 {
		cfg.SessionTTL = jc.SessionTTL.Duration
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.WalletConnectTimeout.Duration > 0 {
		cfg.WalletConnectTimeout = jc.WalletConnectTimeout.Duration
	}
	if jc.AdminEmails != nil {
		cfg.AdminEmails = jc.AdminEmails
	}
	if jc.Blob != nil {
		cfg.Blob = *jc.Blob
	}
	if jc.SMTP != nil {
		cfg.SMTP = *jc.SMTP
	}
}
