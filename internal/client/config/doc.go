// Package config loads runtime configuration for the forum client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-m string   account store mode: local or remote
//	-d string   path of the SQLite profile database
//	-a string   address:port of the data service
//	-k string   data service key
//	-w string   wallet bridge websocket URL
//	-t int      wallet connect timeout (seconds)
//	-l string   log level: debug, info, warn, error
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "30s" or
// integer nanoseconds. Fields left out keep their earlier value.
//
//	{
//	  "mode": "remote",
//	  "db_path": "alice.db",
//	  "server_endpoint_addr": "forum.example.com:50051",
//	  "service_key": "eyJhbGciOi...",
//	  "call_timeout": "10s",
//	  "session_ttl": "720h",
//	  "online_check_interval": "30s",
//	  "admin_emails": ["root@forum.dev"],
//	  "wallet_bridge_url": "ws://127.0.0.1:9797/wallet",
//	  "wallet_connect_timeout": "30s",
//	  "log_level": "info",
//	  "blob": {"endpoint": "http://127.0.0.1:9000", "bucket": "forum", "region": "us-east-1"},
//	  "smtp": {"host": "smtp.example.com", "port": "587", "from": "noreply@forum.dev"}
//	}
package config
