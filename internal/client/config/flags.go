package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/prestigeforum/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
// os.Args is filtered with flagx.FilterArgs so flags owned by other loaders
// (-c/-config) do not break parsing.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-m", "-d", "-a", "-k", "-w", "-t", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Mode, "m", cfg.Mode, "account store mode: local or remote")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "path of the SQLite profile database")
	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the data service")
	fs.StringVar(&cfg.ServiceKey, "k", cfg.ServiceKey, "data service key")
	fs.StringVar(&cfg.WalletBridgeURL, "w", cfg.WalletBridgeURL, "wallet bridge websocket URL")
	walletTimeout := fs.Int("t", int(cfg.WalletConnectTimeout.Seconds()), "wallet connect timeout (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.WalletConnectTimeout = time.Duration(*walletTimeout) * time.Second
}
