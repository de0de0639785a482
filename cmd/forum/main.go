package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/prestigeforum/internal/buildinfo"
	"github.com/dmitrijs2005/prestigeforum/internal/client/cli"
	"github.com/dmitrijs2005/prestigeforum/internal/client/config"
	"github.com/dmitrijs2005/prestigeforum/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	// The REPL owns stdout; logs go to stderr.
	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
