package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/prestigeforum/internal/buildinfo"
	"github.com/dmitrijs2005/prestigeforum/internal/flagx"
	"github.com/dmitrijs2005/prestigeforum/internal/logging"
	"github.com/dmitrijs2005/prestigeforum/internal/server"
	"github.com/dmitrijs2005/prestigeforum/internal/server/auth"
	"github.com/dmitrijs2005/prestigeforum/internal/server/config"
)

// mintKeyRole returns the role given with -mint-key, or "".
func mintKeyRole() string {
	var role string
	fs := flag.NewFlagSet("mint", flag.ContinueOnError)
	fs.StringVar(&role, "mint-key", "", "print a service key for the given role (service or admin) and exit")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-mint-key"}))
	return role
}

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	if role := mintKeyRole(); role != "" {
		key, err := auth.GenerateToken(role, []byte(cfg.SecretKey), cfg.ServiceKeyValidity)
		if err != nil {
			log.Fatalf("mint key for role %q: %v", role, err)
		}
		fmt.Println(key)
		return
	}

	buildinfo.PrintBuildData(os.Stdout)

	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel)
	app, err := server.NewApp(ctx, cfg, logger)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
