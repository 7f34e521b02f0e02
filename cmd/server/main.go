package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/vibedtracker/internal/logging"
	"github.com/dmitrijs2005/vibedtracker/internal/server"
	"github.com/dmitrijs2005/vibedtracker/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	if len(os.Args) > 1 && os.Args[1] == server.TokenCommand {
		if err := server.MintToken(cfg, os.Args[2:], os.Stdout); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
