package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/ticketvault/internal/buildinfo"
	"github.com/dmitrijs2005/ticketvault/internal/logging"
	"github.com/dmitrijs2005/ticketvault/internal/server"
	"github.com/dmitrijs2005/ticketvault/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewJSON(os.Stdout, logging.ParseLevel(cfg.LogLevel))
	logger.Info(ctx, "ticketvault server", "version", buildinfo.Version, "commit", buildinfo.Commit, "date", buildinfo.Date)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "init failed", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "server stopped with error", "error", err)
		os.Exit(1)
	}
}
