package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/olegsv/lumacli/internal/client/cli"
	"github.com/olegsv/lumacli/internal/client/config"
	"github.com/olegsv/lumacli/internal/logging"
)

func main() {
	cfg := config.LoadConfig()
	logger := logging.NewTextLogger(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		logger.Error(ctx, "failed to start", "error", err)
		os.Exit(1)
	}

	app.Run(ctx)
}
