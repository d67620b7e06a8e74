package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/facegate/internal/app"
	"github.com/dmitrijs2005/facegate/internal/config"
	"github.com/dmitrijs2005/facegate/internal/landmark"
	"github.com/dmitrijs2005/facegate/internal/logging"
	"github.com/joho/godotenv"
)

func main() {

	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)
	source := landmark.NewHTTPSource(cfg.DetectorURL, cfg.DetectorTimeout)

	a, err := app.NewApp(ctx, cfg, source, os.Stdin, os.Stdout, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}

	a.Run(ctx)

}
