package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"chatrelay/config"
	"chatrelay/internal/di"
	"chatrelay/internal/logging"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (yaml, json or toml)")
	flag.Parse()

	// .env is optional outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := di.InitializeApp(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := app.Migrate(ctx); err != nil {
		return err
	}

	logger.Info("starting chatrelay",
		zap.String("http", cfg.HTTPAddress),
		zap.String("ops", cfg.OpsAddress),
		zap.String("presence", cfg.Presence.Backend),
	)
	return app.Run(ctx)
}
