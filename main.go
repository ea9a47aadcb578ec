package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"hostpool/internal/config"
	"hostpool/internal/server"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("hostpool starting",
		zap.String("version", version),
		zap.String("inventory", cfg.Backend.Inventory),
		zap.String("driver", cfg.Backend.Driver))

	if err := server.Start(cfg, version, logger); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}
