package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Flags override the environment
	flag.StringVar(&cfg.Server.Port, "port", cfg.Server.Port, "HTTP port")
	flag.StringVar(&cfg.Server.Host, "host", cfg.Server.Host, "HTTP host")
	flag.StringVar(&cfg.Desktop.ManifestPath, "manifest", cfg.Desktop.ManifestPath, "Application manifest (.yaml, .toml or .json)")
	flag.StringVar(&cfg.Storage.Backend, "storage", cfg.Storage.Backend, "Layout storage backend: memory, file or sqlite")
	flag.StringVar(&cfg.Storage.Path, "storage-path", cfg.Storage.Path, "Layout storage directory or database file")
	flag.BoolVar(&cfg.Logging.Development, "dev", cfg.Logging.Development, "Development logging")
	flag.Parse()

	logger := logging.NewFromLevel(cfg.Logging.Level, cfg.Logging.Development)

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}
