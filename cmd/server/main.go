package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/Dashboard/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/Dashboard/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/Dashboard/backend/internal/infrastructure/server"
)

func main() {
	// The server builds its own logger from cfg; this one covers startup
	// and shutdown
	boot := logging.NewDefault()
	defer boot.Close()

	cfg, err := config.Load()
	if err != nil {
		boot.Warn("Invalid configuration, using defaults", zap.Error(err))
		cfg = config.Default()
	}

	// Flags override env vars
	port := flag.String("port", cfg.Server.Port, "Server port")
	seedDir := flag.String("seed", cfg.Storage.SeedDir, "Directory of layouts to seed (empty disables seeding)")
	backend := flag.String("storage", cfg.Storage.Backend, "Storage backend: memory, buntdb or redis")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development mode (console logs, debug level)")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Storage.SeedDir = *seedDir
	cfg.Storage.Backend = *backend
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(ctx, cfg)
	if err != nil {
		boot.Fatal("Failed to create server", zap.Error(err))
	}

	runErr := srv.Run(ctx)
	if err := srv.Close(); err != nil {
		boot.Error("Error during shutdown", zap.Error(err))
	}
	if runErr != nil {
		boot.Fatal("Server error", zap.Error(runErr))
	}
}
