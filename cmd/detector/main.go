package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"guardcam/internal/app"
	"guardcam/internal/config"
	"guardcam/internal/logger"
)

func main() {
	cfg := config.Load()
	appLogger := logger.NewLogger(cfg.LogDirectory)
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to start detector: %v", err)
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil {
		appLogger.Error("Detector stopped with error: %v", err)
		os.Exit(1)
	}
}
