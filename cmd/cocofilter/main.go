package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"

	"guardcam/internal/app"
	"guardcam/internal/coco"
	"guardcam/internal/config"
	"guardcam/internal/logger"
)

func main() {
	cfg := config.Load()
	appLogger := logger.NewLogger(cfg.LogDirectory)
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := app.BuildDataset(ctx, cfg, appLogger, nil, os.Stdout)
	switch {
	case err == nil:
		pterm.Success.Println("Dataset ready in " + cfg.DatasetDir)
	case errors.Is(err, coco.ErrNoCategories), errors.Is(err, coco.ErrNoImages):
		os.Exit(1)
	default:
		appLogger.Error("Dataset build failed: %v", err)
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
}
