package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	"guardcam/internal/config"
	"guardcam/internal/logger"
	"guardcam/internal/repository/sqlite"
	"guardcam/internal/route"
	"guardcam/internal/service/ai"
	"guardcam/internal/service/alarm"
	"guardcam/internal/service/capture"
	"guardcam/internal/service/policy"
	"guardcam/internal/service/storage"
	"guardcam/internal/service/websocket"
)

// App is the live detector: webcam, model, window and alarm handlers.
type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	detector   *ai.DetectorService
	source     capture.FrameSource
	display    capture.Display
	dispatcher *alarm.Dispatcher
	buffer     *storage.BufferService
	hub        *websocket.HubService
	loop       *capture.Loop
}

func NewApp(cfg *config.Config, logger *logger.Logger) (*App, error) {
	a := &App{config: cfg, logger: logger}

	detector, err := ai.NewDetectorService(cfg.Inference, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load model")
	}
	a.detector = detector

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.db = db
	alarmRepo := sqlite.NewAlarmRepository(db)
	detectionRepo := sqlite.NewDetectionRepository(db)

	var handlers []alarm.Handler
	if player, err := alarm.NewSoundPlayer(cfg.AlarmSound, cfg.AlarmPlayer, logger); err != nil {
		logger.Warning("⚠️  Alarm sound disabled: %v", err)
	} else {
		handlers = append(handlers, player)
	}

	a.buffer = storage.NewBufferService(cfg, logger, alarmRepo, detectionRepo)
	handlers = append(handlers, a.buffer)

	if cfg.AlarmWSPort > 0 {
		a.hub = websocket.NewHubService(logger)
		handlers = append(handlers, a.hub)
	}

	a.dispatcher = alarm.NewDispatcher(cfg.AlarmQueueSize, logger, handlers...)

	source, err := capture.OpenWebcam(cfg.CameraDevice)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.source = source
	a.display = capture.NewWindow(cfg.WindowTitle)

	a.loop = capture.NewLoop(cfg.CameraName, a.source, a.detector, policy.New(cfg.Policy), a.display, a.dispatcher, logger)
	return a, nil
}

// Run blocks in the capture loop until it ends, then stops the background
// services and waits for queued alarms to be handled.
func (a *App) Run(ctx context.Context) error {
	bgCtx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	// Start background services
	a.dispatcher.Start(bgCtx)
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.buffer.Run(bgCtx)
	}()

	var server *http.Server
	if a.hub != nil {
		go a.hub.Run(bgCtx)

		router := route.SetupRoutes(a.config, a.logger, a.hub, sqlite.NewAlarmRepository(a.db), sqlite.NewDetectionRepository(a.db))
		server = &http.Server{
			Addr:              fmt.Sprintf(":%d", a.config.AlarmWSPort),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("Alarm viewer server failed: %v", err)
			}
		}()
	}

	fmt.Printf("🚀 Guardcam detector\n")
	fmt.Printf("📷 Camera: %s (device %d)\n", a.config.CameraName, a.config.CameraDevice)
	fmt.Printf("🤖 AI Model: %s\n", a.config.Inference.ModelPath)
	fmt.Printf("📁 Snapshots: %s\n", a.config.SnapshotDir)
	if server != nil {
		fmt.Printf("📍 Alarms: ws://localhost:%d/api/alarms\n", a.config.AlarmWSPort)
	}
	fmt.Printf("Press 'q' in the %q window to quit\n", a.config.WindowTitle)

	stats, runErr := a.loop.Run(ctx)

	// Drain alarms before stopping the buffer so the last snapshots get flushed.
	a.dispatcher.Close()
	if server != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		server.Shutdown(shutdownCtx)
		done()
	}
	cancel()
	wg.Wait()

	a.logger.Info("Session: %d frames, %d alarming frames in %s",
		stats.Frames, stats.AlarmFrames, stats.Stopped.Sub(stats.Started).Round(time.Second))
	return runErr
}

// Close releases the camera, window, model and database.
func (a *App) Close() {
	if a.source != nil {
		a.source.Close()
	}
	if a.display != nil {
		a.display.Close()
	}
	if a.detector != nil {
		a.detector.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
