package route

import (
	"net/http"

	"guardcam/internal/config"
	"guardcam/internal/handler"
	"guardcam/internal/logger"
	"guardcam/internal/repository"
	ws "guardcam/internal/service/websocket"
)

// SetupRoutes registers the alarm viewer endpoints.
func SetupRoutes(cfg *config.Config, logger *logger.Logger, hub *ws.HubService,
	alarmRepo repository.AlarmRepository, detectionRepo repository.DetectionRepository) http.Handler {
	mux := http.NewServeMux()

	// Live alarms
	mux.HandleFunc("/api/alarms", handler.AlarmStreamHandler(hub, logger))

	// Alarm log
	mux.HandleFunc("/api/alarms/history", handler.AlarmHistoryHandler(cfg, logger, alarmRepo, detectionRepo))
	mux.HandleFunc("/api/alarms/stats", handler.AlarmStatsHandler(logger, alarmRepo))
	mux.HandleFunc("/api/alarms/snapshot", handler.AlarmSnapshotHandler(cfg, logger, alarmRepo))
	mux.HandleFunc("/api/alarms/delete", handler.DeleteAlarmHandler(logger, alarmRepo))

	mux.HandleFunc("/logs/", handler.LogsHandler(cfg))

	return mux
}
