package handler

import (
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"guardcam/internal/config"
	"guardcam/internal/dto"
	"guardcam/internal/logger"
	"guardcam/internal/repository"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultHistoryLimit = 50

// AlarmHistoryHandler lists stored alarms, newest first. Supported query
// parameters: camera, label, after, before (2006-01-02) and limit.
func AlarmHistoryHandler(cfg *config.Config, logger *logger.Logger,
	alarmRepo repository.AlarmRepository, detectionRepo repository.DetectionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := &dto.AlarmFilters{
			Camera: q.Get("camera"),
			Label:  q.Get("label"),
			After:  parseDate(q.Get("after")),
			Before: endOfDay(parseDate(q.Get("before"))),
			Limit:  atoiDefault(q.Get("limit"), defaultHistoryLimit),
		}

		alarms, err := alarmRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying alarms from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalCount, err := alarmRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting alarms: %v", err)
			totalCount = len(alarms)
		}

		infos := make([]dto.AlarmInfo, 0, len(alarms))
		for _, a := range alarms {
			labels, err := detectionRepo.GetLabelsByAlarmID(a.ID)
			if err != nil {
				logger.Error("Error getting labels for alarm %d: %v", a.ID, err)
				labels = []string{}
			}
			infos = append(infos, dto.AlarmInfo{
				ID:        a.ID,
				EventID:   a.EventID,
				Camera:    a.Camera,
				Frame:     a.Frame,
				Timestamp: a.Timestamp,
				Filename:  a.Filename,
				Labels:    labels,
			})
		}

		writeJSON(w, logger, dto.AlarmsData{
			Alarms:      infos,
			SnapshotDir: cfg.SnapshotDir,
			Length:      totalCount,
			Limit:       filter.Limit,
		})
	}
}

// AlarmStatsHandler returns alarm totals per camera and per label.
func AlarmStatsHandler(logger *logger.Logger, alarmRepo repository.AlarmRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := alarmRepo.GetStats()
		if err != nil {
			logger.Error("Error reading alarm stats: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, stats)
	}
}

// AlarmSnapshotHandler serves the snapshot of the alarm given by "id".
func AlarmSnapshotHandler(cfg *config.Config, logger *logger.Logger, alarmRepo repository.AlarmRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil {
			http.Error(w, "id parameter is required", http.StatusBadRequest)
			return
		}

		alarm, err := alarmRepo.GetByID(id)
		if err != nil {
			logger.Error("Error loading alarm %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if alarm == nil {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filepath.Join(cfg.SnapshotDir, filepath.Base(alarm.Filename)))
	}
}

// DeleteAlarmHandler removes an alarm record. The snapshot file is kept.
func DeleteAlarmHandler(logger *logger.Logger, alarmRepo repository.AlarmRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			w.Header().Set("Allow", "POST, DELETE")
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil {
			http.Error(w, "id parameter is required", http.StatusBadRequest)
			return
		}

		if err := alarmRepo.Delete(id); err != nil {
			logger.Error("Failed to delete alarm %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("Deleted alarm: %d", id)
		writeJSON(w, logger, map[string]interface{}{"status": "deleted", "id": id})
	}
}

func writeJSON(w http.ResponseWriter, logger *logger.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// endOfDay makes a before date inclusive of the whole day.
func endOfDay(day time.Time) time.Time {
	if day.IsZero() {
		return day
	}
	return day.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// parseDate parses an HTML date input value; anything else is the zero time.
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}
