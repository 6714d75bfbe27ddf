package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"guardcam/internal/config"
	"guardcam/internal/dto"
	"guardcam/internal/logger"
	"guardcam/internal/model"
	"guardcam/internal/repository"
)

const timestampLayout = "2006-01-02_15-04-05.000"

// BufferService buffers alarm snapshots in memory and periodically flushes
// them to disk and the alarm log.
type BufferService struct {
	snapshotDir   string
	limit         int
	flushInterval time.Duration
	snapshots     []dto.BufferedSnapshot
	bufferCount   map[string]int
	mu            sync.Mutex
	logger        *logger.Logger
	alarmRepo     repository.AlarmRepository
	detectionRepo repository.DetectionRepository
}

// NewBufferService creates a BufferService. The repositories may be nil, in
// which case only the image files are written.
func NewBufferService(cfg *config.Config, logger *logger.Logger, alarmRepo repository.AlarmRepository, detectionRepo repository.DetectionRepository) *BufferService {
	return &BufferService{
		snapshotDir:   cfg.SnapshotDir,
		limit:         cfg.SnapshotLimit,
		flushInterval: time.Duration(cfg.SnapshotFlush) * time.Second,
		snapshots:     make([]dto.BufferedSnapshot, 0),
		bufferCount:   make(map[string]int),
		logger:        logger,
		alarmRepo:     alarmRepo,
		detectionRepo: detectionRepo,
	}
}

// Run flushes on every tick until ctx is done, then flushes once more.
func (s *BufferService) Run(ctx context.Context) {
	interval := s.flushInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.FlushSnapshots()
		case <-ctx.Done():
			s.FlushSnapshots()
			return
		}
	}
}

// HandleAlarm buffers the snapshot carried by an alarm event.
func (s *BufferService) HandleAlarm(_ context.Context, event dto.AlarmEvent) error {
	if len(event.Snapshot) == 0 {
		return nil
	}
	s.AddSnapshot(event)
	return nil
}

// AddSnapshot appends a snapshot unless the camera already filled its share
// of the buffer since the last flush.
func (s *BufferService) AddSnapshot(event dto.AlarmEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bufferCount[event.Camera] >= s.limit {
		return false
	}

	s.snapshots = append(s.snapshots, dto.BufferedSnapshot{
		EventID:    event.ID,
		Timestamp:  event.Timestamp.Format(timestampLayout),
		Camera:     event.Camera,
		Frame:      event.Frame,
		Detections: event.Detections,
		Data:       event.Snapshot,
	})
	s.bufferCount[event.Camera]++
	s.logger.Info("Buffer size for camera %s: %d/%d", event.Camera, s.bufferCount[event.Camera], s.limit)
	return true
}

// Pending returns the number of buffered snapshots.
func (s *BufferService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

// FlushSnapshots writes buffered snapshots to disk, records them, and resets
// the buffer and per-camera counters. It returns how many were saved.
func (s *BufferService) FlushSnapshots() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.snapshots) == 0 {
		return 0
	}

	if err := os.MkdirAll(s.snapshotDir, 0755); err != nil {
		s.logger.Error("Error creating directory: %v", err)
		return 0
	}

	savedCount := 0
	for _, snap := range s.snapshots {
		filename := snapshotFilename(snap)
		fullpath := filepath.Join(s.snapshotDir, filename)

		if err := os.WriteFile(fullpath, snap.Data, 0644); err != nil {
			s.logger.Error("Error saving snapshot %s: %v", filename, err)
			continue
		}

		if s.alarmRepo != nil {
			s.record(snap, filename, fullpath)
		}

		savedCount++
	}

	s.logger.Info("Flushed %d snapshots to disk", savedCount)
	s.snapshots = s.snapshots[:0]
	s.bufferCount = make(map[string]int)
	return savedCount
}

func (s *BufferService) record(snap dto.BufferedSnapshot, filename, fullpath string) {
	ts, err := time.ParseInLocation(timestampLayout, snap.Timestamp, time.Local)
	if err != nil {
		ts = time.Now()
	}

	alarmID, err := s.alarmRepo.Insert(&model.Alarm{
		EventID:   snap.EventID,
		Camera:    snap.Camera,
		Frame:     snap.Frame,
		Timestamp: ts,
		Filename:  filename,
		FilePath:  fullpath,
		FileSize:  int64(len(snap.Data)),
	})
	if err != nil {
		s.logger.Error("Error saving alarm to database %s: %v", filename, err)
		return
	}

	if s.detectionRepo == nil || len(snap.Detections) == 0 {
		return
	}

	rows := make([]model.AlarmDetection, 0, len(snap.Detections))
	for _, det := range snap.Detections {
		rows = append(rows, model.AlarmDetection{
			AlarmID:    alarmID,
			Label:      det.Label,
			X1:         det.Box.Min.X,
			Y1:         det.Box.Min.Y,
			X2:         det.Box.Max.X,
			Y2:         det.Box.Max.Y,
			Confidence: det.Confidence,
		})
	}
	if err := s.detectionRepo.InsertBatch(rows); err != nil {
		s.logger.Error("Error saving detections to database: %v", err)
	}
}

// labelEscaper keeps labels free of the camera separator.
var labelEscaper = strings.NewReplacer(" ", "-", "_", "-")

// snapshotFilename joins the timestamp, camera and the detected labels.
func snapshotFilename(snap dto.BufferedSnapshot) string {
	labels := make([]string, 0, len(snap.Detections))
	for _, det := range snap.Detections {
		labels = append(labels, labelEscaper.Replace(det.Label))
	}
	return fmt.Sprintf("%s_%s_%s.jpg", snap.Timestamp, snap.Camera, strings.Join(labels, "+"))
}

// ParseSnapshotFilename recovers the timestamp and camera from a name written
// by FlushSnapshots.
func ParseSnapshotFilename(name string) (time.Time, string, error) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if len(base) <= len(timestampLayout)+1 || base[len(timestampLayout)] != '_' {
		return time.Time{}, "", errors.Errorf("unexpected snapshot name %q", name)
	}

	ts, err := time.ParseInLocation(timestampLayout, base[:len(timestampLayout)], time.Local)
	if err != nil {
		return time.Time{}, "", errors.Wrapf(err, "bad timestamp in %q", name)
	}

	rest := base[len(timestampLayout)+1:]
	camera := rest
	if i := strings.LastIndex(rest, "_"); i > 0 {
		camera = rest[:i]
	}
	return ts, camera, nil
}
