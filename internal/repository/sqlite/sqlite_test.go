package sqlite_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardcam/internal/dto"
	"guardcam/internal/model"
	"guardcam/internal/repository/sqlite"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "nested", "alarms.db")
	db, err := sqlite.New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = os.Stat(dbPath)
	require.NoError(t, err, "database file should exist")
	return db
}

func insertAlarm(t *testing.T, repo *sqlite.AlarmRepository, eventID, camera string, ts time.Time) int64 {
	t.Helper()

	id, err := repo.Insert(&model.Alarm{
		EventID:   eventID,
		Camera:    camera,
		Frame:     42,
		Timestamp: ts,
		Filename:  eventID + ".jpg",
		FilePath:  "/snapshots/" + eventID + ".jpg",
		FileSize:  2048,
	})
	require.NoError(t, err)
	require.Positive(t, id)
	return id
}

func TestAlarmRepository_InsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewAlarmRepository(db)

	ts := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	id := insertAlarm(t, repo, "evt-1", "webcam", ts)

	alarm, err := repo.GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, alarm)
	assert.Equal(t, "evt-1", alarm.EventID)
	assert.Equal(t, "webcam", alarm.Camera)
	assert.Equal(t, int64(42), alarm.Frame)
	assert.True(t, ts.Equal(alarm.Timestamp))

	byEvent, err := repo.GetByEventID("evt-1")
	require.NoError(t, err)
	require.NotNil(t, byEvent)
	assert.Equal(t, id, byEvent.ID)

	missing, err := repo.GetByID(id + 100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAlarmRepository_DuplicateEventID(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewAlarmRepository(db)

	insertAlarm(t, repo, "dup", "webcam", time.Now().UTC())

	_, err := repo.Insert(&model.Alarm{EventID: "dup", Camera: "webcam", Timestamp: time.Now().UTC()})
	assert.Error(t, err)
}

func TestAlarmRepository_FilterAndStats(t *testing.T) {
	db := setupTestDB(t)
	alarms := sqlite.NewAlarmRepository(db)
	detections := sqlite.NewDetectionRepository(db)

	base := time.Date(2025, 1, 4, 12, 0, 0, 0, time.UTC)
	knifeID := insertAlarm(t, alarms, "a", "front", base)
	rifleID := insertAlarm(t, alarms, "b", "front", base.Add(time.Hour))
	insertAlarm(t, alarms, "c", "back", base.Add(2*time.Hour))

	require.NoError(t, detections.InsertBatch([]model.AlarmDetection{
		{AlarmID: knifeID, Label: "knife", X1: 1, Y1: 2, X2: 30, Y2: 40, Confidence: 0.8},
		{AlarmID: rifleID, Label: "rifle", X1: 5, Y1: 5, X2: 50, Y2: 90, Confidence: 0.6},
		{AlarmID: rifleID, Label: "knife", X1: 0, Y1: 0, X2: 10, Y2: 10, Confidence: 0.55},
	}))

	all, err := alarms.GetAll(&dto.AlarmFilters{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].EventID, "newest first")

	front, err := alarms.GetTotalCount(&dto.AlarmFilters{Camera: "front"})
	require.NoError(t, err)
	assert.Equal(t, 2, front)

	knives, err := alarms.GetAll(&dto.AlarmFilters{Label: "knife"})
	require.NoError(t, err)
	assert.Len(t, knives, 2)

	limited, err := alarms.GetAll(&dto.AlarmFilters{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	stats, err := alarms.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalAlarms)
	assert.Equal(t, 2, stats.PerCamera["front"])
	assert.Equal(t, 2, stats.LabelCounts["knife"])
	assert.Equal(t, 1, stats.LabelCounts["rifle"])
}

func TestDetectionRepository_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	alarms := sqlite.NewAlarmRepository(db)
	detections := sqlite.NewDetectionRepository(db)

	id := insertAlarm(t, alarms, "evt", "webcam", time.Now().UTC())
	want := []model.AlarmDetection{
		{AlarmID: id, Label: "knife", X1: 10, Y1: 20, X2: 110, Y2: 220, Confidence: 0.91},
		{AlarmID: id, Label: "hammer", X1: 0, Y1: 0, X2: 5, Y2: 5, Confidence: 0.52},
	}
	require.NoError(t, detections.InsertBatch(want))

	got, err := detections.GetByAlarmID(id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range want {
		assert.Equal(t, want[i].Label, got[i].Label)
		assert.Equal(t, want[i].X2, got[i].X2)
		assert.InDelta(t, want[i].Confidence, got[i].Confidence, 1e-9)
	}

	labels, err := detections.GetLabelsByAlarmID(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"hammer", "knife"}, labels)

	require.NoError(t, alarms.Delete(id))
	got, err = detections.GetByAlarmID(id)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDatabase_ConcurrentAccess(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewAlarmRepository(db)

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func(idx int) {
			_, err := repo.Insert(&model.Alarm{
				EventID:   "concurrent_" + string(rune('a'+idx)),
				Camera:    "cam1",
				Timestamp: time.Now(),
				Filename:  "c.jpg",
				FilePath:  "/snapshots/",
			})
			if err != nil {
				t.Errorf("Concurrent insert %d failed: %v", idx, err)
			}
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	count, _ := repo.GetTotalCount(&dto.AlarmFilters{})
	if count != 10 {
		t.Errorf("Expected 10 alarms, got %d", count)
	}
}
