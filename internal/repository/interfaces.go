package repository

import (
	"guardcam/internal/dto"
	"guardcam/internal/model"
)

// AlarmRepository defines the interface for alarm snapshot records.
type AlarmRepository interface {
	// Create operations
	Insert(alarm *model.Alarm) (int64, error)

	// Read operations
	GetByID(id int64) (*model.Alarm, error)
	GetByEventID(eventID string) (*model.Alarm, error)
	GetAll(filter *dto.AlarmFilters) ([]model.Alarm, error)
	GetTotalCount(filter *dto.AlarmFilters) (int, error)
	GetStats() (*model.AlarmStats, error)

	// Delete operations
	Delete(id int64) error
}

// DetectionRepository defines the interface for the boxes recorded with an alarm.
type DetectionRepository interface {
	InsertBatch(detections []model.AlarmDetection) error
	GetByAlarmID(alarmID int64) ([]model.AlarmDetection, error)
	GetLabelsByAlarmID(alarmID int64) ([]string, error)
}
