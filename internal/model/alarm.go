package model

import "time"

// Alarm is a persisted alarm snapshot.
type Alarm struct {
	ID        int64     `json:"id"`
	EventID   string    `json:"event_id"`
	Camera    string    `json:"camera"`
	Frame     int64     `json:"frame"`
	Timestamp time.Time `json:"timestamp"`
	Filename  string    `json:"filename"`
	FilePath  string    `json:"filepath"`
	FileSize  int64     `json:"filesize"`
}

// AlarmStats summarizes the alarm log.
type AlarmStats struct {
	TotalAlarms int            `json:"total_alarms"`
	PerCamera   map[string]int `json:"per_camera"`
	LabelCounts map[string]int `json:"label_counts"`
}
