package dto

import "time"

// AlarmEvent is emitted once for every frame that contains a dangerous object.
type AlarmEvent struct {
	ID         string      `json:"id"`
	Camera     string      `json:"camera"`
	Frame      int64       `json:"frame"`
	Timestamp  time.Time   `json:"timestamp"`
	Detections []Detection `json:"detections"`
	Snapshot   []byte      `json:"-"` // annotated frame, JPEG
}
