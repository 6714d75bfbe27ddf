package dto

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

// AlarmInfo is one stored alarm as listed by the history endpoint.
type AlarmInfo struct {
	ID        int64     `json:"id"`
	EventID   string    `json:"eventId"`
	Camera    string    `json:"camera"`
	Frame     int64     `json:"frame"`
	Timestamp time.Time `json:"timestamp"`
	Filename  string    `json:"filename"`
	Labels    []string  `json:"labels"`
}

// MarshalJSON splits the timestamp into the date and time-of-day fields the viewer shows.
func (a AlarmInfo) MarshalJSON() ([]byte, error) {
	type Alias AlarmInfo
	return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(&struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"timeOfDay"`
		Alias
	}{
		Date:      a.Timestamp.Format("02-01-2006"),
		TimeOfDay: a.Timestamp.Format("15:04:05"),
		Alias:     (Alias)(a),
	})
}

// AlarmsData is the history response payload.
type AlarmsData struct {
	Alarms      []AlarmInfo `json:"alarms"`
	SnapshotDir string      `json:"snapshotDir"`
	Length      int         `json:"length"`
	Limit       int         `json:"pageSize"`
}

// AlarmMessage is pushed to live viewers for every alarm.
type AlarmMessage struct {
	ID         string      `json:"id"`
	Camera     string      `json:"camera"`
	Frame      int64       `json:"frame"`
	Timestamp  time.Time   `json:"timestamp"`
	Detections []Detection `json:"detections"`
	Snapshot   []byte      `json:"snapshot,omitempty"` // base64 JPEG
}
