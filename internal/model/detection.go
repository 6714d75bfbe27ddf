package model

// AlarmDetection is one dangerous box recorded with an alarm.
type AlarmDetection struct {
	ID         int64   `json:"id"`
	AlarmID    int64   `json:"alarm_id"`
	Label      string  `json:"label"`
	X1         int     `json:"x1"`
	Y1         int     `json:"y1"`
	X2         int     `json:"x2"`
	Y2         int     `json:"y2"`
	Confidence float64 `json:"confidence"`
}
