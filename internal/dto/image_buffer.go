package dto

// BufferedSnapshot holds an alarm snapshot and its detections before flushing to disk.
type BufferedSnapshot struct {
	EventID    string
	Timestamp  string
	Camera     string
	Frame      int64
	Detections []Detection
	Data       []byte
}
