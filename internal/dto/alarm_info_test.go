package dto

import (
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
)

func TestAlarmInfo_MarshalJSON(t *testing.T) {
	info := AlarmInfo{
		ID:        3,
		EventID:   "evt",
		Camera:    "webcam",
		Timestamp: time.Date(2025, 1, 15, 14, 30, 5, 0, time.UTC),
		Labels:    []string{"knife"},
	}

	data, err := jsoniter.Marshal(info)
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}

	out := string(data)
	for _, want := range []string{`"date":"15-01-2025"`, `"timeOfDay":"14:30:05"`, `"eventId":"evt"`, `"labels":["knife"]`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}
