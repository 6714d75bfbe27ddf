package handler

import (
	"testing"
	"time"
)

func TestAtoiDefault(t *testing.T) {
	tests := []struct {
		input    string
		def      int
		expected int
	}{
		{"10", 5, 10},
		{"1", 0, 1},
		{"", 5, 5},
		{"abc", 50, 50},
		{"-1", 50, 50},
		{"0", 50, 50},
	}

	for _, tt := range tests {
		if result := atoiDefault(tt.input, tt.def); result != tt.expected {
			t.Errorf("atoiDefault(%q, %d) = %d, expected %d", tt.input, tt.def, result, tt.expected)
		}
	}
}

func TestParseDate(t *testing.T) {
	got := parseDate("2025-01-15")
	want := time.Date(2025, 1, 15, 0, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("parseDate = %v, expected %v", got, want)
	}

	for _, bad := range []string{"", "15-01-2025", "yesterday"} {
		if !parseDate(bad).IsZero() {
			t.Errorf("parseDate(%q) should be zero", bad)
		}
	}
}

func TestEndOfDay(t *testing.T) {
	if got := endOfDay(time.Time{}); !got.IsZero() {
		t.Errorf("endOfDay(zero) = %v, expected zero time", got)
	}

	day := parseDate("2025-05-02")
	noon := time.Date(2025, 5, 2, 12, 0, 0, 0, time.Local)
	next := time.Date(2025, 5, 3, 0, 0, 0, 0, time.Local)
	got := endOfDay(day)
	if got.Before(noon) || !got.Before(next) {
		t.Errorf("endOfDay(%v) = %v, expected within the same day", day, got)
	}
}
