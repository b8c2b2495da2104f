package models

import (
	"testing"
	"time"
)

func TestQuizIsOpenAt(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	quiz := &Quiz{StartTime: start, EndTime: end}

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before window", start.Add(-time.Second), false},
		{"at start", start, true},
		{"inside window", start.Add(time.Hour), true},
		{"at end", end, true},
		{"after window", end.Add(time.Second), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := quiz.IsOpenAt(tc.at); got != tc.want {
				t.Errorf("IsOpenAt(%v) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}
