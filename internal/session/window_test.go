package session

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 8, 24, hour, min, 0, 0, time.Local)
}

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		hour, min int
		want      Window
	}{
		{8, 0, PreMarket},
		{9, 14, PreMarket},
		{9, 15, Noise},
		{10, 29, Noise},
		{10, 30, Structure},
		{12, 29, Structure},
		{12, 30, Traps},
		{14, 29, Traps},
		{14, 30, Adjustment},
		{15, 19, Adjustment},
		{15, 20, HighRisk},
		{15, 29, HighRisk},
		{15, 30, PostMarket},
		{18, 0, PostMarket},
	}

	for _, tc := range cases {
		if got := Classify(at(tc.hour, tc.min)); got != tc.want {
			t.Errorf("Classify(%02d:%02d) = %s, want %s", tc.hour, tc.min, got, tc.want)
		}
	}
}

func TestClosed(t *testing.T) {
	closed := map[Window]bool{
		PreMarket:  true,
		PostMarket: true,
		Noise:      false,
		Structure:  false,
		Traps:      false,
		Adjustment: false,
		HighRisk:   false,
	}
	for w, want := range closed {
		if got := w.Closed(); got != want {
			t.Errorf("%s.Closed() = %v, want %v", w, got, want)
		}
	}
}
