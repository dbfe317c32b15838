package main

import "testing"

func TestSummarize(t *testing.T) {
	s := summarize([]int16{390, -1, 412, 401, -1})
	if s.valid != 3 {
		t.Errorf("valid = %d, want 3", s.valid)
	}
	if s.min != 390 || s.max != 412 {
		t.Errorf("min/max = %d/%d, want 390/412", s.min, s.max)
	}
	if s.mean != 401.0 {
		t.Errorf("mean = %f, want 401", s.mean)
	}

	masked := summarize([]int16{-1, -1})
	if masked.valid != 0 {
		t.Errorf("all-masked valid = %d, want 0", masked.valid)
	}
}

func TestHHMM(t *testing.T) {
	tests := []struct {
		minutes int16
		want    string
	}{
		{0, "00:00"},
		{390, "06:30"},
		{1085, "18:05"},
		{720, "12:00"},
		{1439, "23:59"},
	}
	for _, tc := range tests {
		if got := hhmm(tc.minutes); got != tc.want {
			t.Errorf("hhmm(%d) = %q, want %q", tc.minutes, got, tc.want)
		}
	}
}
