package pipeline

import (
	"testing"
	"time"
)

func TestExportStats_Snapshot(t *testing.T) {
	s := NewExportStats(time.Hour)
	for i, d := range []int64{10, 20, 30, 40} {
		s.Record(d, i+1)
	}

	snap := s.Snapshot()
	if snap.Count != 4 {
		t.Fatalf("expected 4 samples, got %d", snap.Count)
	}
	if snap.TotalElements != 10 {
		t.Errorf("expected 10 total elements, got %d", snap.TotalElements)
	}
	if snap.MinMs != 10 || snap.MaxMs != 40 {
		t.Errorf("min/max: %d / %d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 25 {
		t.Errorf("expected avg 25, got %v", snap.AvgMs)
	}
	if snap.P50Ms != 25 {
		t.Errorf("expected p50 25, got %v", snap.P50Ms)
	}
}

func TestExportStats_Empty(t *testing.T) {
	s := NewExportStats(time.Hour)
	if snap := s.Snapshot(); snap.Count != 0 || snap.TotalElements != 0 {
		t.Errorf("expected zero snapshot, got %+v", snap)
	}
}

func TestExportStats_NegativeDurationClamped(t *testing.T) {
	s := NewExportStats(time.Hour)
	s.Record(-5, 1)
	if snap := s.Snapshot(); snap.MinMs != 0 {
		t.Errorf("expected clamp to 0, got %d", snap.MinMs)
	}
}

func TestExportStats_WindowPruning(t *testing.T) {
	s := NewExportStats(10 * time.Millisecond)
	s.Record(100, 1)
	time.Sleep(25 * time.Millisecond)
	s.Record(200, 2)

	snap := s.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected old sample pruned, got %d samples", snap.Count)
	}
	if snap.MinMs != 200 {
		t.Errorf("expected surviving sample 200ms, got %d", snap.MinMs)
	}
}

func TestPercentile(t *testing.T) {
	vals := []int64{10, 20, 30, 40, 50}
	cases := []struct {
		pct  float64
		want float64
	}{
		{0, 10},
		{50, 30},
		{100, 50},
		{25, 20},
	}
	for _, tc := range cases {
		if got := percentile(vals, tc.pct); got != tc.want {
			t.Errorf("percentile(%v) = %v, want %v", tc.pct, got, tc.want)
		}
	}
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("expected 0 for empty input, got %v", got)
	}
}
