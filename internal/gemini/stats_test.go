package gemini

import (
	"testing"
	"time"
)

func TestEnrichStats_Empty(t *testing.T) {
	s := NewEnrichStats(time.Hour)
	snap := s.Snapshot()
	if snap.Count != 0 || snap.AvgMs != 0 || snap.P50Ms != 0 || snap.P95Ms != 0 {
		t.Errorf("expected zero snapshot, got %+v", snap)
	}
}

func TestEnrichStats_Aggregates(t *testing.T) {
	s := NewEnrichStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400} {
		s.Record(ms)
	}

	snap := s.Snapshot()
	if snap.Count != 4 {
		t.Errorf("expected count 4, got %d", snap.Count)
	}
	if snap.AvgMs != 250 {
		t.Errorf("expected avg 250, got %v", snap.AvgMs)
	}
	if snap.P50Ms != 250 {
		t.Errorf("expected p50 250, got %v", snap.P50Ms)
	}
	if snap.P50Ms > snap.P95Ms {
		t.Errorf("p50 %v must not exceed p95 %v", snap.P50Ms, snap.P95Ms)
	}
}

func TestEnrichStats_NegativeClampedToZero(t *testing.T) {
	s := NewEnrichStats(time.Hour)
	s.Record(-5)
	snap := s.Snapshot()
	if snap.Count != 1 || snap.AvgMs != 0 {
		t.Errorf("expected single zero sample, got %+v", snap)
	}
}

func TestEnrichStats_WindowPrunesOldSamples(t *testing.T) {
	s := NewEnrichStats(50 * time.Millisecond)
	s.Record(100)
	time.Sleep(80 * time.Millisecond)
	s.Record(200)

	snap := s.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected old sample pruned, got count %d", snap.Count)
	}
	if snap.AvgMs != 200 {
		t.Errorf("expected the recent sample to survive, got avg %v", snap.AvgMs)
	}
}
