package diagnostics

import (
	"fmt"
	"testing"
	"time"
)

func TestRecorderEvictsOldest(t *testing.T) {
	r := NewRecorder(3)
	for i := 0; i < 5; i++ {
		r.Record(Attempt{RequestID: fmt.Sprintf("req-%d", i), Kind: KindPrimary, Success: true})
	}

	snapshot := r.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("expected 3 buffered attempts, got %d", len(snapshot))
	}
	// Most recent first.
	if snapshot[0].RequestID != "req-4" || snapshot[2].RequestID != "req-2" {
		t.Fatalf("unexpected order: %q ... %q", snapshot[0].RequestID, snapshot[2].RequestID)
	}
}

func TestRecorderStats(t *testing.T) {
	r := NewRecorder(10)
	r.Record(Attempt{Success: true, ResponseTime: 100 * time.Millisecond})
	r.Record(Attempt{Success: true, ResponseTime: 300 * time.Millisecond})
	r.Record(Attempt{Success: false, ResponseTime: 200 * time.Millisecond, Error: "502"})

	stats := r.Stats()
	if stats.TotalAttempts != 3 || stats.SuccessfulAttempts != 2 || stats.FailedAttempts != 1 {
		t.Fatalf("unexpected counters: %+v", stats)
	}
	if stats.AverageResponseTime != 200*time.Millisecond {
		t.Fatalf("average response time: got %v", stats.AverageResponseTime)
	}
	if stats.ConsecutiveFailures != 1 || stats.ConsecutiveSuccesses != 0 {
		t.Fatalf("unexpected streaks: %+v", stats)
	}

	r.Record(Attempt{Success: true, ResponseTime: 200 * time.Millisecond})
	stats = r.Stats()
	if stats.ConsecutiveFailures != 0 || stats.ConsecutiveSuccesses != 1 {
		t.Fatalf("streaks not reset: %+v", stats)
	}
}

func TestRecorderDefaultCapacity(t *testing.T) {
	r := NewRecorder(0)
	for i := 0; i < defaultCapacity+5; i++ {
		r.Record(Attempt{Success: true})
	}
	if got := len(r.Snapshot()); got != defaultCapacity {
		t.Fatalf("expected %d buffered attempts, got %d", defaultCapacity, got)
	}
}
