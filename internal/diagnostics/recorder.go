package diagnostics

import (
	"sync"
	"time"
)

// AttemptKind distinguishes primary deliveries, retries, and health probes.
type AttemptKind string

const (
	KindPrimary AttemptKind = "primary"
	KindRetry   AttemptKind = "retry"
	KindHealth  AttemptKind = "health"
)

// Attempt is one recorded webhook transmission.
type Attempt struct {
	RequestID    string        `json:"requestId"`
	URL          string        `json:"url"`
	EventType    string        `json:"eventType,omitempty"`
	Kind         AttemptKind   `json:"kind"`
	Timestamp    time.Time     `json:"timestamp"`
	StatusCode   int           `json:"statusCode"`
	ResponseTime time.Duration `json:"responseTimeMs"`
	PayloadSize  int           `json:"payloadSizeBytes"`
	Success      bool          `json:"success"`
	Error        string        `json:"error,omitempty"`
}

// Stats are the aggregate transmission counters.
type Stats struct {
	TotalAttempts        int64         `json:"totalAttempts"`
	SuccessfulAttempts   int64         `json:"successfulAttempts"`
	FailedAttempts       int64         `json:"failedAttempts"`
	AverageResponseTime  time.Duration `json:"averageResponseTimeMs"`
	ConsecutiveFailures  int64         `json:"consecutiveFailures"`
	ConsecutiveSuccesses int64         `json:"consecutiveSuccesses"`
	LastAttemptAt        time.Time     `json:"lastAttemptAt"`
	LastSuccessAt        time.Time     `json:"lastSuccessAt"`
	LastFailureAt        time.Time     `json:"lastFailureAt"`
}

const defaultCapacity = 20

// Recorder keeps the most recent attempts in a bounded in-memory buffer plus
// running aggregate counters. It is owned by main and injected wherever
// attempts are produced or read; nothing here is persisted across restarts.
type Recorder struct {
	mu       sync.Mutex
	capacity int
	attempts []Attempt
	stats    Stats
	totalRT  time.Duration
}

func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Recorder{capacity: capacity}
}

// Record appends one attempt, evicting the oldest entry once the buffer is
// at capacity.
func (r *Recorder) Record(attempt Attempt) {
	if attempt.Timestamp.IsZero() {
		attempt.Timestamp = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.attempts = append(r.attempts, attempt)
	if len(r.attempts) > r.capacity {
		r.attempts = r.attempts[len(r.attempts)-r.capacity:]
	}

	r.stats.TotalAttempts++
	r.totalRT += attempt.ResponseTime
	r.stats.AverageResponseTime = r.totalRT / time.Duration(r.stats.TotalAttempts)
	r.stats.LastAttemptAt = attempt.Timestamp

	if attempt.Success {
		r.stats.SuccessfulAttempts++
		r.stats.ConsecutiveSuccesses++
		r.stats.ConsecutiveFailures = 0
		r.stats.LastSuccessAt = attempt.Timestamp
	} else {
		r.stats.FailedAttempts++
		r.stats.ConsecutiveFailures++
		r.stats.ConsecutiveSuccesses = 0
		r.stats.LastFailureAt = attempt.Timestamp
	}
}

// Snapshot returns the buffered attempts, most recent first.
func (r *Recorder) Snapshot() []Attempt {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Attempt, len(r.attempts))
	for i, a := range r.attempts {
		out[len(r.attempts)-1-i] = a
	}
	return out
}

// Stats returns a copy of the aggregate counters.
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}
