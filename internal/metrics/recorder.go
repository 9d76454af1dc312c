package metrics

import (
	"sync"
	"time"
)

// DefaultLimit is how many metrics a Recorder keeps before dropping the oldest.
const DefaultLimit = 1000

// Recorder keeps recent metrics in memory. It is safe for concurrent use,
// and a nil *Recorder discards everything.
type Recorder struct {
	mu      sync.Mutex
	limit   int
	metrics []Metric
	dropped int
}

// NewRecorder creates a recorder holding at most limit metrics.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Recorder{limit: limit}
}

// Record stores a single metric, evicting the oldest when full.
func (r *Recorder) Record(m Metric) {
	if r == nil {
		return
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.metrics) >= r.limit {
		n := len(r.metrics) - r.limit + 1
		r.metrics = append(r.metrics[:0], r.metrics[n:]...)
		r.dropped += n
	}
	r.metrics = append(r.metrics, m)
}

// Len returns the number of metrics held.
func (r *Recorder) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.metrics)
}

// Dropped returns how many metrics were evicted.
func (r *Recorder) Dropped() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// snapshot copies the metrics held, oldest first.
func (r *Recorder) snapshot() []Metric {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Metric, len(r.metrics))
	copy(out, r.metrics)
	return out
}
