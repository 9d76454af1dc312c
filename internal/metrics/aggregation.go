package metrics

import (
	"sort"
	"time"
)

// Summary provides a summary of metrics for a filter.
type Summary struct {
	Count          int           `json:"count"`
	SuccessCount   int           `json:"success_count"`
	ErrorCount     int           `json:"error_count"`
	TotalCredits   float64       `json:"total_credits"`
	TotalPages     int           `json:"total_pages"`
	TotalTime      time.Duration `json:"total_time"`
	AvgCredits     float64       `json:"avg_credits"`
	AvgTimeSeconds float64       `json:"avg_time_seconds"`
}

// Summary returns a summary of metrics matching the filter.
func (r *Recorder) Summary(f Filter) *Summary {
	metrics := r.List(f, 0)

	s := &Summary{Count: len(metrics)}
	for _, m := range metrics {
		s.TotalCredits += m.Credits
		s.TotalPages += m.PageCount
		s.TotalTime += m.Duration()
		if m.Success {
			s.SuccessCount++
		} else {
			s.ErrorCount++
		}
	}

	if s.Count > 0 {
		s.AvgCredits = s.TotalCredits / float64(s.Count)
		s.AvgTimeSeconds = s.TotalTime.Seconds() / float64(s.Count)
	}
	return s
}

// LatencyStats holds latency percentiles in seconds.
type LatencyStats struct {
	Count int     `json:"count"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Latency returns latency percentiles for successful calls matching the
// filter, grouped by mode.
func (r *Recorder) Latency(f Filter) map[string]*LatencyStats {
	byMode := make(map[string][]float64)
	for _, m := range r.List(f, 0) {
		if m.Success && m.TotalSeconds > 0 {
			byMode[m.Mode] = append(byMode[m.Mode], m.TotalSeconds)
		}
	}

	result := make(map[string]*LatencyStats, len(byMode))
	for mode, latencies := range byMode {
		sort.Float64s(latencies)

		var sum float64
		for _, l := range latencies {
			sum += l
		}
		result[mode] = &LatencyStats{
			Count: len(latencies),
			P50:   percentile(latencies, 50),
			P95:   percentile(latencies, 95),
			P99:   percentile(latencies, 99),
			Avg:   sum / float64(len(latencies)),
			Min:   latencies[0],
			Max:   latencies[len(latencies)-1],
		}
	}
	return result
}

// percentile calculates the p-th percentile from a sorted slice of values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	n := float64(len(sorted))
	idx := (p / 100.0) * (n - 1)

	// Interpolate between floor and ceil indices
	lower := int(idx)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
