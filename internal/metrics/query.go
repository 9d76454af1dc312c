package metrics

import "time"

// Filter selects metrics. Zero fields match everything.
type Filter struct {
	Mode     string
	Document string
	Since    time.Time
	Success  *bool
}

func (f Filter) matches(m *Metric) bool {
	if f.Mode != "" && m.Mode != f.Mode {
		return false
	}
	if f.Document != "" && m.Document != f.Document {
		return false
	}
	if !f.Since.IsZero() && m.CreatedAt.Before(f.Since) {
		return false
	}
	if f.Success != nil && m.Success != *f.Success {
		return false
	}
	return true
}

// List returns metrics matching the filter, newest first. A limit of 0
// returns all of them.
func (r *Recorder) List(f Filter, limit int) []Metric {
	all := r.snapshot()
	out := make([]Metric, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if !f.matches(&all[i]) {
			continue
		}
		out = append(out, all[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// TotalCredits returns the credits consumed by metrics matching the filter.
func (r *Recorder) TotalCredits(f Filter) float64 {
	var total float64
	for _, m := range r.List(f, 0) {
		total += m.Credits
	}
	return total
}

// CreditsByMode returns a credit breakdown by extraction mode.
func (r *Recorder) CreditsByMode(f Filter) map[string]float64 {
	breakdown := make(map[string]float64)
	for _, m := range r.List(f, 0) {
		breakdown[m.Mode] += m.Credits
	}
	return breakdown
}

// ErrorsByType counts failed calls by error type.
func (r *Recorder) ErrorsByType(f Filter) map[string]int {
	counts := make(map[string]int)
	for _, m := range r.List(f, 0) {
		if !m.Success {
			counts[m.ErrorType]++
		}
	}
	return counts
}
