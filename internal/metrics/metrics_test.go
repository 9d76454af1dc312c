package metrics

import (
	"math"
	"sync"
	"testing"
	"time"
)

func TestRecorder_Record(t *testing.T) {
	r := NewRecorder(3)
	for i := 0; i < 5; i++ {
		r.Record(Metric{RequestID: string(rune('a' + i)), Mode: "raw", Success: true})
	}

	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}
	if r.Dropped() != 2 {
		t.Errorf("Dropped() = %d, want 2", r.Dropped())
	}

	got := r.List(Filter{}, 0)
	if got[0].RequestID != "e" || got[2].RequestID != "c" {
		t.Errorf("List() should be newest first and keep the latest: %v", got)
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("Record() should stamp CreatedAt")
	}
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder
	r.Record(Metric{Mode: "raw"})
	if r.Len() != 0 || len(r.List(Filter{}, 0)) != 0 {
		t.Error("nil recorder should hold nothing")
	}
	if s := r.Summary(Filter{}); s.Count != 0 {
		t.Errorf("Summary() = %+v", s)
	}
}

func TestRecorder_Concurrent(t *testing.T) {
	r := NewRecorder(0)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Record(Metric{Mode: "raw", Credits: 1, Success: true})
			}
		}()
	}
	wg.Wait()

	if r.Len() != 500 {
		t.Errorf("Len() = %d, want 500", r.Len())
	}
	if got := r.TotalCredits(Filter{}); got != 500 {
		t.Errorf("TotalCredits() = %v, want 500", got)
	}
}

func TestFilter(t *testing.T) {
	r := NewRecorder(0)
	old := time.Now().Add(-time.Hour)
	r.Record(Metric{Mode: "raw", Document: "a.pdf", Success: true, CreatedAt: old})
	r.Record(Metric{Mode: "schema", Document: "b.pdf", Success: true, Credits: 3})
	r.Record(Metric{Mode: "schema", Document: "b.pdf", Success: false, ErrorType: "schema_invalid"})
	r.Record(Metric{Mode: "model", Success: false, ErrorType: "extraction_failed"})

	failed := false
	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"by mode", Filter{Mode: "schema"}, 2},
		{"by document", Filter{Document: "a.pdf"}, 1},
		{"since", Filter{Since: time.Now().Add(-time.Minute)}, 3},
		{"failures", Filter{Success: &failed}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(r.List(tt.filter, 0)); got != tt.want {
				t.Errorf("List() returned %d, want %d", got, tt.want)
			}
		})
	}

	if got := len(r.List(Filter{}, 2)); got != 2 {
		t.Errorf("List() with limit returned %d", got)
	}

	byMode := r.CreditsByMode(Filter{})
	if byMode["schema"] != 3 || byMode["raw"] != 0 {
		t.Errorf("CreditsByMode() = %v", byMode)
	}

	errs := r.ErrorsByType(Filter{})
	if errs["schema_invalid"] != 1 || errs["extraction_failed"] != 1 {
		t.Errorf("ErrorsByType() = %v", errs)
	}
}

func TestSummary(t *testing.T) {
	r := NewRecorder(0)
	r.Record(Metric{Mode: "raw", PageCount: 2, Credits: 6, TotalSeconds: 1, Success: true})
	r.Record(Metric{Mode: "raw", PageCount: 4, Credits: 2, TotalSeconds: 3, Success: true})
	r.Record(Metric{Mode: "schema", TotalSeconds: 0.5, Success: false, ErrorType: "schema_invalid"})

	s := r.Summary(Filter{})
	if s.Count != 3 || s.SuccessCount != 2 || s.ErrorCount != 1 {
		t.Errorf("counts = %+v", s)
	}
	if s.TotalCredits != 8 || s.TotalPages != 6 {
		t.Errorf("totals = %+v", s)
	}
	if math.Abs(s.AvgTimeSeconds-1.5) > 1e-9 {
		t.Errorf("AvgTimeSeconds = %v, want 1.5", s.AvgTimeSeconds)
	}
}

func TestLatency(t *testing.T) {
	r := NewRecorder(0)
	for _, secs := range []float64{4, 1, 3, 2, 5} {
		r.Record(Metric{Mode: "raw", TotalSeconds: secs, Success: true})
	}
	r.Record(Metric{Mode: "raw", TotalSeconds: 100, Success: false})

	stats := r.Latency(Filter{})
	raw := stats["raw"]
	if raw == nil {
		t.Fatal("missing raw latency stats")
	}
	if raw.Count != 5 || raw.Min != 1 || raw.Max != 5 {
		t.Errorf("stats = %+v", raw)
	}
	if raw.P50 != 3 || raw.Avg != 3 {
		t.Errorf("P50 = %v, Avg = %v, want 3", raw.P50, raw.Avg)
	}
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		values []float64
		p      float64
		want   float64
	}{
		{nil, 50, 0},
		{[]float64{7}, 99, 7},
		{[]float64{1, 2, 3, 4}, 50, 2.5},
		{[]float64{1, 2, 3, 4}, 100, 4},
	}
	for _, tt := range tests {
		if got := percentile(tt.values, tt.p); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("percentile(%v, %v) = %v, want %v", tt.values, tt.p, got, tt.want)
		}
	}
}
