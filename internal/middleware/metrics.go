package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores application metrics
type Metrics struct {
	RequestsTotal      uint64
	RequestsInProgress uint64
	RequestsSuccess    uint64
	RequestsFailed     uint64

	AnalysesTotal         uint64
	AnalysesParsed        uint64
	AnalysesUnparseable   uint64
	AnalysesUpstreamError uint64
	AnalysesMatched       uint64

	StartTime time.Time
}

// NewMetrics returns zeroed counters starting now.
func NewMetrics() *Metrics {
	return &Metrics{StartTime: time.Now()}
}

// ObserveAnalysis counts one finished analysis by outcome.
func (m *Metrics) ObserveAnalysis(outcome string, matched bool) {
	atomic.AddUint64(&m.AnalysesTotal, 1)
	switch outcome {
	case "parsed":
		atomic.AddUint64(&m.AnalysesParsed, 1)
	case "unparseable":
		atomic.AddUint64(&m.AnalysesUnparseable, 1)
	case "upstream_error":
		atomic.AddUint64(&m.AnalysesUpstreamError, 1)
	}
	if matched {
		atomic.AddUint64(&m.AnalysesMatched, 1)
	}
}

// Snapshot returns current metrics
func (m *Metrics) Snapshot() map[string]interface{} {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return map[string]interface{}{
		"requests_total":       atomic.LoadUint64(&m.RequestsTotal),
		"requests_in_progress": atomic.LoadUint64(&m.RequestsInProgress),
		"requests_success":     atomic.LoadUint64(&m.RequestsSuccess),
		"requests_failed":      atomic.LoadUint64(&m.RequestsFailed),
		"analyses": map[string]uint64{
			"total":          atomic.LoadUint64(&m.AnalysesTotal),
			"parsed":         atomic.LoadUint64(&m.AnalysesParsed),
			"unparseable":    atomic.LoadUint64(&m.AnalysesUnparseable),
			"upstream_error": atomic.LoadUint64(&m.AnalysesUpstreamError),
			"breed_matched":  atomic.LoadUint64(&m.AnalysesMatched),
		},
		"uptime_seconds": time.Since(m.StartTime).Seconds(),
		"memory": map[string]interface{}{
			"alloc_bytes":       ms.Alloc,
			"total_alloc_bytes": ms.TotalAlloc,
			"sys_bytes":         ms.Sys,
			"num_gc":            ms.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// Middleware tracks request metrics
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddUint64(&m.RequestsTotal, 1)
		atomic.AddUint64(&m.RequestsInProgress, 1)
		defer atomic.AddUint64(&m.RequestsInProgress, ^uint64(0))

		wrapped := wrapWriter(w)
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			atomic.AddUint64(&m.RequestsSuccess, 1)
		} else {
			atomic.AddUint64(&m.RequestsFailed, 1)
		}
	})
}

// Handler returns metrics as JSON
func (m *Metrics) Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m.Snapshot())
}
