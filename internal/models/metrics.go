package models

import "time"

// SystemMetrics is an aggregated snapshot of runtime counters exposed on the
// admin status endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	SearchesTotal            uint64    `json:"searches_total"`
	AverageSearchDurationMs  float64   `json:"average_search_duration_ms"`
	GeocodeSuccessTotal      uint64    `json:"geocode_success_total"`
	GeocodeFailureTotal      uint64    `json:"geocode_failure_total"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
