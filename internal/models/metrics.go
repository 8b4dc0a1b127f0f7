package models

import "time"

// SystemMetrics is the aggregated runtime snapshot served by the metrics endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64        `json:"cache_hit_ratio"`
	CacheHits                uint64         `json:"cache_hits"`
	CacheMisses              uint64         `json:"cache_misses"`
	RequestsTotal            uint64         `json:"requests_total"`
	AverageRequestDurationMs float64        `json:"average_request_duration_ms"`
	DBQueryCount             uint64         `json:"db_query_count"`
	AverageDBQueryDurationMs float64        `json:"average_db_query_duration_ms"`
	CollectedBySource        map[string]int `json:"collected_by_source"`
	SourceFailures           uint64         `json:"source_failures"`
	ReconcileInserted        uint64         `json:"reconcile_inserted"`
	ReconcileDropped         uint64         `json:"reconcile_dropped"`
	Goroutines               int            `json:"goroutines"`
	GeneratedAt              time.Time      `json:"generated_at"`
}
