package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceCollectorCounters(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordCollected("portal-west", 160)
	metrics.RecordCollected("portal-west", 4)
	metrics.RecordCollected("portal-east", 0)
	metrics.RecordSourceFailure("portal-east", "locations")
	metrics.RecordReconcile(3, 2)
	metrics.ObserveHTTPRequest(http.MethodGet, "/api/v1/events", http.StatusOK, 20*time.Millisecond)

	snapshot := metrics.Snapshot()
	assert.Equal(t, map[string]int{"portal-west": 164}, snapshot.CollectedBySource)
	assert.Equal(t, uint64(1), snapshot.SourceFailures)
	assert.Equal(t, uint64(3), snapshot.ReconcileInserted)
	assert.Equal(t, uint64(2), snapshot.ReconcileDropped)
	assert.Equal(t, uint64(1), snapshot.RequestsTotal)
	assert.InDelta(t, 20, snapshot.AverageRequestDurationMs, 0.001)
}

func TestMetricsServiceHandlerExposesCollectorSeries(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordCollected("portal-west", 2)
	metrics.RecordSourceFailure("portal-east", "items")

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `collector_items_collected_total{source="portal-west"} 2`)
	assert.Contains(t, body, `collector_source_failures_total{source="portal-east",stage="items"} 1`)
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.RecordCollected("portal-west", 1)
	metrics.RecordReconcile(1, 1)
	assert.Equal(t, 0, len(metrics.Snapshot().CollectedBySource))

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
