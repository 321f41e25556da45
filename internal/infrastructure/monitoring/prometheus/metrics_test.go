package prometheus

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	c, err := NewMetricsCollector(CollectorConfig{
		Namespace: "claimbridge",
		Subsystem: "test",
	}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrape(t *testing.T, collector MetricsCollector) string {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollectorRequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestRegisterCounterIsIdempotent(t *testing.T) {
	c := newTestCollector(t)

	first := c.RegisterCounter("things_total", "Things", "kind")
	second := c.RegisterCounter("things_total", "Things", "kind")

	first.WithLabelValues("a").Inc()
	second.WithLabelValues("a").Inc()

	out := scrape(t, c)
	assert.Contains(t, out, `claimbridge_test_things_total{kind="a"} 2`)
}

func TestRegisterCounterTypeClashReturnsNoop(t *testing.T) {
	c := newTestCollector(t)

	c.RegisterGauge("mixed_metric", "Gauge first")
	counter := c.RegisterCounter("mixed_metric", "Counter second")

	// Must not panic; increments go nowhere.
	counter.WithLabelValues().Inc()
}

func TestAppMetricsScrapeExposesClaimCounters(t *testing.T) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)

	RecordClaimTransition(m, "approved")
	RecordClaimTransition(m, "rejected")
	RecordClaimTransition(m, "rejected")
	RecordEligibility(m, "manual_review", "identifier mismatch")
	RecordDispatch(m, "approve", nil)
	RecordDispatch(m, "reject", errors.New("broker down"))

	out := scrape(t, c)
	assert.Contains(t, out, `claim_transitions_total{to_status="approved"} 1`)
	assert.Contains(t, out, `claim_transitions_total{to_status="rejected"} 2`)
	assert.Contains(t, out, `eligibility_decisions_total{decision="manual_review",reason="identifier mismatch"} 1`)
	assert.Contains(t, out, `dispatch_failures_total{type="reject"} 1`)
}

func TestRecordHTTPRequest(t *testing.T) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)

	RecordHTTPRequest(m, "POST", "/api/v1/claims", 201, 42*time.Millisecond)

	out := scrape(t, c)
	assert.Contains(t, out, `http_requests_total{method="POST",path="/api/v1/claims",status_code="201"} 1`)
}

func TestHelpersTolerateNilMetrics(t *testing.T) {
	RecordHTTPRequest(nil, "GET", "/", 200, time.Millisecond)
	RecordClaimTransition(nil, "approved")
	RecordCacheAccess(nil, "item", true)
	RecordError(nil, "http", "CLM_001")
}

func TestTimerObservesIntoHistogram(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("op_duration_seconds", "Op duration", nil, "op")

	timer := NewTimer(h.WithLabelValues("submit"))
	timer.ObserveDuration()

	out := scrape(t, c)
	assert.Contains(t, out, `op_duration_seconds_count{op="submit"} 1`)
}
