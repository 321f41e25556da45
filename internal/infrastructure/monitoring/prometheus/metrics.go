package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every metric the service records.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Claim lifecycle
	ClaimsSubmittedTotal   CounterVec
	ClaimTransitionsTotal  CounterVec
	CascadeRejectionsTotal CounterVec
	CascadeFailuresTotal   CounterVec
	EligibilityDecisions   CounterVec

	// Items
	ItemsRegisteredTotal CounterVec
	PhotoUploadDuration  HistogramVec

	// Dispatch
	DispatchTotal         CounterVec
	DispatchFailuresTotal CounterVec

	// Infrastructure
	CacheHitsTotal    CounterVec
	CacheMissesTotal  CounterVec
	EventPublishTotal CounterVec

	// System health
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

var (
	DefaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultUploadBuckets       = []float64{.05, .1, .25, .5, 1, 2.5, 5, 15, 30}
)

// NewAppMetrics registers all metrics and returns the populated struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Requests currently in flight", "method")

	m.ClaimsSubmittedTotal = collector.RegisterCounter("claims_submitted_total", "Claims submitted", "decision")
	m.ClaimTransitionsTotal = collector.RegisterCounter("claim_transitions_total", "Claim status transitions", "to_status")
	m.CascadeRejectionsTotal = collector.RegisterCounter("cascade_rejections_total", "Sibling claims rejected by an approval")
	m.CascadeFailuresTotal = collector.RegisterCounter("cascade_failures_total", "Sibling rejections that failed during an approval")
	m.EligibilityDecisions = collector.RegisterCounter("eligibility_decisions_total", "Eligibility evaluation outcomes", "decision", "reason")

	m.ItemsRegisteredTotal = collector.RegisterCounter("items_registered_total", "Items registered", "category")
	m.PhotoUploadDuration = collector.RegisterHistogram("photo_upload_duration_seconds", "Photo upload duration", DefaultUploadBuckets)

	m.DispatchTotal = collector.RegisterCounter("dispatch_total", "Messages dispatched to claimants", "type")
	m.DispatchFailuresTotal = collector.RegisterCounter("dispatch_failures_total", "Message dispatch failures", "type")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.EventPublishTotal = collector.RegisterCounter("event_publish_total", "Domain events published", "topic", "status")

	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "code")

	return m
}

// Helpers

func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordClaimSubmitted(m *AppMetrics, decision string) {
	if m == nil {
		return
	}
	m.ClaimsSubmittedTotal.WithLabelValues(decision).Inc()
}

func RecordClaimTransition(m *AppMetrics, toStatus string) {
	if m == nil {
		return
	}
	m.ClaimTransitionsTotal.WithLabelValues(toStatus).Inc()
}

func RecordEligibility(m *AppMetrics, decision, reason string) {
	if m == nil {
		return
	}
	m.EligibilityDecisions.WithLabelValues(decision, reason).Inc()
}

func RecordDispatch(m *AppMetrics, dispatchType string, err error) {
	if m == nil {
		return
	}
	m.DispatchTotal.WithLabelValues(dispatchType).Inc()
	if err != nil {
		m.DispatchFailuresTotal.WithLabelValues(dispatchType).Inc()
	}
}

// RecordCascade accounts for one approval's fan-out: how many sibling claims
// were rejected and how many rejections failed.
func RecordCascade(m *AppMetrics, rejected, failed int) {
	if m == nil {
		return
	}
	if rejected > 0 {
		m.CascadeRejectionsTotal.WithLabelValues().Add(float64(rejected))
	}
	if failed > 0 {
		m.CascadeFailuresTotal.WithLabelValues().Add(float64(failed))
	}
}

func RecordEventPublish(m *AppMetrics, topic string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.EventPublishTotal.WithLabelValues(topic, status).Inc()
}

func RecordItemRegistered(m *AppMetrics, category string) {
	if m == nil {
		return
	}
	m.ItemsRegisteredTotal.WithLabelValues(category).Inc()
}

func RecordPhotoUpload(m *AppMetrics, duration time.Duration) {
	if m == nil {
		return
	}
	m.PhotoUploadDuration.WithLabelValues().Observe(duration.Seconds())
}

func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordError(m *AppMetrics, component, code string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}
