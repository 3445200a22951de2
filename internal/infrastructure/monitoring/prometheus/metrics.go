package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every metric the studio records.
type AppMetrics struct {
	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Collaborator calls
	InferenceCallsTotal   CounterVec
	InferenceCallDuration HistogramVec
	InferenceRetriesTotal CounterVec

	// Input normalization
	NormalizationsTotal CounterVec

	// Session store
	SessionStoreOpsTotal CounterVec
	SessionStoreDuration HistogramVec

	// Exports and events
	ExportsTotal         CounterVec
	EventsPublishedTotal CounterVec
	HealthCheckStatus    GaugeVec
	ErrorsTotal          CounterVec
}

// Bucket layouts.
var (
	HTTPDurationBuckets      = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}
	InferenceDurationBuckets = []float64{.05, .1, .25, .5, 1, 2, 5, 10, 20, 30, 60, 120}
	StoreDurationBuckets     = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25}
)

// NewAppMetrics registers all metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", HTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "In-flight HTTP requests", "method")

	m.InferenceCallsTotal = collector.RegisterCounter("inference_calls_total", "Collaborator calls", "operation", "target", "status")
	m.InferenceCallDuration = collector.RegisterHistogram("inference_call_duration_seconds", "Collaborator call duration including retries", InferenceDurationBuckets, "operation", "target")
	m.InferenceRetriesTotal = collector.RegisterCounter("inference_retries_total", "Collaborator retry attempts", "operation")

	m.NormalizationsTotal = collector.RegisterCounter("normalizations_total", "Molecule normalization attempts", "method", "outcome")

	m.SessionStoreOpsTotal = collector.RegisterCounter("session_store_ops_total", "Session store operations", "backend", "operation", "status")
	m.SessionStoreDuration = collector.RegisterHistogram("session_store_duration_seconds", "Session store operation duration", StoreDurationBuckets, "backend", "operation")

	m.ExportsTotal = collector.RegisterCounter("feature_exports_total", "3D feature exports", "destination", "status")
	m.EventsPublishedTotal = collector.RegisterCounter("events_published_total", "Domain events published", "event_type", "status")
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Errors by component and code", "component", "code")

	return m
}

// NewNoopMetrics returns metrics that record nothing.
func NewNoopMetrics() *AppMetrics {
	return &AppMetrics{
		HTTPRequestsTotal:     noopCounterVec{},
		HTTPRequestDuration:   noopHistogramVec{},
		HTTPActiveRequests:    noopGaugeVec{},
		InferenceCallsTotal:   noopCounterVec{},
		InferenceCallDuration: noopHistogramVec{},
		InferenceRetriesTotal: noopCounterVec{},
		NormalizationsTotal:   noopCounterVec{},
		SessionStoreOpsTotal:  noopCounterVec{},
		SessionStoreDuration:  noopHistogramVec{},
		ExportsTotal:          noopCounterVec{},
		EventsPublishedTotal:  noopCounterVec{},
		HealthCheckStatus:     noopGaugeVec{},
		ErrorsTotal:           noopCounterVec{},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// RecordInferenceCall records one gateway call; attempts > 1 counts retries.
func RecordInferenceCall(m *AppMetrics, operation, target string, ok bool, attempts int, d time.Duration) {
	m.InferenceCallsTotal.WithLabelValues(operation, target, status(ok)).Inc()
	m.InferenceCallDuration.WithLabelValues(operation, target).Observe(d.Seconds())
	if attempts > 1 {
		m.InferenceRetriesTotal.WithLabelValues(operation).Add(float64(attempts - 1))
	}
}

// RecordNormalization records one normalization attempt.  outcome is
// "accepted", "rejected" or "error".
func RecordNormalization(m *AppMetrics, method, outcome string) {
	m.NormalizationsTotal.WithLabelValues(method, outcome).Inc()
}

// RecordSessionOp records one session store operation.
func RecordSessionOp(m *AppMetrics, backend, operation string, err error, d time.Duration) {
	m.SessionStoreOpsTotal.WithLabelValues(backend, operation, status(err == nil)).Inc()
	m.SessionStoreDuration.WithLabelValues(backend, operation).Observe(d.Seconds())
}

// RecordExport records one feature export.
func RecordExport(m *AppMetrics, destination string, ok bool) {
	m.ExportsTotal.WithLabelValues(destination, status(ok)).Inc()
}

// RecordEvent records one event publication.
func RecordEvent(m *AppMetrics, eventType string, err error) {
	m.EventsPublishedTotal.WithLabelValues(eventType, status(err == nil)).Inc()
}

// RecordHealth sets a component's health gauge.
func RecordHealth(m *AppMetrics, component string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}

// RecordError counts an error by component and code.
func RecordError(m *AppMetrics, component, code string) {
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}
