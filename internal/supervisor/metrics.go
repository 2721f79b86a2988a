package supervisor

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CallStatus is the outcome label of one backend call.
type CallStatus string

const (
	CallOK           CallStatus = "ok"
	CallUnauthorized CallStatus = "unauthorized"
	CallHTTPError    CallStatus = "http_error"
	CallNetworkError CallStatus = "network_error"
	CallDecodeError  CallStatus = "decode_error"
)

// PredictionOutcome is the outcome label of one model selection.
type PredictionOutcome string

const (
	OutcomePositive PredictionOutcome = "positive"
	OutcomeNegative PredictionOutcome = "negative"
	OutcomeStub     PredictionOutcome = "stub"
	OutcomeExpired  PredictionOutcome = "expired"
	OutcomeError    PredictionOutcome = "error"
)

// Metrics collects Prometheus metrics for the console.
type Metrics struct {
	backendCalls      *prometheus.CounterVec
	backendDuration   *prometheus.HistogramVec
	predictions       *prometheus.CounterVec
	logins            *prometheus.CounterVec
	sessionsCleared   *prometheus.CounterVec
	exports           prometheus.Counter
	inFlightRequests  prometheus.Gauge
	backendHealthy    prometheus.Gauge
}

var (
	metricsOnce sync.Once
	metricsInst *Metrics
)

// NewMetrics returns the process-wide metrics collector.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInst = &Metrics{
			backendCalls: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "diabetes_console_backend_calls_total",
					Help: "Total number of calls made to the prediction API",
				},
				[]string{"endpoint", "status"},
			),
			backendDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "diabetes_console_backend_call_duration_seconds",
					Help:    "Prediction API call duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"endpoint"},
			),
			predictions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "diabetes_console_predictions_total",
					Help: "Total number of model selections by outcome",
				},
				[]string{"model", "outcome"},
			),
			logins: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "diabetes_console_logins_total",
					Help: "Total number of login attempts",
				},
				[]string{"result"},
			),
			sessionsCleared: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "diabetes_console_sessions_cleared_total",
					Help: "Total number of cleared sessions by reason",
				},
				[]string{"reason"},
			),
			exports: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "diabetes_console_history_exports_total",
					Help: "Total number of history workbooks exported",
				},
			),
			inFlightRequests: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "diabetes_console_requests_in_flight",
					Help: "Number of page requests currently being served",
				},
			),
			backendHealthy: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "diabetes_console_backend_healthy",
					Help: "Prediction API health status (1 = healthy, 0 = unhealthy)",
				},
			),
		}
	})
	return metricsInst
}

// RecordBackendCall records a completed backend call.
func (m *Metrics) RecordBackendCall(endpoint string, status CallStatus, duration time.Duration) {
	if m == nil {
		return
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	statusLabel := string(status)
	if statusLabel == "" {
		statusLabel = "unknown"
	}
	m.backendCalls.WithLabelValues(endpoint, statusLabel).Inc()
	m.backendDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordPrediction records one model selection.
func (m *Metrics) RecordPrediction(model string, outcome PredictionOutcome) {
	if m == nil {
		return
	}
	if model == "" {
		model = "unknown"
	}
	m.predictions.WithLabelValues(model, string(outcome)).Inc()
}

// RecordLogin records a login attempt.
func (m *Metrics) RecordLogin(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.logins.WithLabelValues("success").Inc()
	} else {
		m.logins.WithLabelValues("failure").Inc()
	}
}

// RecordSessionCleared records a token being dropped ("logout" or "expired").
func (m *Metrics) RecordSessionCleared(reason string) {
	if m == nil {
		return
	}
	m.sessionsCleared.WithLabelValues(reason).Inc()
}

// RecordExport records a history export.
func (m *Metrics) RecordExport() {
	if m == nil {
		return
	}
	m.exports.Inc()
}

// AddInFlight adjusts the in-flight requests gauge by delta.
func (m *Metrics) AddInFlight(delta int) {
	if m == nil {
		return
	}
	m.inFlightRequests.Add(float64(delta))
}

// UpdateBackendHealth updates the backend health gauge.
func (m *Metrics) UpdateBackendHealth(healthy bool) {
	if m == nil {
		return
	}
	if healthy {
		m.backendHealthy.Set(1)
	} else {
		m.backendHealthy.Set(0)
	}
}
