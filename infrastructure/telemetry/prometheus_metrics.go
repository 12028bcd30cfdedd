// Package telemetry provides observability for the metrics engine:
// Prometheus collectors for derive-pass performance and an OpenTelemetry
// span observer. Instrumentation wraps the engine from the outside and
// never changes what it computes.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-rostrum/internal/ports"
)

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It tracks how long derive passes take, how many records
// they consume, and how often each engine operation runs.
type PrometheusMetrics struct {
	passDuration     *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	recordsProcessed prometheus.Counter
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and
// registers all collectors in the global Prometheus registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		passDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rostrum_derive_duration_seconds",
				Help:    "Execution time of derived-metrics engine operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		operationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rostrum_derive_operations_total",
				Help: "Total number of derived-metrics engine operations.",
			},
			[]string{"operation", "status"},
		),
		recordsProcessed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "rostrum_records_processed_total",
				Help: "Total number of debate records consumed by derive passes.",
			},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// operation latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.passDuration.WithLabelValues(operation).Observe(duration.Seconds())

	status, ok := labels["status"]
	if !ok {
		status = "ok"
	}
	pm.operationCounter.WithLabelValues(operation, status).Inc()
}

// RecordCounter implements the MetricsCollector interface. The
// "records" counter feeds the records-processed total; other names map
// onto the operation counter.
func (pm *PrometheusMetrics) RecordCounter(name string, value float64, labels map[string]string) {
	if name == "records" {
		pm.recordsProcessed.Add(value)
		return
	}
	status, ok := labels["status"]
	if !ok {
		status = "ok"
	}
	pm.operationCounter.WithLabelValues(name, status).Add(value)
}
