package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkerMetrics covers the audit worker that persists extraction events.
type WorkerMetrics struct {
	service  string
	registry *prometheus.Registry

	recordTotal    *prometheus.CounterVec
	recordDuration *prometheus.HistogramVec
	recordInFlight prometheus.Gauge
	queueLag       prometheus.Histogram
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	recordTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "audit_records_total",
			Help:      "Persisted extraction audit records by status.",
		},
		[]string{"service", "status"},
	)
	recordDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "audit_record_duration_seconds",
			Help:      "Audit record persistence duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	recordInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "audit_records_in_flight",
			Help:      "Number of audit records being persisted.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "queue_lag_seconds",
			Help:        "Delay between extraction and audit persistence start.",
			Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			ConstLabels: prometheus.Labels{"service": service},
		},
	)

	registry.MustRegister(recordTotal, recordDuration, recordInFlight, queueLag)

	return &WorkerMetrics{
		service:        service,
		registry:       registry,
		recordTotal:    recordTotal,
		recordDuration: recordDuration,
		recordInFlight: recordInFlight,
		queueLag:       queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRecord() {
	m.recordInFlight.Inc()
}

func (m *WorkerMetrics) FinishRecord(duration time.Duration, err error) {
	m.recordInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.recordTotal.WithLabelValues(m.service, status).Inc()
	m.recordDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.Observe(lag.Seconds())
}
