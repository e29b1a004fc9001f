package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type pipelineCollectors struct {
	ingestTotal       *prometheus.CounterVec
	ingestChunks      prometheus.Histogram
	ingestDuration    prometheus.Histogram
	retrievalTotal    *prometheus.CounterVec
	retrievalHits     *prometheus.HistogramVec
	extractionTotal   *prometheus.CounterVec
	extractionScore   *prometheus.HistogramVec
	extractionLatency *prometheus.HistogramVec
	bulkFields        prometheus.Histogram
	bulkExtracted     prometheus.Histogram
	bulkDuration      prometheus.Histogram
	sessionsActive    prometheus.Gauge
	sessionsReclaimed *prometheus.CounterVec
	retriesTotal      *prometheus.CounterVec
	breakerState      *prometheus.CounterVec
}

func newPipelineCollectors(registry *prometheus.Registry) *pipelineCollectors {
	c := &pipelineCollectors{
		ingestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ingest", Name: "documents_total",
			Help: "Ingested documents by status.",
		}, []string{"status"}),
		ingestChunks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "ingest", Name: "chunks",
			Help:    "Chunks produced per ingested document.",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}),
		ingestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "ingest", Name: "duration_seconds",
			Help:    "Ingestion duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		retrievalTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "retrieval", Name: "strategy_runs_total",
			Help: "Retrieval strategy runs by strategy and status.",
		}, []string{"strategy", "status"}),
		retrievalHits: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "retrieval", Name: "strategy_hits",
			Help:    "Hits returned per retrieval strategy run.",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
		}, []string{"strategy"}),
		extractionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "extraction", Name: "fields_total",
			Help: "Field extractions by field type and outcome.",
		}, []string{"field_type", "outcome"}),
		extractionScore: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "extraction", Name: "confidence",
			Help:    "Reported confidence of successful extractions.",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}, []string{"field_type"}),
		extractionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "extraction", Name: "duration_seconds",
			Help:    "Single field retrieve and extract duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"field_type"}),
		bulkFields: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "bulk", Name: "requested_fields",
			Help:    "Fields requested per bulk extraction.",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		}),
		bulkExtracted: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "bulk", Name: "extracted_ratio",
			Help:    "Share of bulk fields that produced a value.",
			Buckets: []float64{0, 0.25, 0.5, 0.75, 0.9, 1},
		}),
		bulkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "bulk", Name: "duration_seconds",
			Help:    "Bulk extraction duration in seconds.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "session", Name: "active",
			Help: "Live sessions.",
		}),
		sessionsReclaimed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "session", Name: "reclaimed_total",
			Help: "Sessions removed by reason.",
		}, []string{"reason"}),
		retriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "resilience", Name: "retries_total",
			Help: "Retried provider calls by operation.",
		}, []string{"operation"}),
		breakerState: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "resilience", Name: "breaker_transitions_total",
			Help: "Circuit breaker transitions by operation and target state.",
		}, []string{"operation", "state"}),
	}

	registry.MustRegister(
		c.ingestTotal, c.ingestChunks, c.ingestDuration,
		c.retrievalTotal, c.retrievalHits,
		c.extractionTotal, c.extractionScore, c.extractionLatency,
		c.bulkFields, c.bulkExtracted, c.bulkDuration,
		c.sessionsActive, c.sessionsReclaimed,
		c.retriesTotal, c.breakerState,
	)
	return c
}

func (m *HTTPServerMetrics) ObserveIngest(chunks int, elapsed time.Duration, err error) {
	if err != nil {
		m.pipeline.ingestTotal.WithLabelValues("error").Inc()
		return
	}
	m.pipeline.ingestTotal.WithLabelValues("success").Inc()
	m.pipeline.ingestChunks.Observe(float64(chunks))
	m.pipeline.ingestDuration.Observe(elapsed.Seconds())
}

func (m *HTTPServerMetrics) ObserveRetrievalStrategy(strategy string, hits int, err error) {
	if err != nil {
		m.pipeline.retrievalTotal.WithLabelValues(strategy, "error").Inc()
		return
	}
	m.pipeline.retrievalTotal.WithLabelValues(strategy, "success").Inc()
	m.pipeline.retrievalHits.WithLabelValues(strategy).Observe(float64(hits))
}

func (m *HTTPServerMetrics) ObserveExtraction(fieldType string, success, hasValue bool, confidence float64, elapsed time.Duration) {
	outcome := "null"
	switch {
	case !success:
		outcome = "error"
	case hasValue:
		outcome = "value"
	}
	m.pipeline.extractionTotal.WithLabelValues(fieldType, outcome).Inc()
	m.pipeline.extractionLatency.WithLabelValues(fieldType).Observe(elapsed.Seconds())
	if hasValue {
		m.pipeline.extractionScore.WithLabelValues(fieldType).Observe(confidence)
	}
}

func (m *HTTPServerMetrics) ObserveBulk(total, extracted int, elapsed time.Duration) {
	m.pipeline.bulkFields.Observe(float64(total))
	if total > 0 {
		m.pipeline.bulkExtracted.Observe(float64(extracted) / float64(total))
	}
	m.pipeline.bulkDuration.Observe(elapsed.Seconds())
}

func (m *HTTPServerMetrics) SessionsActive(n int) {
	m.pipeline.sessionsActive.Set(float64(n))
}

func (m *HTTPServerMetrics) SessionReclaimed(reason string) {
	m.pipeline.sessionsReclaimed.WithLabelValues(reason).Inc()
}

func (m *HTTPServerMetrics) ObserveRetry(operation string) {
	m.pipeline.retriesTotal.WithLabelValues(operation).Inc()
}

func (m *HTTPServerMetrics) ObserveBreakerState(operation string, state string) {
	m.pipeline.breakerState.WithLabelValues(operation, state).Inc()
}
