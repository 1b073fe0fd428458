// Package metrics exposes docqa's Prometheus instrumentation.
//
// Every method is safe on a nil *Metrics, so components can be built
// without instrumentation in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

const namespace = "docqa"

// Metrics holds the application collectors and their registry.
type Metrics struct {
	registry *prometheus.Registry

	embeddings        *prometheus.CounterVec
	embeddingFailures prometheus.Counter
	breakerState      prometheus.Gauge
	ingestDuration    prometheus.Histogram
	queryDuration     prometheus.Histogram
	documentsIngested prometheus.Counter
	documentsDeleted  prometheus.Counter
	indexChunks       prometheus.Gauge
	httpRequests      *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		embeddings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embeddings_total",
			Help:      "Embeddings produced, by provenance (service or fallback).",
		}, []string{"provenance"}),
		embeddingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_service_failures_total",
			Help:      "Failed calls to the external embedding service.",
		}),
		breakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "embedding_breaker_open",
			Help:      "1 while the embedding circuit breaker is open.",
		}),
		ingestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Time to chunk, embed and index one document.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Time to embed a question and search the index.",
			Buckets:   prometheus.DefBuckets,
		}),
		documentsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_ingested_total",
			Help:      "Documents successfully ingested.",
		}),
		documentsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_deleted_total",
			Help:      "Documents deleted.",
		}),
		indexChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_chunks",
			Help:      "Chunks currently in the vector index.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route and status code.",
		}, []string{"method", "route", "code"}),
	}

	m.registry.MustRegister(
		m.embeddings,
		m.embeddingFailures,
		m.breakerState,
		m.ingestDuration,
		m.queryDuration,
		m.documentsIngested,
		m.documentsDeleted,
		m.indexChunks,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveEmbeddings counts n embeddings of the given provenance.
func (m *Metrics) ObserveEmbeddings(p domain.EmbeddingProvenance, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.embeddings.WithLabelValues(p.String()).Add(float64(n))
}

// ObserveEmbeddingFailure counts one failed embedding attempt.
func (m *Metrics) ObserveEmbeddingFailure() {
	if m == nil {
		return
	}
	m.embeddingFailures.Inc()
}

// SetBreakerOpen records the circuit breaker state.
func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.breakerState.Set(1)
		return
	}
	m.breakerState.Set(0)
}

// ObserveIngest records a successful ingestion.
func (m *Metrics) ObserveIngest(d time.Duration) {
	if m == nil {
		return
	}
	m.ingestDuration.Observe(d.Seconds())
	m.documentsIngested.Inc()
}

// ObserveQuery records a query duration.
func (m *Metrics) ObserveQuery(d time.Duration) {
	if m == nil {
		return
	}
	m.queryDuration.Observe(d.Seconds())
}

// ObserveDelete records a deleted document.
func (m *Metrics) ObserveDelete() {
	if m == nil {
		return
	}
	m.documentsDeleted.Inc()
}

// SetIndexChunks records the index size.
func (m *Metrics) SetIndexChunks(n int) {
	if m == nil {
		return
	}
	m.indexChunks.Set(float64(n))
}

// ObserveHTTP counts one HTTP request.
func (m *Metrics) ObserveHTTP(method, route, code string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, code).Inc()
}
