package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface, the ledger's optimistic transactions and the summary cache.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	ledgerAttempts  *prometheus.HistogramVec
	ledgerConflicts *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	ledgerAttempts := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_tx_attempts",
		Help:    "Attempts needed for a ledger transaction to commit",
		Buckets: []float64{1, 2, 3, 4, 5, 8, 10},
	}, []string{"op"})

	ledgerConflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_tx_conflicts_total",
		Help: "Version conflicts observed by ledger transactions",
	}, []string{"op"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "summary_cache_hits_total",
		Help: "Summary responses served from cache",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "summary_cache_misses_total",
		Help: "Summary responses computed from storage",
	})

	registry.MustRegister(
		requestDuration,
		requestTotal,
		ledgerAttempts,
		ledgerConflicts,
		cacheHits,
		cacheMisses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		ledgerAttempts:  ledgerAttempts,
		ledgerConflicts: ledgerConflicts,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler serves the Prometheus exposition endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one completed HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, fmt.Sprintf("%d", status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveLedgerTx records how many attempts a committed transaction took.
func (s *MetricsService) ObserveLedgerTx(op string, attempts int) {
	s.ledgerAttempts.WithLabelValues(op).Observe(float64(attempts))
}

// IncLedgerConflict counts one optimistic-concurrency conflict.
func (s *MetricsService) IncLedgerConflict(op string) {
	s.ledgerConflicts.WithLabelValues(op).Inc()
}

// IncCacheHit counts a summary served from Redis.
func (s *MetricsService) IncCacheHit() {
	s.cacheHits.Inc()
}

// IncCacheMiss counts a summary recomputed from storage.
func (s *MetricsService) IncCacheMiss() {
	s.cacheMisses.Inc()
}
