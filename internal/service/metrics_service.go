package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/shift-sync-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP surface
// and the reconciliation workflow. All record methods are nil-receiver safe so
// callers can run without metrics wired.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	proposalsSubmitted *prometheus.CounterVec
	proposalsResolved  *prometheus.CounterVec
	verdicts           *prometheus.CounterVec
	reconcileCycles    prometheus.Counter
	reconcileFailures  prometheus.Counter
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheLatency       prometheus.Observer
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

	proposalsSubmitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proposals_submitted_total",
		Help: "Change proposals submitted, by origin",
	}, []string{"origin"})

	proposalsResolved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proposals_resolved_total",
		Help: "Change proposals reaching a terminal state, by status and resolution",
	}, []string{"status", "resolution"})

	verdicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "conflict_verdicts_total",
		Help: "Conflict detector verdicts, by status",
	}, []string{"status"})

	reconcileCycles := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_cycles_total",
		Help: "Completed calendar reconciliation cycles",
	})

	reconcileFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_failures_total",
		Help: "Proposal submissions that failed during reconciliation",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total schedule cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total schedule cache misses",
	})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for schedule cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, proposalsSubmitted, proposalsResolved,
		verdicts, reconcileCycles, reconcileFailures, cacheHits, cacheMisses, cacheLatency, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		proposalsSubmitted: proposalsSubmitted,
		proposalsResolved:  proposalsResolved,
		verdicts:           verdicts,
		reconcileCycles:    reconcileCycles,
		reconcileFailures:  reconcileFailures,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		cacheLatency:       cacheLatency,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordProposalSubmitted counts a new submission.
func (m *MetricsService) RecordProposalSubmitted(origin models.ProposalOrigin) {
	if m == nil {
		return
	}
	m.proposalsSubmitted.WithLabelValues(string(origin)).Inc()
}

// RecordProposalResolved counts a terminal workflow outcome.
func (m *MetricsService) RecordProposalResolved(status models.ProposalStatus, resolution string) {
	if m == nil {
		return
	}
	m.proposalsResolved.WithLabelValues(string(status), resolution).Inc()
}

// RecordVerdict counts a detector classification.
func (m *MetricsService) RecordVerdict(status models.VerdictStatus) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(string(status)).Inc()
}

// RecordReconcileCycle counts a finished cycle and its failed submissions.
func (m *MetricsService) RecordReconcileCycle(failures int) {
	if m == nil {
		return
	}
	m.reconcileCycles.Inc()
	if failures > 0 {
		m.reconcileFailures.Add(float64(failures))
	}
}

// RecordCacheOperation records a schedule cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
