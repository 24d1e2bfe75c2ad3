package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/enrollment-gate/internal/models"
)

// Availability cache outcomes recorded by MetricsService.
const (
	AvailabilityHit         = "hit"
	AvailabilityFetched     = "fetched"
	AvailabilityRateLimited = "rate_limited"
	AvailabilityFailed      = "failed"
)

// MetricsService encapsulates Prometheus instrumentation for the engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	availability    *prometheus.CounterVec
	newOfferings    prometheus.Counter
	decisions       *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	cacheWrite      prometheus.Observer
}

// NewMetricsService registers the engine's collectors on a private registry.
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

	availability := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "availability_cache_requests_total",
		Help: "Availability cache reads by outcome",
	}, []string{"outcome"})

	newOfferings := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "availability_new_offerings_total",
		Help: "New offerings detected across refreshes",
	})

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eligibility_decisions_total",
		Help: "Eligibility decisions by outcome",
	}, []string{"decision"})

	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrollment_submissions_total",
		Help: "Enrollment submissions by outcome code",
	}, []string{"outcome"})

	backendDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backend_request_duration_seconds",
		Help:    "Latency of calls to the enrollment backend",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "status"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_hits_total",
		Help: "Course-type catalog cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_misses_total",
		Help: "Course-type catalog cache misses",
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_cache_write_seconds",
		Help:    "Latency for catalog cache writes",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, availability, newOfferings, decisions, submissions, backendDuration, cacheHits, cacheMisses, cacheWrite, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		availability:    availability,
		newOfferings:    newOfferings,
		decisions:       decisions,
		submissions:     submissions,
		backendDuration: backendDuration,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		cacheWrite:      cacheWrite,
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

// Registry returns the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// ObserveBackendCall records latency of one backend request.
func (m *MetricsService) ObserveBackendCall(endpoint string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.backendDuration.WithLabelValues(endpoint, fmt.Sprintf("%d", status)).Observe(duration.Seconds())
}

// RecordAvailability counts one availability cache read by outcome.
func (m *MetricsService) RecordAvailability(outcome string) {
	if m == nil {
		return
	}
	m.availability.WithLabelValues(outcome).Inc()
}

// RecordNewOfferings adds newly detected offerings.
func (m *MetricsService) RecordNewOfferings(delta int) {
	if m == nil || delta <= 0 {
		return
	}
	m.newOfferings.Add(float64(delta))
}

// RecordDecision counts an eligibility decision.
func (m *MetricsService) RecordDecision(decision models.EligibilityDecision) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(string(decision)).Inc()
}

// RecordSubmission counts a submission outcome: "accepted" or an error code.
func (m *MetricsService) RecordSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// RecordCacheOperation records a catalog cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}

// ObserveCacheWrite tracks the duration of catalog cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}
