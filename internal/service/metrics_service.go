package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSnapshot is a small JSON view of the counters.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	StoreOperations          uint64    `json:"storeOperations"`
	StoreFailures            uint64    `json:"storeFailures"`
	LoginFailures            uint64    `json:"loginFailures"`
	InvalidSubmissions       uint64    `json:"invalidSubmissions"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	storeDuration   *prometheus.HistogramVec
	storeErrors     *prometheus.CounterVec
	logins          *prometheus.CounterVec
	submissions     *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	storeOps             uint64
	storeFailures        uint64
	loginFailures        uint64
	invalidSubmissions   uint64
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

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roster_store_operation_seconds",
		Help:    "Latency of key-value store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "collection"})

	storeErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_store_errors_total",
		Help: "Key-value store operations that failed",
	}, []string{"op", "collection"})

	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_logins_total",
		Help: "Login attempts by outcome",
	}, []string{"outcome"})

	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_form_submissions_total",
		Help: "Student form submissions by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, storeDuration, storeErrors, logins, submissions, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		storeDuration:   storeDuration,
		storeErrors:     storeErrors,
		logins:          logins,
		submissions:     submissions,
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
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveStoreOperation records one key-value store call.
func (m *MetricsService) ObserveStoreOperation(op, collection string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.storeDuration.WithLabelValues(op, collection).Observe(duration.Seconds())
	atomic.AddUint64(&m.storeOps, 1)
	if err != nil {
		m.storeErrors.WithLabelValues(op, collection).Inc()
		atomic.AddUint64(&m.storeFailures, 1)
	}
}

// RecordLogin counts a login attempt.
func (m *MetricsService) RecordLogin(success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
		atomic.AddUint64(&m.loginFailures, 1)
	}
	m.logins.WithLabelValues(outcome).Inc()
}

// RecordSubmission counts a form submission.
func (m *MetricsService) RecordSubmission(valid bool) {
	if m == nil {
		return
	}
	outcome := "accepted"
	if !valid {
		outcome = "rejected"
		atomic.AddUint64(&m.invalidSubmissions, 1)
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		StoreOperations:          atomic.LoadUint64(&m.storeOps),
		StoreFailures:            atomic.LoadUint64(&m.storeFailures),
		LoginFailures:            atomic.LoadUint64(&m.loginFailures),
		InvalidSubmissions:       atomic.LoadUint64(&m.invalidSubmissions),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
