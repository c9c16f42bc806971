package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hosteldesk/facility-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides
// lightweight snapshots for the admin performance endpoint.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	requestCount         uint64
	errorCount           uint64
	requestDurationTotal uint64
	startedAt            time.Time

	notificationsSent func() int64
}

// NewMetricsService registers core Prometheus collectors against a private registry.
func NewMetricsService(notificationsSent func() int64) *MetricsService {
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

	errorTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "http_errors_total",
		Help: "Total number of HTTP responses with status >= 500",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	collectors := []prometheus.Collector{requestDuration, requestTotal, errorTotal, cacheHits, cacheMisses, goroutines}

	if notificationsSent != nil {
		collectors = append(collectors, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "notifications_sent_total",
			Help: "Total notifications delivered since startup",
		}, func() float64 {
			return float64(notificationsSent())
		}))
	}

	registry.MustRegister(collectors...)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		errorTotal:        errorTotal,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		startedAt:         time.Now().UTC(),
		notificationsSent: notificationsSent,
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

// ObserveHTTPRequest records request metrics and aggregates stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
	if status >= http.StatusInternalServerError {
		m.errorTotal.Inc()
		atomic.AddUint64(&m.errorCount, 1)
	}
}

// RecordCacheOperation records cache hit/miss counters.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// Snapshot returns aggregated counters for the admin performance view.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	errors := atomic.LoadUint64(&m.errorCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgLatency time.Duration
	if requests > 0 {
		avgLatency = time.Duration(reqDuration / requests)
	}

	var sent int64
	if m.notificationsSent != nil {
		sent = m.notificationsSent()
	}

	return models.SystemMetrics{
		RequestsTotal:     int64(requests),
		ErrorsTotal:       int64(errors),
		AvgLatency:        avgLatency,
		NotificationsSent: sent,
		Uptime:            time.Since(m.startedAt),
		CollectedAt:       time.Now().UTC(),
	}
}
