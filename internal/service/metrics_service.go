package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the workflow engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	transitionTotal *prometheus.CounterVec
	reviewResolved  prometheus.Counter
	exportTotal     *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
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

	transitionTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_transitions_total",
		Help: "Total workflow status transitions by entity and target status",
	}, []string{"entity", "status"})

	reviewResolved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "review_items_resolved_total",
		Help: "Total review items resolved",
	})

	exportTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exports_total",
		Help: "Total generated exports by format",
	}, []string{"format"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, transitionTotal, reviewResolved, exportTotal, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		transitionTotal: transitionTotal,
		reviewResolved:  reviewResolved,
		exportTotal:     exportTotal,
	}
}

// Handler serves the scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// GinMiddleware records request duration and totals per route.
func (s *MetricsService) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		s.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		s.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

// RecordTransition counts a workflow status change.
func (s *MetricsService) RecordTransition(entity, status string) {
	s.transitionTotal.WithLabelValues(entity, status).Inc()
}

// RecordReviewResolved counts a resolved review item.
func (s *MetricsService) RecordReviewResolved() {
	s.reviewResolved.Inc()
}

// RecordExport counts a generated export.
func (s *MetricsService) RecordExport(format string) {
	s.exportTotal.WithLabelValues(format).Inc()
}
