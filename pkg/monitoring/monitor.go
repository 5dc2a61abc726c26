package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_sessions_started_total",
			Help: "Assessment sessions started, by mode and offline flag",
		},
		[]string{"mode", "offline"},
	)

	// reason is manual, auto, ended or discarded
	SessionsTerminated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_sessions_terminated_total",
			Help: "Assessment sessions terminated, by mode and reason",
		},
		[]string{"mode", "reason"},
	)

	BundleBuilds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offline_bundle_builds_total",
			Help: "Offline bundle build attempts, by outcome",
		},
		[]string{"outcome"},
	)

	ImageEmbedFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "offline_bundle_image_embed_failures_total",
			Help: "Question images dropped from offline bundles",
		},
	)

	SyncReconciles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_reconciles_total",
			Help: "Reconcile attempts, by outcome",
		},
		[]string{"outcome"},
	)

	ReconciledResults = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_reconciled_results_total",
			Help: "Offline results merged into the history",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(SessionsStarted)
	prometheus.MustRegister(SessionsTerminated)
	prometheus.MustRegister(BundleBuilds)
	prometheus.MustRegister(ImageEmbedFailures)
	prometheus.MustRegister(SyncReconciles)
	prometheus.MustRegister(ReconciledResults)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
