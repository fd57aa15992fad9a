package monitoring

import (
	"strconv"
	"sync"
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

	StoreOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "table_store_operations_total",
			Help: "Table store operations by table, operation and outcome",
		},
		[]string{"table", "op", "outcome"},
	)

	StoreDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "table_store_operation_duration_seconds",
			Help:    "Duration of table store operations",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"table", "op"},
	)

	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_sessions_started_total",
			Help: "Exam sessions started per exam type",
		},
		[]string{"exam_type"},
	)

	SessionsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_sessions_completed_total",
			Help: "Exam sessions completed per exam type",
		},
		[]string{"exam_type"},
	)

	ScorePercent = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exam_score_percent",
			Help:    "Distribution of final exam scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"exam_type"},
	)

	DegradedRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stored_records_degraded_total",
			Help: "Stored records decoded with a repair or fallback",
		},
		[]string{"table", "field"},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(StoreOperations)
		prometheus.MustRegister(StoreDuration)
		prometheus.MustRegister(SessionsStarted)
		prometheus.MustRegister(SessionsCompleted)
		prometheus.MustRegister(ScorePercent)
		prometheus.MustRegister(DegradedRecords)
	})
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
