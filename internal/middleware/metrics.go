package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_http_requests_total",
		Help: "HTTP requests processed, by method, route and status code.",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_http_request_duration_seconds",
		Help:    "HTTP request latency distribution.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	uploadedRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_uploaded_records_total",
		Help: "Product records accepted into the store by uploads.",
	})

	uploadFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_upload_failures_total",
		Help: "Upload attempts that ended in an error.",
	})
)

// Metrics records request counts and latency for every matched route
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// CountUploadedRecords tracks records accepted by a completed upload
func CountUploadedRecords(n int) {
	uploadedRecordsTotal.Add(float64(n))
}

// CountUploadFailure tracks a failed upload attempt
func CountUploadFailure() {
	uploadFailuresTotal.Inc()
}
