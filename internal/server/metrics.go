package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "demand_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"route", "method", "status"},
	)

	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "demand_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	predictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "demand_predictions_total",
			Help: "Total number of days scored against the model",
		},
		[]string{"operation"},
	)

	evaluationScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "demand_evaluation_score",
			Help: "Most recent evaluation score of the loaded model",
		},
		[]string{"metric"},
	)
)

// route returns the matched route pattern, falling back to a fixed label so unmatched
// paths do not grow the label space
func route(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return "unmatched"
}

// instrument records the request count and latency of every handled request
func instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		r := route(c)
		requestDuration.WithLabelValues(r, c.Request.Method, status).Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(r, c.Request.Method, status).Inc()
	}
}
