package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/prometheus"
)

// Metrics records request count and latency by route template.  Unmatched
// routes are grouped under "unmatched" to bound label cardinality.
func Metrics(m *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		active := m.HTTPActiveRequests.WithLabelValues(c.Request.Method)
		active.Inc()
		defer active.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		prometheus.RecordHTTPRequest(m, c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
