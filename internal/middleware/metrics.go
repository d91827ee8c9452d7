package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/psych-platform/chatbot-backend/internal/telemetry"
)

// Metrics records a request counter and a latency histogram for every request
// through the router. The path label comes from c.FullPath() — the matched
// route template — so user-supplied path segments cannot inflate label
// cardinality; unmatched requests (404/405) use the literal "<no-route>".
//
// Register after gin.Recovery() and RequestID so the status set by error
// handlers is captured correctly.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "<no-route>"
		}

		duration := time.Since(start).Seconds()
		method := c.Request.Method
		status := fmt.Sprintf("%d", c.Writer.Status())

		telemetry.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}
