package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tenx-cards/core/internal/pkg/metrics"
	"go.uber.org/zap"
)

// Logger returns a Gin middleware that logs each request using zap and
// records it in m.
func Logger(log *zap.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, route, status, latency.Seconds())
	}
}
