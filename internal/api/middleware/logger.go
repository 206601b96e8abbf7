package middleware

import (
	"time"

	"github.com/propgraph/propgraph/internal/platform/logger"
	"github.com/gin-gonic/gin"
)

// Logger logs one structured line per request via the shared slog logger.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Get().Info("http_request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"correlation_id", CorrelationID(c),
		)
	}
}
