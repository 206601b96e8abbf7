package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const correlationHeader = "X-Correlation-Id"
const correlationContextKey = "correlation_id"

// Correlation assigns a per-request correlation id, honoring one the
// caller already supplied so distributed traces can be stitched together.
func Correlation() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(correlationHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(correlationContextKey, id)
		c.Header(correlationHeader, id)
		c.Next()
	}
}

// CorrelationID returns the request's correlation id.
func CorrelationID(c *gin.Context) string {
	v, ok := c.Get(correlationContextKey)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}
