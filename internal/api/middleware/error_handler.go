package middleware

import (
	"net/http"

	domainerrors "github.com/propgraph/propgraph/internal/domain/errors"
	"github.com/propgraph/propgraph/internal/platform/logger"
	"github.com/gin-gonic/gin"
)

// ErrorHandler recovers panics as 500s and maps any AppError left on the
// gin context by a handler (via c.Error) onto the §6 status code table and
// the {error, code, details?} envelope. Internal errors are logged with a
// correlation id and never echoed to the client (§7). Correlation() runs
// earlier in the chain than this middleware's post-Next() block, so the
// request's id is already in context by the time we need it here.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				correlationID := CorrelationID(c)
				logger.Get().Error("panic recovered", "correlation_id", correlationID, "panic", r, "path", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":   "internal server error",
					"code":    "INTERNAL_ERROR",
					"details": gin.H{"correlation_id": correlationID},
				})
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		correlationID := CorrelationID(c)
		err := c.Errors.Last().Err
		appErr := domainerrors.AsAppError(err)
		if appErr == nil {
			logger.Get().Error("unhandled error", "correlation_id", correlationID, "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "internal server error",
				"code":    "INTERNAL_ERROR",
				"details": gin.H{"correlation_id": correlationID},
			})
			return
		}
		appErr.WithMeta("correlation_id", correlationID)

		status := statusFor(appErr.Kind)
		if status == http.StatusInternalServerError {
			logger.Get().Error("internal error", "correlation_id", correlationID, "code", appErr.Code, "op", appErr.Op, "cause", appErr.Cause)
			c.JSON(status, gin.H{
				"error":   "internal server error",
				"code":    appErr.Code,
				"details": gin.H{"correlation_id": correlationID},
			})
			return
		}

		body := gin.H{"error": appErr.Message, "code": appErr.Code}
		if len(appErr.Metadata) > 0 {
			body["details"] = appErr.Metadata
		}
		c.JSON(status, body)
	}
}

func statusFor(kind domainerrors.ErrorKind) int {
	switch kind {
	case domainerrors.KindValidation, domainerrors.KindBadRequest:
		return http.StatusBadRequest
	case domainerrors.KindUnauthorized:
		return http.StatusUnauthorized
	case domainerrors.KindForbidden:
		return http.StatusForbidden
	case domainerrors.KindNotFound:
		return http.StatusNotFound
	case domainerrors.KindConflict:
		return http.StatusConflict
	case domainerrors.KindPreconditionFailed:
		return http.StatusConflict
	case domainerrors.KindTimeout, domainerrors.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
