package middleware

import (
	"strconv"
	"time"

	"github.com/flexprice/flexprice/internal/logger"
	"github.com/flexprice/flexprice/internal/types"
	"github.com/gin-gonic/gin"
)

// LoggingMiddleware logs one structured line per request and stamps
// X-Process-Time (the processing-latency header supplemented from
// original_source, §9).
func LoggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		c.Header("X-Process-Time", strconv.FormatFloat(duration.Seconds(), 'f', -1, 64))

		log.Infow("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", duration.Milliseconds(),
			"request_id", types.GetRequestID(c.Request.Context()),
			"tenant_id", types.GetTenantID(c.Request.Context()),
		)
	}
}

// RecoveryMiddleware converts a panic into a 500 ErrorResponse instead
// of letting gin's default recovery write a bare-text response.
func RecoveryMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("panic recovered", "error", r, "path", c.Request.URL.Path)
				c.AbortWithStatusJSON(500, gin.H{
					"success": false,
					"error":   gin.H{"code": "internal", "message": "an unexpected error occurred"},
				})
			}
		}()
		c.Next()
	}
}
