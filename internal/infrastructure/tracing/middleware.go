package tracing

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultSlowThreshold marks a request as slow in the log
const DefaultSlowThreshold = 250 * time.Millisecond

// HTTPMiddleware tags every request with a trace ID, echoes it in the
// response and logs the finished request under it. Server errors are logged
// at error level and slow requests at warn; the rest at debug.
func HTTPMiddleware(logger *zap.Logger, slow time.Duration) gin.HandlerFunc {
	if slow <= 0 {
		slow = DefaultSlowThreshold
	}
	return func(c *gin.Context) {
		traceID := resolve(c.GetHeader(HeaderTraceID))
		c.Request = c.Request.WithContext(WithTraceID(c.Request.Context(), traceID))
		c.Header(HeaderTraceID, traceID)

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("trace_id", traceID),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Error(c.Errors.Last()))
		}

		switch {
		case status >= 500:
			logger.Error("Request failed", fields...)
		case elapsed >= slow:
			logger.Warn("Slow request", fields...)
		default:
			logger.Debug("Request completed", fields...)
		}
	}
}
