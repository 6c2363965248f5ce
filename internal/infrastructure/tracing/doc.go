/*
Package tracing tags HTTP requests with a trace ID.

The ID comes from the X-Trace-ID request header when it is a valid ULID and
is generated otherwise. It is stored in the request context, returned in the
response header and attached to the request log line, so a browser-side
error can be matched to the server log.

	router.Use(tracing.HTTPMiddleware(logger, tracing.DefaultSlowThreshold))

	func handler(c *gin.Context) {
		logger.Warn("...", zap.String("trace_id", tracing.TraceID(c.Request.Context())))
	}
*/
package tracing
