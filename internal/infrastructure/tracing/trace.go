package tracing

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/id"
)

// HeaderTraceID carries the trace ID on requests and responses
const HeaderTraceID = "X-Trace-ID"

type contextKey struct{}

// WithTraceID returns a context carrying traceID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKey{}, traceID)
}

// TraceID returns the trace ID carried by ctx, or ""
func TraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(contextKey{}).(string)
	return traceID
}

// resolve keeps a well-formed inbound ID so a browser can correlate its
// own logs, and mints a new one otherwise
func resolve(inbound string) string {
	if inbound != "" && len(inbound) <= 64 && id.IsValid(inbound) {
		return inbound
	}
	return id.NewTraceID()
}
