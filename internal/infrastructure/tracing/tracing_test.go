package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/id"
)

func newRouter(t *testing.T, slow time.Duration) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	router := gin.New()
	router.Use(HTTPMiddleware(zap.New(core), slow))
	router.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, TraceID(c.Request.Context()))
	})
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	router.GET("/slow", func(c *gin.Context) {
		time.Sleep(20 * time.Millisecond)
		c.Status(http.StatusOK)
	})
	return router, logs
}

func TestGeneratesTraceID(t *testing.T) {
	router, logs := newRouter(t, 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/ok", nil))

	traceID := w.Header().Get(HeaderTraceID)
	require.True(t, id.IsValid(traceID))
	assert.Equal(t, traceID, w.Body.String(), "handlers see the same ID")

	entries := logs.FilterMessage("Request completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, traceID, entries[0].ContextMap()["trace_id"])
}

func TestPropagatesValidInboundID(t *testing.T) {
	router, _ := newRouter(t, 0)
	inbound := id.NewTraceID()

	req := httptest.NewRequest("GET", "/ok", nil)
	req.Header.Set(HeaderTraceID, inbound)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, inbound, w.Header().Get(HeaderTraceID))

	req = httptest.NewRequest("GET", "/ok", nil)
	req.Header.Set(HeaderTraceID, "<script>")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.NotEqual(t, "<script>", w.Header().Get(HeaderTraceID))
}

func TestLogLevels(t *testing.T) {
	router, logs := newRouter(t, 10*time.Millisecond)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/boom", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/slow", nil))

	assert.Equal(t, 1, logs.FilterMessage("Request failed").FilterLevelExact(zapcore.ErrorLevel).Len())
	assert.Equal(t, 1, logs.FilterMessage("Slow request").FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestTraceIDFromEmptyContext(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
	assert.Equal(t, "abc", TraceID(WithTraceID(context.Background(), "abc")))
}
