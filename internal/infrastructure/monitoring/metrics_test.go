package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordTransition("opened")
		m.RecordKill()
		m.RecordRelease("timer", 3)
		m.SetAppsOpen(2)
		m.RecordHTTPRequest("GET", "/health", "200", time.Millisecond)
	})
	assert.Equal(t, MetricsSnapshot{}, m.Snapshot())
}

func TestRecordKillUpdatesSnapshot(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry())

	m.RecordKill()
	m.RecordKill()
	m.RecordTeardownFailure()

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Kills)
	assert.Equal(t, int64(1), snap.TeardownFailures)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Kills))
}

func TestRecordRelease(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry())

	m.RecordRelease("interval", 2)
	m.RecordRelease("interval", 0)
	m.RecordRelease("frame", 1)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.ResourcesReleased.WithLabelValues("interval")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ResourcesReleased.WithLabelValues("frame")))
}

func TestHTTPErrorsCounted(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry())

	m.RecordHTTPRequest("POST", "/api/apps/:id/open", "404", time.Millisecond)
	m.RecordHTTPRequest("GET", "/health", "200", time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
}
