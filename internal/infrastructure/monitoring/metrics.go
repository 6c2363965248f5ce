package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
// Every Record/Set method is safe on a nil receiver so components can run
// without instrumentation.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Lifecycle metrics
	AppsOpen    prometheus.Gauge
	Transitions *prometheus.CounterVec

	// Resource registry metrics
	ResourcesAcquired *prometheus.CounterVec
	ResourcesReleased *prometheus.CounterVec
	Kills             prometheus.Counter
	TeardownFailures  prometheus.Counter
	LongTasks         *prometheus.CounterVec

	// Store metrics
	StoreSaves    *prometheus.CounterVec
	StoreHydrates *prometheus.CounterVec
	StoreRecords  prometheus.Gauge
	StorePruned   prometheus.Counter

	// Interaction metrics
	Drags *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	snapshot MetricsSnapshot
	mu       sync.RWMutex
}

// MetricsSnapshot holds current metric values for the JSON API
type MetricsSnapshot struct {
	TotalRequests     int64 `json:"total_requests"`
	TotalErrors       int64 `json:"total_errors"`
	OpenApps          int64 `json:"open_apps"`
	ActiveConnections int64 `json:"active_connections"`
	Kills             int64 `json:"kills"`
	TeardownFailures  int64 `json:"teardown_failures"`
}

// NewMetrics creates a metrics collector on the default Prometheus registry
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates a metrics collector registered on reg
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "desktop_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),

		AppsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "desktop_apps_open",
				Help: "Number of open applications",
			},
		),
		Transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_app_transitions_total",
				Help: "Lifecycle transitions by kind",
			},
			[]string{"transition"},
		),

		ResourcesAcquired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_resources_acquired_total",
				Help: "Resources acquired through application contexts",
			},
			[]string{"kind"},
		),
		ResourcesReleased: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_resources_released_total",
				Help: "Resources released by kill",
			},
			[]string{"kind"},
		),
		Kills: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "desktop_process_kills_total",
				Help: "Total number of application kills",
			},
		),
		TeardownFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "desktop_teardown_failures_total",
				Help: "Teardown callbacks that panicked",
			},
		),
		LongTasks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_long_tasks_total",
				Help: "Application callbacks that ran longer than 50ms",
			},
			[]string{"app"},
		),

		StoreSaves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_store_saves_total",
				Help: "Persisted layout writes by result",
			},
			[]string{"result"},
		),
		StoreHydrates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_store_hydrations_total",
				Help: "Layout hydrations by source",
			},
			[]string{"source"},
		),
		StoreRecords: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "desktop_store_records",
				Help: "Number of application records held by the store",
			},
		),
		StorePruned: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "desktop_store_pruned_total",
				Help: "Records removed because their application is no longer declared",
			},
		),

		Drags: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_pointer_gestures_total",
				Help: "Pointer gestures by subject and outcome",
			},
			[]string{"subject", "outcome"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "desktop_websocket_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_websocket_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "desktop_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}
}

// TrackUptime updates the uptime gauge every second until ctx is done
func (m *Metrics) TrackUptime(ctx context.Context) {
	if m == nil {
		return
	}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Uptime.Set(time.Since(m.startTime).Seconds())
		}
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordTransition records a lifecycle transition (opened, closed, minimized...)
func (m *Metrics) RecordTransition(transition string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(transition).Inc()
}

// SetAppsOpen sets the number of open applications
func (m *Metrics) SetAppsOpen(count int) {
	if m == nil {
		return
	}
	m.AppsOpen.Set(float64(count))
	m.mu.Lock()
	m.snapshot.OpenApps = int64(count)
	m.mu.Unlock()
}

// RecordAcquire records a resource acquired through a context
func (m *Metrics) RecordAcquire(kind string) {
	if m == nil {
		return
	}
	m.ResourcesAcquired.WithLabelValues(kind).Inc()
}

// RecordRelease records n resources of kind released by kill
func (m *Metrics) RecordRelease(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ResourcesReleased.WithLabelValues(kind).Add(float64(n))
}

// RecordKill records a completed kill
func (m *Metrics) RecordKill() {
	if m == nil {
		return
	}
	m.Kills.Inc()
	m.mu.Lock()
	m.snapshot.Kills++
	m.mu.Unlock()
}

// RecordTeardownFailure records a teardown callback that panicked
func (m *Metrics) RecordTeardownFailure() {
	if m == nil {
		return
	}
	m.TeardownFailures.Inc()
	m.mu.Lock()
	m.snapshot.TeardownFailures++
	m.mu.Unlock()
}

// RecordLongTask records a callback that exceeded the long-task budget
func (m *Metrics) RecordLongTask(app string) {
	if m == nil {
		return
	}
	m.LongTasks.WithLabelValues(app).Inc()
}

// RecordStoreSave records a persistence attempt ("ok", "error", "rejected")
func (m *Metrics) RecordStoreSave(result string) {
	if m == nil {
		return
	}
	m.StoreSaves.WithLabelValues(result).Inc()
}

// RecordHydrate records where persisted state came from ("current", "legacy", "empty", "corrupt")
func (m *Metrics) RecordHydrate(source string) {
	if m == nil {
		return
	}
	m.StoreHydrates.WithLabelValues(source).Inc()
}

// SetStoreRecords sets the number of records held by the store
func (m *Metrics) SetStoreRecords(count int) {
	if m == nil {
		return
	}
	m.StoreRecords.Set(float64(count))
}

// RecordPruned records n pruned records
func (m *Metrics) RecordPruned(n int) {
	if m == nil || n == 0 {
		return
	}
	m.StorePruned.Add(float64(n))
}

// RecordGesture records a finished pointer gesture ("drag", "click", "cancelled")
func (m *Metrics) RecordGesture(subject, outcome string) {
	if m == nil {
		return
	}
	m.Drags.WithLabelValues(subject, outcome).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns the current JSON-friendly metric values
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
