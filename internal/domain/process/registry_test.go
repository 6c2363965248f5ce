package process

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/bus"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/surface"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/loop"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

type fixture struct {
	sched *loop.Manual
	bus   *bus.Local
	reg   *Registry
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	sched := loop.NewManual()
	b := bus.NewLocal(zaptest.NewLogger(t))
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	return &fixture{sched: sched, bus: b, reg: NewRegistry(sched, b, opts...)}
}

func TestNoCallbackAfterKill(t *testing.T) {
	f := newFixture(t)
	target := surface.NewTarget()
	ctx := f.reg.Context("A")

	fired := map[string]int{}
	ctx.Every(10*time.Millisecond, func() { fired["every"]++ })
	ctx.After(20*time.Millisecond, func() { fired["after"]++ })
	ctx.Frame(func(time.Duration) { fired["frame"]++ })
	ctx.Listen(target, "click", func(types.InputEvent) { fired["input"]++ })
	ctx.On("custom", func(bus.Message) { fired["bus"]++ })

	f.reg.Kill("A")

	f.sched.Advance(time.Second)
	f.sched.Tick()
	target.Dispatch(types.InputEvent{Type: "click"})
	f.bus.Publish("custom", nil)

	assert.Empty(t, fired)
	assert.Equal(t, 0, f.sched.Pending())
	assert.Equal(t, 0, target.Count("click"))
	assert.Equal(t, 0, f.bus.Count("custom"))
	assert.Equal(t, ResourceCount{}, f.reg.Resources("A"))
	assert.False(t, f.reg.Alive("A"))
}

func TestKillOrder(t *testing.T) {
	f := newFixture(t)
	ctx := f.reg.Context("A")

	var order []string
	ctx.Every(time.Second, func() {})
	ctx.On("topic", func(bus.Message) {})
	ctx.OnCleanup(func() {
		// Every resource is still held when teardown hooks run
		order = append(order, "cleanup")
		assert.Equal(t, 1, f.bus.Count("topic"))
		assert.Equal(t, 1, f.sched.Pending())
	})
	ctx.OnCleanup(func() { order = append(order, "cleanup2") })

	f.reg.Kill("A")

	assert.Equal(t, []string{"cleanup", "cleanup2"}, order)
	assert.Equal(t, 0, f.bus.Count("topic"))
	assert.Equal(t, 0, f.sched.Pending())
}

func TestPanickingTeardownIsolated(t *testing.T) {
	metrics := monitoring.NewMetricsWith(prometheus.NewRegistry())
	f := newFixture(t, WithMetrics(metrics))
	ctx := f.reg.Context("A")

	ran := false
	ctx.OnCleanup(func() { panic("broken teardown") })
	ctx.OnCleanup(func() { ran = true })
	ctx.Every(time.Second, func() {})

	assert.NotPanics(t, func() { f.reg.Kill("A") })
	assert.True(t, ran)
	assert.Equal(t, 0, f.sched.Pending())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.TeardownFailures))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Kills))
}

func TestTeardownFailureLoggedForApp(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	f := newFixture(t, WithLogger(zap.New(core)))
	f.reg.Context("notes").OnCleanup(func() { panic("broken teardown") })

	f.reg.Kill("notes")

	failed := logs.FilterMessage("Teardown callback panicked").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "notes", failed[0].ContextMap()["app_id"])
	assert.Equal(t, "broken teardown", failed[0].ContextMap()["panic"])

	killed := logs.FilterMessage("Killed application").All()
	require.Len(t, killed, 1)
	assert.Equal(t, "notes", killed[0].ContextMap()["app_id"])
}

func TestKillIsReentrant(t *testing.T) {
	f := newFixture(t)
	ctx := f.reg.Context("A")

	calls := 0
	ctx.OnCleanup(func() {
		calls++
		f.reg.Kill("A")
	})

	f.reg.Kill("A")
	f.reg.Kill("A")
	assert.Equal(t, 1, calls)
}

func TestKillUnknownIsNoop(t *testing.T) {
	f := newFixture(t)
	assert.NotPanics(t, func() { f.reg.Kill("nobody") })
	_, ok := f.reg.Stats("nobody")
	assert.False(t, ok)
}

func TestDeadContext(t *testing.T) {
	f := newFixture(t)
	stale := f.reg.Context("A")
	f.reg.Kill("A")

	fired := false
	assert.NotPanics(t, func() {
		assert.Equal(t, loop.Handle(0), stale.Every(time.Millisecond, func() { fired = true }))
		assert.Equal(t, loop.Handle(0), stale.After(time.Millisecond, func() { fired = true }))
		assert.Equal(t, loop.Handle(0), stale.Frame(func(time.Duration) { fired = true }))
		assert.Equal(t, bus.Subscription(0), stale.On("t", func(bus.Message) { fired = true }))
		stale.OnCleanup(func() { fired = true })
		stale.ClearEvery(1)
		stale.Off(1)
	})

	f.sched.Advance(time.Second)
	f.sched.Tick()
	f.bus.Publish("t", nil)

	assert.False(t, fired)
	assert.False(t, stale.Alive())
	assert.Empty(t, f.reg.IDs(), "a dead context never recreates a ledger")

	// A fresh context is independent of the stale one
	fresh := f.reg.Context("A")
	stale.Every(time.Millisecond, func() {})
	assert.True(t, fresh.Alive())
	assert.Equal(t, 0, f.reg.Resources("A").Total)
}

func TestAcquireDuringTeardownIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := f.reg.Context("A")

	ctx.OnCleanup(func() {
		ctx.Every(time.Millisecond, func() { t.Error("timer acquired during kill fired") })
	})
	f.reg.Kill("A")

	f.sched.Advance(time.Second)
	assert.Equal(t, 0, f.sched.Pending())
}

func TestOneShotLeavesLedgerBeforeCallback(t *testing.T) {
	f := newFixture(t)
	ctx := f.reg.Context("A")

	var duringTimeout, duringFrame ResourceCount
	ctx.After(10*time.Millisecond, func() { duringTimeout = f.reg.Resources("A") })
	ctx.Frame(func(time.Duration) { duringFrame = f.reg.Resources("A") })
	assert.Equal(t, ResourceCount{Timers: 1, Animations: 1, Total: 2}, f.reg.Resources("A"))

	f.sched.Tick()
	assert.Equal(t, 0, duringFrame.Animations)
	assert.Equal(t, 1, duringFrame.Timers)

	f.sched.Advance(10 * time.Millisecond)
	assert.Equal(t, 0, duringTimeout.Timers)
	assert.Equal(t, 0, f.reg.Resources("A").Total)
}

func TestManualRelease(t *testing.T) {
	f := newFixture(t)
	target := surface.NewTarget()
	ctx := f.reg.Context("A")

	ticks := 0
	every := ctx.Every(10*time.Millisecond, func() { ticks++ })
	after := ctx.After(10*time.Millisecond, func() { t.Error("cleared timeout fired") })
	frame := ctx.Frame(func(time.Duration) { t.Error("cancelled frame fired") })
	listener := ctx.Listen(target, "keydown", func(types.InputEvent) {})
	sub := ctx.On("t", func(bus.Message) {})

	f.sched.Advance(5 * time.Millisecond)
	ctx.ClearEvery(every)
	ctx.ClearAfter(after)
	ctx.CancelFrame(frame)
	ctx.Unlisten(target, "keydown", listener)
	ctx.Off(sub)

	f.sched.Advance(time.Second)
	f.sched.Tick()

	assert.Equal(t, 0, ticks)
	assert.Equal(t, ResourceCount{}, f.reg.Resources("A"))
	assert.Equal(t, 0, target.Count("keydown"))
	assert.Equal(t, 0, f.bus.Count("t"))
}

func TestResourceCounts(t *testing.T) {
	f := newFixture(t)
	target := surface.NewTarget()
	ctx := f.reg.Context("A")

	ctx.Every(time.Second, func() {})
	ctx.After(time.Second, func() {})
	ctx.Frame(func(time.Duration) {})
	ctx.Listen(target, "click", func(types.InputEvent) {})
	ctx.On("x", func(bus.Message) {})
	ctx.OnCleanup(func() {})

	assert.Equal(t, ResourceCount{Timers: 2, Events: 2, Animations: 1, Cleanups: 1, Total: 5}, f.reg.Resources("A"))
	assert.Equal(t, []string{"A"}, f.reg.IDs())
}

func TestStatsMeasureCallbacks(t *testing.T) {
	now := time.Unix(1000, 0)
	f := newFixture(t, WithClock(func() time.Time { return now }))
	ctx := f.reg.Context("A")

	ctx.Every(10*time.Millisecond, func() { now = now.Add(80 * time.Millisecond) })
	ctx.After(15*time.Millisecond, func() { now = now.Add(10 * time.Millisecond) })

	f.sched.Advance(15 * time.Millisecond)

	stats, ok := f.reg.Stats("A")
	require.True(t, ok)
	assert.Equal(t, 90*time.Millisecond, stats.CPUTime)
	assert.Equal(t, 1, stats.LongTasks)
	assert.Equal(t, 80*time.Millisecond, stats.LongTaskTime)
	assert.Equal(t, now, stats.LastActive)
}

func TestStatsSurviveKillAndResetOnRestart(t *testing.T) {
	f := newFixture(t)
	f.reg.Context("A").Every(time.Second, func() {})
	f.reg.Kill("A")

	stats, ok := f.reg.Stats("A")
	require.True(t, ok)
	require.NotEmpty(t, stats.Logs)
	assert.Equal(t, LogSuccess, stats.Logs[0].Level)

	f.reg.Context("A")
	stats, _ = f.reg.Stats("A")
	require.Len(t, stats.Logs, 1)
	assert.Equal(t, LogSys, stats.Logs[0].Level)
}

func TestActivityLogBounded(t *testing.T) {
	f := newFixture(t)
	ctx := f.reg.Context("A")

	for i := 0; i < 2*MaxLogEntries; i++ {
		ctx.Log(LogInfo, "line")
	}
	ctx.Log(LogInfo, "newest")

	stats, _ := f.reg.Stats("A")
	assert.Len(t, stats.Logs, MaxLogEntries)
	assert.Equal(t, "newest", stats.Logs[0].Message)
}
