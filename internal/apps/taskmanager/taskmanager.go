package taskmanager

import (
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/bus"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/process"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/store"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// AppID is the manifest ID of the task manager
const AppID = "win-taskmgr"

// DefaultInterval is how often a snapshot is published while open
const DefaultInterval = time.Second

// Entry is one row of the task manager
type Entry struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	State     types.State           `json:"state"`
	System    bool                  `json:"system"`
	Resources process.ResourceCount `json:"resources"`
	CPUTime   time.Duration         `json:"cpuTime"`
	LongTasks int                   `json:"longTasks"`
	StartTime time.Time             `json:"startTime,omitempty"`
}

// Snapshot is the payload of taskmgr:update
type Snapshot struct {
	Seq  int     `json:"seq"`
	Apps []Entry `json:"apps"`
}

// App is the built-in resource monitor. While its window is open it
// publishes a snapshot every interval and whenever an application opens or
// closes. Everything it acquires goes through its registry context, so a
// close releases it all.
type App struct {
	registry *process.Registry
	bus      bus.Bus
	store    *store.Store
	interval time.Duration
	logger   *zap.Logger

	ready bus.Subscription
	ctx   *process.Context
	seq   int
}

// New creates the task manager; call Install to hook it to the desktop
func New(reg *process.Registry, b bus.Bus, st *store.Store, interval time.Duration, logger *zap.Logger) *App {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		registry: reg,
		bus:      b,
		store:    st,
		interval: interval,
		logger:   logger,
	}
}

// Install listens for the task manager window becoming ready. This
// subscription belongs to the desktop, not to the app, and survives kills.
func (a *App) Install() {
	if a.ready != 0 {
		return
	}
	a.ready = a.bus.Subscribe(bus.ReadyTopic(AppID), func(bus.Message) { a.start() })
}

// Uninstall removes the ready hook
func (a *App) Uninstall() {
	if a.ready == 0 {
		return
	}
	a.bus.Unsubscribe(a.ready)
	a.ready = 0
}

// Running reports whether the monitor currently holds a live context
func (a *App) Running() bool {
	return a.ctx != nil && a.ctx.Alive()
}

func (a *App) start() {
	if a.Running() {
		return
	}
	ctx := a.registry.Context(AppID)
	a.ctx = ctx

	ctx.Every(a.interval, a.publish)
	ctx.On(bus.TopicOpened, func(bus.Message) { a.publish() })
	ctx.On(bus.TopicClosed, func(bus.Message) { a.publish() })
	ctx.OnCleanup(func() {
		a.logger.Debug("Task manager stopped", zap.Int("snapshots", a.seq))
	})
	ctx.Log(process.LogInfo, "monitor started")

	a.publish()
}

func (a *App) publish() {
	a.seq++
	a.bus.Publish(bus.TopicTaskStats, a.Snapshot())
}

// Snapshot collects the current view of every declared application
func (a *App) Snapshot() Snapshot {
	snap := Snapshot{Seq: a.seq}
	for _, rec := range a.store.List() {
		if !rec.Declared {
			continue
		}
		e := Entry{
			ID:        rec.ID,
			Name:      rec.Name,
			State:     rec.State(),
			System:    rec.System,
			Resources: a.registry.Resources(rec.ID),
		}
		if stats, ok := a.registry.Stats(rec.ID); ok {
			e.CPUTime = stats.CPUTime
			e.LongTasks = stats.LongTasks
			e.StartTime = stats.StartTime
		}
		snap.Apps = append(snap.Apps, e)
	}
	return snap
}
