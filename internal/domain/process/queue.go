package process

import (
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/bus"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/surface"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/loop"
)

// Resource kinds, used for metrics labels and log lines
const (
	KindInterval = "interval"
	KindTimeout  = "timeout"
	KindFrame    = "frame"
	KindInput    = "input"
	KindBus      = "bus"
	KindCleanup  = "cleanup"
)

type inputSub struct {
	target surface.EventTarget
	event  string
	id     surface.ListenerID
}

type busSub struct {
	topic string
	sub   bus.Subscription
}

// queue is the ledger of everything one application currently holds.
// A handle present in a set is still pending.
type queue struct {
	intervals map[loop.Handle]struct{}
	timeouts  map[loop.Handle]struct{}
	frames    map[loop.Handle]struct{}
	inputs    []inputSub
	subs      []busSub
	cleanups  []func()

	// dead is set when Kill starts; nothing is tracked afterwards
	dead bool
}

func newQueue() *queue {
	return &queue{
		intervals: make(map[loop.Handle]struct{}),
		timeouts:  make(map[loop.Handle]struct{}),
		frames:    make(map[loop.Handle]struct{}),
	}
}

// ResourceCount summarizes what an application holds
type ResourceCount struct {
	Timers     int `json:"timers"`
	Events     int `json:"events"`
	Animations int `json:"animations"`
	Cleanups   int `json:"cleanups"`
	Total      int `json:"total"`
}

func (q *queue) count() ResourceCount {
	c := ResourceCount{
		Timers:     len(q.intervals) + len(q.timeouts),
		Events:     len(q.inputs) + len(q.subs),
		Animations: len(q.frames),
		Cleanups:   len(q.cleanups),
	}
	c.Total = c.Timers + c.Events + c.Animations
	return c
}
