package process

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/bus"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/surface"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/loop"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// Context is the only way an application acquires transient resources.
// It is bound to one ledger: once that ledger is killed the context is
// dead, every acquisition returns a zero handle and schedules nothing, and
// releases are no-ops.
type Context struct {
	reg *Registry
	id  string
	q   *queue
}

// ID returns the owning application ID
func (c *Context) ID() string {
	return c.id
}

// Alive reports whether the context still tracks resources
func (c *Context) Alive() bool {
	return !c.q.dead && c.reg.queues[c.id] == c.q
}

// Every schedules fn every d until cleared or killed
func (c *Context) Every(d time.Duration, fn func()) loop.Handle {
	if !c.Alive() {
		return 0
	}
	var h loop.Handle
	h = c.reg.sched.Every(d, func() {
		if _, ok := c.q.intervals[h]; !ok {
			return
		}
		c.reg.measure(c.id, fn)
	})
	c.q.intervals[h] = struct{}{}
	c.acquired(KindInterval, fmt.Sprintf("interval acquired (handle %d, every %s)", h, d))
	return h
}

// After schedules fn once after d. The handle leaves the ledger before fn runs.
func (c *Context) After(d time.Duration, fn func()) loop.Handle {
	if !c.Alive() {
		return 0
	}
	var h loop.Handle
	h = c.reg.sched.After(d, func() {
		if _, ok := c.q.timeouts[h]; !ok {
			return
		}
		delete(c.q.timeouts, h)
		c.reg.measure(c.id, fn)
	})
	c.q.timeouts[h] = struct{}{}
	c.acquired(KindTimeout, fmt.Sprintf("timeout acquired (handle %d, after %s)", h, d))
	return h
}

// Frame schedules fn for the next frame. The handle leaves the ledger before fn runs.
func (c *Context) Frame(fn loop.FrameFunc) loop.Handle {
	if !c.Alive() {
		return 0
	}
	var h loop.Handle
	h = c.reg.sched.Frame(func(elapsed time.Duration) {
		if _, ok := c.q.frames[h]; !ok {
			return
		}
		delete(c.q.frames, h)
		c.reg.measure(c.id, func() { fn(elapsed) })
	})
	c.q.frames[h] = struct{}{}
	// Frames are too frequent for the activity log
	c.reg.metrics.RecordAcquire(KindFrame)
	return h
}

// Listen registers fn for event on target
func (c *Context) Listen(target surface.EventTarget, event string, fn surface.Listener) surface.ListenerID {
	if !c.Alive() || target == nil {
		return 0
	}
	id := target.AddEventListener(event, func(ev types.InputEvent) {
		c.reg.measure(c.id, func() { fn(ev) })
	})
	if id == 0 {
		return 0
	}
	c.q.inputs = append(c.q.inputs, inputSub{target: target, event: event, id: id})
	c.acquired(KindInput, fmt.Sprintf("input listener acquired (%s)", event))
	return id
}

// On subscribes fn to topic on the message bus
func (c *Context) On(topic string, fn bus.Handler) bus.Subscription {
	if !c.Alive() {
		return 0
	}
	sub := c.reg.bus.Subscribe(topic, func(msg bus.Message) {
		c.reg.measure(c.id, func() { fn(msg) })
	})
	c.q.subs = append(c.q.subs, busSub{topic: topic, sub: sub})
	c.acquired(KindBus, fmt.Sprintf("bus subscription acquired (%s)", topic))
	return sub
}

// OnCleanup registers fn to run first when the application is killed
func (c *Context) OnCleanup(fn func()) {
	if !c.Alive() {
		return
	}
	c.q.cleanups = append(c.q.cleanups, fn)
	c.acquired(KindCleanup, "teardown hook registered")
}

// ClearEvery cancels a recurring timer
func (c *Context) ClearEvery(h loop.Handle) {
	if _, ok := c.q.intervals[h]; !ok {
		return
	}
	delete(c.q.intervals, h)
	c.reg.sched.Cancel(h)
	c.released(KindInterval, fmt.Sprintf("interval released (handle %d)", h))
}

// ClearAfter cancels a pending one-shot timer
func (c *Context) ClearAfter(h loop.Handle) {
	if _, ok := c.q.timeouts[h]; !ok {
		return
	}
	delete(c.q.timeouts, h)
	c.reg.sched.Cancel(h)
	c.released(KindTimeout, fmt.Sprintf("timeout released (handle %d)", h))
}

// CancelFrame cancels a pending frame callback
func (c *Context) CancelFrame(h loop.Handle) {
	if _, ok := c.q.frames[h]; !ok {
		return
	}
	delete(c.q.frames, h)
	c.reg.sched.Cancel(h)
	c.reg.metrics.RecordRelease(KindFrame, 1)
}

// Unlisten removes an input listener acquired through this context
func (c *Context) Unlisten(target surface.EventTarget, event string, id surface.ListenerID) {
	for i, in := range c.q.inputs {
		if in.target == target && in.event == event && in.id == id {
			c.q.inputs = append(c.q.inputs[:i:i], c.q.inputs[i+1:]...)
			target.RemoveEventListener(event, id)
			c.released(KindInput, fmt.Sprintf("input listener released (%s)", event))
			return
		}
	}
}

// Off cancels a bus subscription acquired through this context
func (c *Context) Off(sub bus.Subscription) {
	for i, s := range c.q.subs {
		if s.sub == sub {
			c.q.subs = append(c.q.subs[:i:i], c.q.subs[i+1:]...)
			c.reg.bus.Unsubscribe(sub)
			c.released(KindBus, fmt.Sprintf("bus subscription released (%s)", s.topic))
			return
		}
	}
}

// Log appends a line to the application's activity log
func (c *Context) Log(level, msg string) {
	c.reg.log(c.id, level, msg)
}

func (c *Context) acquired(kind, msg string) {
	c.reg.metrics.RecordAcquire(kind)
	c.reg.log(c.id, LogRes, msg)
}

func (c *Context) released(kind, msg string) {
	c.reg.metrics.RecordRelease(kind, 1)
	c.reg.log(c.id, LogFree, msg)
}
