package loop

import (
	"sort"
	"time"
)

// Manual is a deterministic Scheduler driven by explicit Advance and Tick
// calls. Time only moves when the caller says so.
type Manual struct {
	now    time.Duration
	next   Handle
	timers map[Handle]*manualTimer
	frames map[Handle]FrameFunc
}

type manualTimer struct {
	due    time.Duration
	period time.Duration
	fn     func()
}

// NewManual creates a scheduler at time zero
func NewManual() *Manual {
	return &Manual{
		timers: make(map[Handle]*manualTimer),
		frames: make(map[Handle]FrameFunc),
	}
}

// Every implements Scheduler
func (m *Manual) Every(d time.Duration, fn func()) Handle {
	d = clampPeriod(d)
	m.next++
	m.timers[m.next] = &manualTimer{due: m.now + d, period: d, fn: fn}
	return m.next
}

// After implements Scheduler
func (m *Manual) After(d time.Duration, fn func()) Handle {
	m.next++
	m.timers[m.next] = &manualTimer{due: m.now + clampDelay(d), fn: fn}
	return m.next
}

// Frame implements Scheduler
func (m *Manual) Frame(fn FrameFunc) Handle {
	m.next++
	m.frames[m.next] = fn
	return m.next
}

// Cancel implements Scheduler
func (m *Manual) Cancel(h Handle) {
	delete(m.timers, h)
	delete(m.frames, h)
}

// Now returns the virtual time
func (m *Manual) Now() time.Duration {
	return m.now
}

// Pending returns the number of scheduled timers and frames
func (m *Manual) Pending() int {
	return len(m.timers) + len(m.frames)
}

// Advance moves virtual time forward by d, firing every timer that comes
// due in deadline order. Ties fire in scheduling order.
func (m *Manual) Advance(d time.Duration) {
	target := m.now + clampDelay(d)
	for {
		h, t := m.nextDue(target)
		if t == nil {
			break
		}
		m.now = t.due
		if t.period > 0 {
			t.due += t.period
		} else {
			delete(m.timers, h)
		}
		t.fn()
	}
	m.now = target
}

// Tick fires every frame callback registered before the call.
// Callbacks registered while ticking wait for the next Tick.
func (m *Manual) Tick() {
	handles := make([]Handle, 0, len(m.frames))
	for h := range m.frames {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })

	for _, h := range handles {
		fn, ok := m.frames[h]
		if !ok {
			continue
		}
		delete(m.frames, h)
		fn(m.now)
	}
}

func (m *Manual) nextDue(limit time.Duration) (Handle, *manualTimer) {
	var (
		best  Handle
		bestT *manualTimer
	)
	for h, t := range m.timers {
		if t.due > limit {
			continue
		}
		if bestT == nil || t.due < bestT.due || (t.due == bestT.due && h < best) {
			best, bestT = h, t
		}
	}
	return best, bestT
}
