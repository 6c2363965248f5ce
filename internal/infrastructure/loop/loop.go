package loop

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrStopped is returned when work is submitted to a loop that has exited
var ErrStopped = errors.New("event loop stopped")

// DefaultFrameInterval paces frame callbacks at roughly 60 Hz
const DefaultFrameInterval = time.Second / 60

// Loop owns every piece of engine state. Tasks, timers and frame callbacks
// all run on the single goroutine executing Run, so engine code needs no
// locks. Other goroutines hand work over with Do or Post.
type Loop struct {
	tasks         chan func()
	done          chan struct{}
	stopOnce      sync.Once
	start         time.Time
	frameInterval time.Duration
	logger        *zap.Logger

	// Owned by the loop goroutine
	next       Handle
	timers     map[Handle]*loopTimer
	frames     map[Handle]FrameFunc
	frameArmed bool
	frameTimer *time.Timer
}

type loopTimer struct {
	period time.Duration
	fn     func()
	timer  *time.Timer
}

// Option configures a Loop
type Option func(*Loop)

// WithFrameInterval overrides the frame pacing
func WithFrameInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.frameInterval = d
		}
	}
}

// WithLogger sets the logger used for recovered task panics
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates an idle loop; call Run to start it
func New(opts ...Option) *Loop {
	l := &Loop{
		tasks:         make(chan func(), 256),
		done:          make(chan struct{}),
		start:         time.Now(),
		frameInterval: DefaultFrameInterval,
		logger:        zap.NewNop(),
		timers:        make(map[Handle]*loopTimer),
		frames:        make(map[Handle]FrameFunc),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run processes tasks until ctx is cancelled. Pending timers are stopped on exit.
func (l *Loop) Run(ctx context.Context) error {
	defer l.shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

// Do runs fn on the loop and waits for it to finish.
// Must not be called from the loop goroutine itself.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case l.tasks <- task:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post schedules fn on the loop without waiting
func (l *Loop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.done:
	}
}

// Done is closed once the loop has exited
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Every implements Scheduler
func (l *Loop) Every(d time.Duration, fn func()) Handle {
	d = clampPeriod(d)
	h := l.alloc()
	t := &loopTimer{period: d, fn: fn}
	t.timer = time.AfterFunc(d, func() { l.Post(func() { l.fire(h) }) })
	l.timers[h] = t
	return h
}

// After implements Scheduler
func (l *Loop) After(d time.Duration, fn func()) Handle {
	h := l.alloc()
	t := &loopTimer{fn: fn}
	t.timer = time.AfterFunc(clampDelay(d), func() { l.Post(func() { l.fire(h) }) })
	l.timers[h] = t
	return h
}

// Frame implements Scheduler
func (l *Loop) Frame(fn FrameFunc) Handle {
	h := l.alloc()
	l.frames[h] = fn
	if !l.frameArmed {
		l.frameArmed = true
		l.frameTimer = time.AfterFunc(l.frameInterval, func() { l.Post(l.flushFrames) })
	}
	return h
}

// Cancel implements Scheduler
func (l *Loop) Cancel(h Handle) {
	if t, ok := l.timers[h]; ok {
		delete(l.timers, h)
		t.timer.Stop()
	}
	delete(l.frames, h)
}

// Elapsed returns the time since the loop was created
func (l *Loop) Elapsed() time.Duration {
	return time.Since(l.start)
}

func (l *Loop) alloc() Handle {
	l.next++
	return l.next
}

// fire runs a timer if it is still registered. A timer cancelled after its
// AfterFunc goroutine already posted is filtered out here.
func (l *Loop) fire(h Handle) {
	t, ok := l.timers[h]
	if !ok {
		return
	}
	if t.period > 0 {
		t.timer.Reset(t.period)
	} else {
		delete(l.timers, h)
	}
	l.exec(t.fn)
}

func (l *Loop) flushFrames() {
	l.frameArmed = false
	elapsed := l.Elapsed()

	handles := make([]Handle, 0, len(l.frames))
	for h := range l.frames {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })

	for _, h := range handles {
		fn, ok := l.frames[h]
		if !ok {
			continue
		}
		delete(l.frames, h)
		l.exec(func() { fn(elapsed) })
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Recovered panic in event loop task",
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	fn()
}

func (l *Loop) shutdown() {
	l.stopOnce.Do(func() {
		close(l.done)
		for h, t := range l.timers {
			t.timer.Stop()
			delete(l.timers, h)
		}
		if l.frameTimer != nil {
			l.frameTimer.Stop()
		}
		l.frames = make(map[Handle]FrameFunc)
	})
}
