package process

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/bus"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/loop"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/monitoring"
)

// Registry tracks every transient resource an application acquires and
// releases all of them, exactly once, when the application is killed.
// It runs on the event loop and carries no locks.
type Registry struct {
	sched   loop.Scheduler
	bus     bus.Bus
	queues  map[string]*queue
	stats   map[string]*Stats
	now     func() time.Time
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// Option configures a Registry
type Option func(*Registry)

// WithClock overrides the clock used for statistics
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithMetrics adds metrics tracking
func WithMetrics(m *monitoring.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a registry acquiring timers from sched and
// subscriptions from b
func NewRegistry(sched loop.Scheduler, b bus.Bus, opts ...Option) *Registry {
	r := &Registry{
		sched:  sched,
		bus:    b,
		queues: make(map[string]*queue),
		stats:  make(map[string]*Stats),
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Context returns the resource context for id, opening a fresh ledger if
// none is live. Opening a ledger counts as a (re)start and resets the
// application's statistics.
func (r *Registry) Context(id string) *Context {
	q, ok := r.queues[id]
	if !ok {
		q = newQueue()
		r.queues[id] = q
		r.stats[id] = newStats(r.now())
		r.log(id, LogSys, "process started, statistics reset")
	}
	return &Context{reg: r, id: id, q: q}
}

// Kill releases everything id holds: teardown callbacks first, then
// recurring timers, one-shot timers, frames, input listeners, bus
// subscriptions, and finally the ledger itself. Killing an unknown ID or
// one whose kill is already running returns immediately.
func (r *Registry) Kill(id string) {
	q, ok := r.queues[id]
	if !ok || q.dead {
		return
	}
	q.dead = true
	r.log(id, LogWarn, "terminating process")

	before := q.count()

	cleanups := q.cleanups
	q.cleanups = nil
	for _, fn := range cleanups {
		r.runCleanup(id, fn)
	}

	intervals := drain(q.intervals)
	for _, h := range intervals {
		r.sched.Cancel(h)
	}
	timeouts := drain(q.timeouts)
	for _, h := range timeouts {
		r.sched.Cancel(h)
	}
	frames := drain(q.frames)
	for _, h := range frames {
		r.sched.Cancel(h)
	}

	inputs := q.inputs
	q.inputs = nil
	for _, in := range inputs {
		in.target.RemoveEventListener(in.event, in.id)
	}

	subs := q.subs
	q.subs = nil
	for _, s := range subs {
		r.bus.Unsubscribe(s.sub)
	}

	delete(r.queues, id)

	r.metrics.RecordRelease(KindCleanup, len(cleanups))
	r.metrics.RecordRelease(KindInterval, len(intervals))
	r.metrics.RecordRelease(KindTimeout, len(timeouts))
	r.metrics.RecordRelease(KindFrame, len(frames))
	r.metrics.RecordRelease(KindInput, len(inputs))
	r.metrics.RecordRelease(KindBus, len(subs))
	r.metrics.RecordKill()

	r.log(id, LogSuccess, fmt.Sprintf("process terminated, released timers: %d, listeners: %d",
		before.Timers, before.Events))
	logging.ForApp(r.logger, id).Debug("Killed application",
		zap.Int("timers", before.Timers),
		zap.Int("events", before.Events),
		zap.Int("animations", before.Animations),
		zap.Int("cleanups", len(cleanups)))
}

// Alive reports whether id has a live ledger
func (r *Registry) Alive(id string) bool {
	q, ok := r.queues[id]
	return ok && !q.dead
}

// Resources returns what id currently holds; unknown IDs hold nothing
func (r *Registry) Resources(id string) ResourceCount {
	q, ok := r.queues[id]
	if !ok {
		return ResourceCount{}
	}
	return q.count()
}

// Stats returns a copy of id's statistics. Statistics outlive Kill so a
// terminated application can still be inspected.
func (r *Registry) Stats(id string) (Stats, bool) {
	s, ok := r.stats[id]
	if !ok {
		return Stats{}, false
	}
	return s.clone(), true
}

// IDs returns the IDs with a live ledger, sorted
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.queues))
	for id := range r.queues {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) runCleanup(id string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.RecordTeardownFailure()
			r.log(id, LogWarn, fmt.Sprintf("teardown callback failed: %v", rec))
			logging.ForApp(r.logger, id).Error("Teardown callback panicked",
				zap.String("panic", fmt.Sprint(rec)))
		}
	}()
	fn()
}

// measure runs a callback on behalf of id and charges its duration
func (r *Registry) measure(id string, fn func()) {
	start := r.now()
	defer func() {
		end := r.now()
		elapsed := end.Sub(start)

		s, ok := r.stats[id]
		if !ok {
			s = newStats(start)
			r.stats[id] = s
		}
		s.CPUTime += elapsed
		s.LastActive = end
		if elapsed > LongTaskThreshold {
			s.LongTasks++
			s.LongTaskTime += elapsed
			r.metrics.RecordLongTask(id)
		}
	}()
	fn()
}

func (r *Registry) log(id, level, msg string) {
	s, ok := r.stats[id]
	if !ok {
		now := r.now()
		s = newStats(now)
		r.stats[id] = s
	}
	s.log(r.now(), level, msg)
}

// drain empties a handle set in ascending order before any cancel runs
func drain(set map[loop.Handle]struct{}) []loop.Handle {
	handles := make([]loop.Handle, 0, len(set))
	for h := range set {
		handles = append(handles, h)
		delete(set, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	return handles
}
