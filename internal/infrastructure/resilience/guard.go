package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned for writes held back while the guard is open
var ErrCircuitOpen = errors.New("layout writes suspended")

// State is the position of a WriteGuard
type State int

const (
	StateClosed State = iota
	StateOpen
	StateTrial
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateTrial:
		return "trial"
	default:
		return "unknown"
	}
}

// Outcome is what happened to one guarded write. The values double as
// metric labels.
type Outcome string

const (
	Written  Outcome = "ok"
	Failed   Outcome = "error"
	Rejected Outcome = "rejected"
)

// Policy decides when a failing backend stops receiving writes
type Policy struct {
	// Failures is the run of consecutive failed writes that opens the guard
	Failures int
	// Cooldown is how long writes are held back before one trial write
	Cooldown time.Duration
	// OnStateChange observes transitions
	OnStateChange func(from, to State)
	// Now overrides the clock (tests)
	Now func() time.Time
}

// DefaultPolicy matches the storage defaults in config
func DefaultPolicy() Policy {
	return Policy{Failures: 3, Cooldown: 10 * time.Second}
}

// WriteGuard stops hammering a durable backend that keeps failing. After
// Policy.Failures consecutive failures every write is rejected until the
// cooldown passes; the next write is a trial whose result closes or
// reopens the guard.
type WriteGuard struct {
	policy Policy

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
}

// NewWriteGuard creates a closed guard
func NewWriteGuard(policy Policy) *WriteGuard {
	def := DefaultPolicy()
	if policy.Failures <= 0 {
		policy.Failures = def.Failures
	}
	if policy.Cooldown <= 0 {
		policy.Cooldown = def.Cooldown
	}
	if policy.Now == nil {
		policy.Now = time.Now
	}
	return &WriteGuard{policy: policy}
}

// State reports the current position, moving to trial once an open
// guard has cooled down
func (g *WriteGuard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current()
}

// Write runs put unless the guard is open. A rejected write never calls put.
func (g *WriteGuard) Write(put func() error) (Outcome, error) {
	g.mu.Lock()
	if g.current() == StateOpen {
		g.mu.Unlock()
		return Rejected, ErrCircuitOpen
	}
	g.mu.Unlock()

	err := put()

	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		g.failures = 0
		g.set(StateClosed)
		return Written, nil
	}

	g.failures++
	if g.state == StateTrial || g.failures >= g.policy.Failures {
		g.openedAt = g.policy.Now()
		g.set(StateOpen)
	}
	return Failed, err
}

func (g *WriteGuard) current() State {
	if g.state == StateOpen && g.policy.Now().Sub(g.openedAt) >= g.policy.Cooldown {
		g.set(StateTrial)
	}
	return g.state
}

func (g *WriteGuard) set(to State) {
	if g.state == to {
		return
	}
	from := g.state
	g.state = to
	if g.policy.OnStateChange != nil {
		g.policy.OnStateChange(from, to)
	}
}
