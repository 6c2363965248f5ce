package loop

import "time"

// Handle identifies a scheduled timer or frame callback.
// Handles are unique per scheduler across all kinds; zero is never issued.
type Handle uint64

// FrameFunc receives the time elapsed since the scheduler started
type FrameFunc func(elapsed time.Duration)

// MinInterval is the smallest period accepted for recurring timers
const MinInterval = time.Millisecond

// Scheduler is the platform timing primitive the engine builds on.
// Implementations are not safe for concurrent use; call them from the
// goroutine that owns the engine state.
type Scheduler interface {
	// Every runs fn repeatedly every d until cancelled
	Every(d time.Duration, fn func()) Handle
	// After runs fn once after d unless cancelled first
	After(d time.Duration, fn func()) Handle
	// Frame runs fn once on the next frame unless cancelled first
	Frame(fn FrameFunc) Handle
	// Cancel stops a pending timer or frame; unknown handles are ignored
	Cancel(h Handle)
}

func clampPeriod(d time.Duration) time.Duration {
	if d < MinInterval {
		return MinInterval
	}
	return d
}

func clampDelay(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
