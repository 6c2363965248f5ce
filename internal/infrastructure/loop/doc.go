// Package loop provides the single-threaded cooperative runtime of the
// desktop engine.
//
// Every mutation of engine state (store records, resource queues, stacking
// order, the drag session) happens on one goroutine. Timers and frame
// callbacks are delivered onto that goroutine, and HTTP/WebSocket handlers
// submit closures with Do. This keeps the lifecycle code lock-free while
// preserving the callback ordering the engine depends on.
//
// Two Scheduler implementations exist:
//   - Loop: wall-clock timers, ~60 Hz frame pacing
//   - Manual: virtual time advanced explicitly (tests, simulations)
//
// Example Usage:
//
//	l := loop.New(loop.WithLogger(logger))
//	go l.Run(ctx)
//	err := l.Do(ctx, func() { controller.Open("browser", true) })
package loop
