// Package http is the REST control surface of the desktop engine.
//
// Handlers never touch engine state directly: every read and command is
// handed to the event loop with Executor.Do, so requests interleave with
// timers and WebSocket gestures one closure at a time.
//
// Routes:
//
//	GET  /health
//	GET  /api/apps, /api/apps/:id, /api/apps/:id/resources
//	POST /api/apps/:id/{open,close,minimize,restore,toggle,focus}
//	PUT  /api/apps/:id/name
//	GET  /api/stats, /api/taskmgr, /api/metrics
//	POST /api/layout/reset, /api/logs
package http
