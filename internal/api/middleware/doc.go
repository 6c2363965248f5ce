// Package middleware provides the HTTP middleware for the desktop API.
//
//   - CORS: cross-origin access for the browser front-end
//   - RateLimit: per-IP token buckets with idle eviction
//
// NewLimiter is also used by the WebSocket channel for its per-connection
// inbound limit.
package middleware
