// Package ws is the WebSocket channel between the engine and browsers.
//
// Inbound, each connection sends lifecycle commands (open, close,
// minimize, restore, toggle, focus), pointer gestures (pointer_down,
// pointer_move, pointer_up, pointer_cancel), raw input events routed to a
// surface, and ping. A per-connection token bucket bounds the inbound rate.
//
// Outbound, every bus message becomes an "event" frame and every surface
// mutation a "surface" frame, so all browsers mirror the same desktop.
// New connections first receive a "system" frame and a surface snapshot.
package ws
