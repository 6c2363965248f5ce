// Package bus provides the message bus that connects the lifecycle engine to
// applications and to connected browsers.
//
// Topics are plain strings from a fixed vocabulary (see topics.go):
//   - app:opened {id}, app:closed {id}, app:destroyed id
//   - app:ready:{id}, app:closed:{id} (scoped)
//   - app:minimized, app:restored, window:focus, window:blur
//   - system:speak (open announcements)
//
// Handlers are identified by the Subscription returned from Subscribe, so
// closures can be removed without comparing functions.
package bus
