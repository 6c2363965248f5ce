// Package surface defines the presentation contract the lifecycle controller
// drives (windows, desktop icons, input targets) and a headless in-memory
// presenter whose changes are mirrored to browsers.
package surface
