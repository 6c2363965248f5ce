// Package types provides shared data structures for the desktop engine.
//
// Core Types:
//   - Metadata: code-supplied application descriptor (never persisted)
//   - AppRecord: merged metadata + dynamic state for one application
//   - PersistedApp: the dynamic subset written to durable storage
//   - AppPatch: shallow partial update applied by the store
//   - Placement: corner coordinates and/or edge anchors
//
// Request Types:
//   - WSMessage: inbound WebSocket gesture/command
//   - InputEvent: input dispatched to a presentation surface
//   - RenameRequest, OpenRequest: HTTP bodies
//
// Example Usage:
//
//	meta := types.Metadata{
//	    ID:                    "browser",
//	    Name:                  "Browser",
//	    ShowsDesktopIcon:      true,
//	    DefaultWindowPosition: types.At(120, 80),
//	}
package types
