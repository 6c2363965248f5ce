package window

import "errors"

var (
	// ErrUnknownApp is returned for IDs that have not been declared
	ErrUnknownApp = errors.New("unknown application")
	// ErrInvalidName is returned when a rename sanitizes to nothing
	ErrInvalidName = errors.New("invalid application name")
)
