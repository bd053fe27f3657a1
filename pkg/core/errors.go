package core

import "errors"

// Common errors.
var (
	// ErrUnavailable is returned by storage that is not present in the
	// current execution context (the equivalent of running without a browser).
	ErrUnavailable = errors.New("storage is unavailable")
	ErrReadOnly    = errors.New("storage is in read-only mode")
	ErrNotFound    = errors.New("note not found")
	ErrInvalidNote = errors.New("invalid note")
	ErrSignedOut   = errors.New("no user is signed in")
)
