package store

import "errors"

// Common errors returned by store operations.
//
// These errors can be checked using errors.Is() for proper error handling:
//
//	if errors.Is(err, store.ErrNotFound) {
//	    // Handle missing recording
//	}
var (
	// ErrUnavailable is returned by every operation when the store
	// failed setup or has been closed. A store that could not complete
	// setup stays in this degraded state instead of crashing the
	// process.
	ErrUnavailable = errors.New("store unavailable")

	// ErrDuplicateID is returned by Insert when a recording with the
	// same ID already exists.
	ErrDuplicateID = errors.New("recording id already exists")

	// ErrNotFound is returned when the referenced recording id does
	// not exist.
	ErrNotFound = errors.New("recording not found")
)
