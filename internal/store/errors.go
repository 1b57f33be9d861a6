package store

import "errors"

// Sentinel errors shared by every backend so callers can map outcomes to
// responses without knowing which store implementation is in use.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned on a duplicate-key insert.
	ErrConflict = errors.New("already exists")
)
