package types

import "time"

// AuditEntry is one append-only row of the per-account audit trail.
// Entries are written by the auth gate when a token check succeeds and are
// never mutated or deleted afterwards.
type AuditEntry struct {
	// ID is a random unique identifier assigned at write time.
	ID string `json:"id" db:"id"`

	// Login is the account the action was attributed to. It is captured
	// from the token lookup and intentionally denormalized: deleting the
	// account leaves its history rows in place.
	Login string `json:"login" db:"login"`

	// Request is a free-text description of the action attempted,
	// e.g. "Get user bob" or "Get data from DB by id test".
	Request string `json:"request" db:"request"`

	// Timestamp is the event time in UTC, assigned at write time.
	Timestamp time.Time `json:"timestamp" db:"tms"`
}
