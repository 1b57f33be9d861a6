// Package docstore stores opaque keyed records across interchangeable
// backends. Handlers only ever see the Docstore wrapper, so the backend can
// be swapped (object storage in production, a map in tests) without touching
// request logic.
package docstore

import (
	"context"

	"github.com/datakeep/apiserver/types"
)

// Backend defines the record operations common to all backends.
//
// Insert must fail with store.ErrConflict when the record's id is already
// present — the only integrity guarantee on the document side. FindByID
// returns every record matching the id; in practice that is zero or one,
// but callers code defensively for zero-or-many. An empty result is not an
// error.
type Backend interface {
	Insert(ctx context.Context, record types.Record) error
	FindByID(ctx context.Context, id string) ([]types.Record, error)
}

// Docstore wraps a Backend with a stable API.
type Docstore struct {
	backend Backend
}

// New constructs a Docstore wrapper for the provided backend.
func New(backend Backend) *Docstore {
	return &Docstore{backend: backend}
}

// Insert stores a record under its caller-supplied id.
func (d *Docstore) Insert(ctx context.Context, record types.Record) error {
	return d.backend.Insert(ctx, record)
}

// FindByID returns the records stored under the id.
func (d *Docstore) FindByID(ctx context.Context, id string) ([]types.Record, error) {
	return d.backend.FindByID(ctx, id)
}
