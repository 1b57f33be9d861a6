package services

import (
	"context"

	"github.com/datakeep/apiserver/internal/docstore"
	"github.com/datakeep/apiserver/types"
)

// DocumentService encapsulates document record use-cases.
type DocumentService struct {
	docs *docstore.Docstore
}

func NewDocumentService(docs *docstore.Docstore) *DocumentService {
	return &DocumentService{docs: docs}
}

// Insert stores the record. Returns store.ErrConflict when the id is
// already present.
func (s *DocumentService) Insert(ctx context.Context, record types.Record) error {
	return s.docs.Insert(ctx, record)
}

// FindByID returns the records stored under the id; an empty slice means
// not found.
func (s *DocumentService) FindByID(ctx context.Context, id string) ([]types.Record, error) {
	return s.docs.FindByID(ctx, id)
}
