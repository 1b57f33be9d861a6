package docstore

import (
	"context"
	"sync"

	"github.com/datakeep/apiserver/internal/store"
	"github.com/datakeep/apiserver/types"
)

// MemBackend keeps records in a map guarded by a reader/writer lock. Used
// in tests and as a standalone backend for local runs.
type MemBackend struct {
	mu      sync.RWMutex
	records map[string]types.Record
}

func NewMemBackend() *MemBackend {
	return &MemBackend{records: make(map[string]types.Record)}
}

func (m *MemBackend) Insert(ctx context.Context, record types.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[record.ID]; exists {
		return store.ErrConflict
	}
	m.records[record.ID] = record
	return nil
}

func (m *MemBackend) FindByID(ctx context.Context, id string) ([]types.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, exists := m.records[id]
	if !exists {
		return []types.Record{}, nil
	}
	return []types.Record{record}, nil
}
