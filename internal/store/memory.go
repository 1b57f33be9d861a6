package store

import (
	"context"
	"sync"

	"github.com/datakeep/apiserver/types"
)

// MemAccountStore is an in-memory account backend used in tests and for
// running the service without Postgres. The map is shared by all request
// handlers, so every access goes through the RWMutex: concurrent readers,
// single writer.
type MemAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]types.Account // keyed by login
}

func NewMemAccountStore() *MemAccountStore {
	return &MemAccountStore{accounts: make(map[string]types.Account)}
}

func (s *MemAccountStore) List(ctx context.Context) ([]types.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]types.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (s *MemAccountStore) Insert(ctx context.Context, account types.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.Login]; exists {
		return ErrConflict
	}
	s.accounts[account.Login] = account
	return nil
}

func (s *MemAccountStore) FindByLogin(ctx context.Context, login string) (types.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, exists := s.accounts[login]
	if !exists {
		return types.Account{}, ErrNotFound
	}
	return account, nil
}

func (s *MemAccountStore) FindByToken(ctx context.Context, token string) (types.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if account.Token == token {
			return account, nil
		}
	}
	return types.Account{}, ErrNotFound
}

func (s *MemAccountStore) UpdatePassword(ctx context.Context, login, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[login]
	if !exists {
		return ErrNotFound
	}
	account.Password = password
	s.accounts[login] = account
	return nil
}

func (s *MemAccountStore) Delete(ctx context.Context, login string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[login]; !exists {
		return ErrNotFound
	}
	delete(s.accounts, login)
	return nil
}

// MemAuditStore is the in-memory counterpart of AuditRepository. Appends
// happen concurrently with history reads from other requests, hence the
// same reader/writer lock discipline.
type MemAuditStore struct {
	mu      sync.RWMutex
	entries []types.AuditEntry
}

func NewMemAuditStore() *MemAuditStore {
	return &MemAuditStore{}
}

func (s *MemAuditStore) Append(ctx context.Context, entry types.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemAuditStore) ListByLogin(ctx context.Context, login string) ([]types.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := []types.AuditEntry{}
	for _, entry := range s.entries {
		if entry.Login == login {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}
