package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/datakeep/apiserver/types"
)

// AccountService encapsulates account directory use-cases.
type AccountService struct {
	repo AccountRepository
}

func NewAccountService(repo AccountRepository) *AccountService {
	return &AccountService{repo: repo}
}

func (s *AccountService) List(ctx context.Context) ([]types.Account, error) {
	return s.repo.List(ctx)
}

// Create mints the account's bearer token and inserts the account. Returns
// store.ErrConflict if the login is already taken.
func (s *AccountService) Create(ctx context.Context, login, password string) (types.Account, error) {
	token, err := newToken()
	if err != nil {
		return types.Account{}, err
	}
	account := types.Account{
		Login:    login,
		Password: password,
		Token:    token,
	}
	if err := s.repo.Insert(ctx, account); err != nil {
		return types.Account{}, err
	}
	return account, nil
}

func (s *AccountService) GetByLogin(ctx context.Context, login string) (types.Account, error) {
	return s.repo.FindByLogin(ctx, login)
}

// UpdatePassword changes the password only. The account keeps its token.
func (s *AccountService) UpdatePassword(ctx context.Context, login, password string) error {
	return s.repo.UpdatePassword(ctx, login, password)
}

func (s *AccountService) Delete(ctx context.Context, login string) error {
	return s.repo.Delete(ctx, login)
}

// newToken generates an opaque 128-bit bearer token.
func newToken() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}
