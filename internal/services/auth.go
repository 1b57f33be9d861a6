package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datakeep/apiserver/internal/mq"
	"github.com/datakeep/apiserver/internal/store"
	"github.com/datakeep/apiserver/types"
)

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	List(ctx context.Context) ([]types.Account, error)
	Insert(ctx context.Context, account types.Account) error
	FindByLogin(ctx context.Context, login string) (types.Account, error)
	FindByToken(ctx context.Context, token string) (types.Account, error)
	UpdatePassword(ctx context.Context, login, password string) error
	Delete(ctx context.Context, login string) error
}

// AuditRepository defines persistence operations for the audit trail.
type AuditRepository interface {
	Append(ctx context.Context, entry types.AuditEntry) error
	ListByLogin(ctx context.Context, login string) ([]types.AuditEntry, error)
}

// AuditPublisher fans audit entries out to external consumers.
// Satisfied by *mq.MQ.
type AuditPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// AuthService is the authorization gate every protected operation passes
// through: it validates credentials at login, hands out the account's
// standing token, and checks tokens on each subsequent request, recording
// one audit entry per successful check.
type AuthService struct {
	accounts  AccountRepository
	audit     AuditRepository
	publisher AuditPublisher
	log       *zap.Logger
}

func NewAuthService(accounts AccountRepository, audit AuditRepository, log *zap.Logger) *AuthService {
	return &AuthService{
		accounts: accounts,
		audit:    audit,
		log:      log,
	}
}

// WithPublisher enables best-effort audit fanout to a message broker.
func (s *AuthService) WithPublisher(publisher AuditPublisher) *AuthService {
	s.publisher = publisher
	return s
}

// Authenticate reports whether an account with the login exists and its
// stored password equals the presented one byte for byte. No side effects
// beyond the lookup; login attempts are not audited.
func (s *AuthService) Authenticate(ctx context.Context, login, password string) (bool, error) {
	account, err := s.accounts.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return account.Password == password, nil
}

// IssueSecurityKey returns the standing token bound to the login. Tokens are
// minted once at account creation and reused across logins, never rotated.
// Returns store.ErrNotFound if the account does not exist.
func (s *AuthService) IssueSecurityKey(ctx context.Context, login string) (string, error) {
	account, err := s.accounts.FindByLogin(ctx, login)
	if err != nil {
		return "", err
	}
	return account.Token, nil
}

// CheckToken looks up the account bound to the token. On a hit it appends
// exactly one audit entry attributing the described action to the account
// and returns true; on a miss it returns false with no audit write.
//
// The lookup and the append are deliberately not one atomic unit: two
// validations racing on the same token simply produce two entries.
func (s *AuthService) CheckToken(ctx context.Context, token, description string) (bool, error) {
	account, err := s.accounts.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	entry := types.AuditEntry{
		ID:        uuid.NewString(),
		Login:     account.Login,
		Request:   description,
		Timestamp: time.Now().UTC(),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		return false, err
	}
	s.fanout(ctx, entry)
	return true, nil
}

// History returns every audit entry for the login, oldest first. Returns
// store.ErrNotFound if the account does not exist; an existing account with
// no recorded actions yields an empty slice.
func (s *AuthService) History(ctx context.Context, login string) ([]types.AuditEntry, error) {
	if _, err := s.accounts.FindByLogin(ctx, login); err != nil {
		return nil, err
	}
	return s.audit.ListByLogin(ctx, login)
}

// fanout publishes the entry to the audit channel, best-effort. A broker
// failure never fails the request; the Postgres trail is authoritative.
func (s *AuthService) fanout(ctx context.Context, entry types.AuditEntry) {
	if s.publisher == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		s.log.Warn("audit fanout encode failed", zap.Error(err))
		return
	}
	if _, err := s.publisher.Publish(ctx, mq.AuditChannel, data, map[string]string{mq.AttrLogin: entry.Login}); err != nil {
		s.log.Warn("audit fanout publish failed", zap.String("login", entry.Login), zap.Error(err))
	}
}
