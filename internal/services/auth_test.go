package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datakeep/apiserver/internal/store"
	"github.com/datakeep/apiserver/types"
)

func newAuthFixture(t *testing.T) (*AuthService, *AccountService) {
	t.Helper()
	accounts := store.NewMemAccountStore()
	audit := store.NewMemAuditStore()
	return NewAuthService(accounts, audit, zap.NewNop()), NewAccountService(accounts)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	auth, accountService := newAuthFixture(t)

	_, err := accountService.Create(ctx, "123", "321")
	require.NoError(t, err)

	ok, err := auth.Authenticate(ctx, "123", "321")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = auth.Authenticate(ctx, "123", "bad")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = auth.Authenticate(ctx, "nobody", "321")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIssueSecurityKey(t *testing.T) {
	ctx := context.Background()
	auth, accountService := newAuthFixture(t)

	created, err := accountService.Create(ctx, "123", "321")
	require.NoError(t, err)
	require.NotEmpty(t, created.Token)

	token, err := auth.IssueSecurityKey(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, created.Token, token)

	// Tokens are standing credentials: a second login hands back the same one.
	again, err := auth.IssueSecurityKey(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, token, again)

	_, err = auth.IssueSecurityKey(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCheckTokenWritesOneAuditEntry(t *testing.T) {
	ctx := context.Background()
	auth, accountService := newAuthFixture(t)

	created, err := accountService.Create(ctx, "123", "321")
	require.NoError(t, err)

	ok, err := auth.CheckToken(ctx, created.Token, "list users")
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := auth.History(ctx, "123")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "123", entries[0].Login)
	assert.Equal(t, "list users", entries[0].Request)
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].Timestamp.IsZero())

	// Every further successful check grows the history by exactly one.
	ok, err = auth.CheckToken(ctx, created.Token, "Insert data")
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err = auth.History(ctx, "123")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestCheckTokenUnknown(t *testing.T) {
	ctx := context.Background()
	auth, accountService := newAuthFixture(t)

	_, err := accountService.Create(ctx, "123", "321")
	require.NoError(t, err)

	ok, err := auth.CheckToken(ctx, "not-a-real-token", "whatever")
	require.NoError(t, err)
	assert.False(t, ok)

	// A rejected token leaves no trace in anyone's history.
	entries, err := auth.History(ctx, "123")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistoryUnknownAccount(t *testing.T) {
	auth, _ := newAuthFixture(t)

	_, err := auth.History(context.Background(), "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdatePasswordKeepsToken(t *testing.T) {
	ctx := context.Background()
	auth, accountService := newAuthFixture(t)

	created, err := accountService.Create(ctx, "123", "321")
	require.NoError(t, err)

	require.NoError(t, accountService.UpdatePassword(ctx, "123", "654"))

	token, err := auth.IssueSecurityKey(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, created.Token, token)

	ok, err := auth.Authenticate(ctx, "123", "654")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTokensAreUniquePerAccount(t *testing.T) {
	ctx := context.Background()
	_, accountService := newAuthFixture(t)

	seen := make(map[string]bool)
	for _, login := range []string{"a", "b", "c", "d"} {
		account, err := accountService.Create(ctx, login, "pw")
		require.NoError(t, err)
		assert.False(t, seen[account.Token])
		seen[account.Token] = true
	}
}

type capturingPublisher struct {
	mu       sync.Mutex
	channels []string
	payloads [][]byte
	attrs    []map[string]string
	fail     bool
}

func (p *capturingPublisher) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return "", errors.New("broker down")
	}
	p.channels = append(p.channels, channel)
	p.payloads = append(p.payloads, data)
	p.attrs = append(p.attrs, attrs)
	return "msg-1", nil
}

func TestCheckTokenFansOutAuditEntries(t *testing.T) {
	ctx := context.Background()
	auth, accountService := newAuthFixture(t)
	publisher := &capturingPublisher{}
	auth = auth.WithPublisher(publisher)

	created, err := accountService.Create(ctx, "123", "321")
	require.NoError(t, err)

	ok, err := auth.CheckToken(ctx, created.Token, "Get users list")
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, publisher.payloads, 1)
	assert.Equal(t, "audit", publisher.channels[0])
	assert.Equal(t, map[string]string{"login": "123"}, publisher.attrs[0])

	var entry types.AuditEntry
	require.NoError(t, json.Unmarshal(publisher.payloads[0], &entry))
	assert.Equal(t, "123", entry.Login)
	assert.Equal(t, "Get users list", entry.Request)
}

func TestCheckTokenSurvivesBrokerFailure(t *testing.T) {
	ctx := context.Background()
	auth, accountService := newAuthFixture(t)
	auth = auth.WithPublisher(&capturingPublisher{fail: true})

	created, err := accountService.Create(ctx, "123", "321")
	require.NoError(t, err)

	// The Postgres-side trail is authoritative; a dead broker must not
	// turn a valid token into a rejection.
	ok, err := auth.CheckToken(ctx, created.Token, "Get users list")
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := auth.History(ctx, "123")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
