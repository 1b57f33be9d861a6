package store

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datakeep/apiserver/types"
)

// The behavioral suite below runs against every account/audit backend: the
// in-memory fakes always, Postgres when TEST_DATABASE_DSN points at a
// migrated database. Handlers are written against these contracts only, so
// the suite passing on both sides is what keeps the backends swappable.

type accountStore interface {
	List(ctx context.Context) ([]types.Account, error)
	Insert(ctx context.Context, account types.Account) error
	FindByLogin(ctx context.Context, login string) (types.Account, error)
	FindByToken(ctx context.Context, token string) (types.Account, error)
	UpdatePassword(ctx context.Context, login, password string) error
	Delete(ctx context.Context, login string) error
}

type auditStore interface {
	Append(ctx context.Context, entry types.AuditEntry) error
	ListByLogin(ctx context.Context, login string) ([]types.AuditEntry, error)
}

func TestMemAccountStoreSuite(t *testing.T) {
	runAccountSuite(t, NewMemAccountStore())
}

func TestMemAuditStoreSuite(t *testing.T) {
	runAuditSuite(t, NewMemAuditStore())
}

func TestPostgresAccountStoreSuite(t *testing.T) {
	db := openTestDB(t)
	runAccountSuite(t, NewAccountRepository(db))
}

func TestPostgresAuditStoreSuite(t *testing.T) {
	db := openTestDB(t)
	runAuditSuite(t, NewAuditRepository(db))
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("TRUNCATE users, history")
	require.NoError(t, err)
	return db
}

func runAccountSuite(t *testing.T, s accountStore) {
	ctx := context.Background()

	t.Run("insert is unique per login", func(t *testing.T) {
		account := types.Account{Login: "suite-bob", Password: "321", Token: "suite-tok-bob"}
		require.NoError(t, s.Insert(ctx, account))
		assert.ErrorIs(t, s.Insert(ctx, account), ErrConflict)
	})

	t.Run("find by login and token", func(t *testing.T) {
		account := types.Account{Login: "suite-alice", Password: "pw", Token: "suite-tok-alice"}
		require.NoError(t, s.Insert(ctx, account))

		byLogin, err := s.FindByLogin(ctx, "suite-alice")
		require.NoError(t, err)
		assert.Equal(t, account, byLogin)

		byToken, err := s.FindByToken(ctx, "suite-tok-alice")
		require.NoError(t, err)
		assert.Equal(t, account, byToken)

		_, err = s.FindByLogin(ctx, "suite-ghost")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.FindByToken(ctx, "suite-tok-ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update password keeps token", func(t *testing.T) {
		account := types.Account{Login: "suite-carol", Password: "old", Token: "suite-tok-carol"}
		require.NoError(t, s.Insert(ctx, account))

		require.NoError(t, s.UpdatePassword(ctx, "suite-carol", "new"))
		updated, err := s.FindByLogin(ctx, "suite-carol")
		require.NoError(t, err)
		assert.Equal(t, "new", updated.Password)
		assert.Equal(t, "suite-tok-carol", updated.Token)

		assert.ErrorIs(t, s.UpdatePassword(ctx, "suite-ghost", "x"), ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		account := types.Account{Login: "suite-dave", Password: "pw", Token: "suite-tok-dave"}
		require.NoError(t, s.Insert(ctx, account))

		require.NoError(t, s.Delete(ctx, "suite-dave"))
		_, err := s.FindByLogin(ctx, "suite-dave")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "suite-dave"), ErrNotFound)
	})

	t.Run("list contains inserted accounts", func(t *testing.T) {
		accounts, err := s.List(ctx)
		require.NoError(t, err)

		logins := make(map[string]bool, len(accounts))
		for _, account := range accounts {
			logins[account.Login] = true
		}
		assert.True(t, logins["suite-bob"])
		assert.True(t, logins["suite-alice"])
		assert.False(t, logins["suite-dave"])
	})
}

func runAuditSuite(t *testing.T, s auditStore) {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("append and list by login", func(t *testing.T) {
		first := types.AuditEntry{ID: "suite-1", Login: "suite-bob", Request: "Get users list", Timestamp: base}
		second := types.AuditEntry{ID: "suite-2", Login: "suite-bob", Request: "Insert data", Timestamp: base.Add(time.Second)}
		other := types.AuditEntry{ID: "suite-3", Login: "suite-alice", Request: "Get user suite-bob", Timestamp: base}

		require.NoError(t, s.Append(ctx, first))
		require.NoError(t, s.Append(ctx, second))
		require.NoError(t, s.Append(ctx, other))

		entries, err := s.ListByLogin(ctx, "suite-bob")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assertEntry(t, first, entries[0])
		assertEntry(t, second, entries[1])
	})

	t.Run("unknown login yields empty", func(t *testing.T) {
		entries, err := s.ListByLogin(ctx, "suite-nobody")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

// assertEntry compares entries field by field; timestamps are compared as
// instants because the driver may hand back a different time zone.
func assertEntry(t *testing.T, want, got types.AuditEntry) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Login, got.Login)
	assert.Equal(t, want.Request, got.Request)
	assert.True(t, want.Timestamp.Equal(got.Timestamp))
}
