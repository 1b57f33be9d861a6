package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/datakeep/apiserver/types"
	"github.com/lib/pq"
)

// AccountRepository handles persistence for accounts in Postgres.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) List(ctx context.Context) ([]types.Account, error) {
	const query = `
		SELECT login, password, token
		FROM users
		ORDER BY login`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []types.Account{}
	for rows.Next() {
		var account types.Account
		if err := rows.Scan(&account.Login, &account.Password, &account.Token); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) Insert(ctx context.Context, account types.Account) error {
	const query = `
		INSERT INTO users (login, password, token)
		VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, account.Login, account.Password, account.Token)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *AccountRepository) FindByLogin(ctx context.Context, login string) (types.Account, error) {
	const query = `
		SELECT login, password, token
		FROM users
		WHERE login = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, login))
}

func (r *AccountRepository) FindByToken(ctx context.Context, token string) (types.Account, error) {
	const query = `
		SELECT login, password, token
		FROM users
		WHERE token = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, token))
}

// UpdatePassword persists a new password for the login. The token is left
// untouched: rotating it here would invalidate the bearer credential the
// caller just authenticated this very request with.
func (r *AccountRepository) UpdatePassword(ctx context.Context, login, password string) error {
	const query = `
		UPDATE users
		SET password = $2
		WHERE login = $1`
	result, err := r.db.ExecContext(ctx, query, login, password)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, login string) error {
	const query = `DELETE FROM users WHERE login = $1`
	result, err := r.db.ExecContext(ctx, query, login)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AccountRepository) scanOne(row *sql.Row) (types.Account, error) {
	var account types.Account
	err := row.Scan(&account.Login, &account.Password, &account.Token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Account{}, ErrNotFound
		}
		return types.Account{}, err
	}
	return account, nil
}

// isUniqueViolation reports whether the error is a Postgres unique
// constraint violation (class 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
