package store

import (
	"context"
	"database/sql"

	"github.com/datakeep/apiserver/types"
)

// AuditRepository handles persistence for the append-only audit trail.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry types.AuditEntry) error {
	const query = `
		INSERT INTO history (id, login, request, tms)
		VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, entry.ID, entry.Login, entry.Request, entry.Timestamp)
	return err
}

func (r *AuditRepository) ListByLogin(ctx context.Context, login string) ([]types.AuditEntry, error) {
	const query = `
		SELECT id, login, request, tms
		FROM history
		WHERE login = $1
		ORDER BY tms`
	rows, err := r.db.QueryContext(ctx, query, login)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []types.AuditEntry{}
	for rows.Next() {
		var entry types.AuditEntry
		if err := rows.Scan(&entry.ID, &entry.Login, &entry.Request, &entry.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
