package repository

import (
	"github.com/rongwang/deductible-server/internal/backend"
)

// SQLiteRepository implements the Repository interface using an embedded
// SQLite file. The handle serializes all work on one connection, so no row
// locks are needed. Revisions are written right after the mutation commits.
type SQLiteRepository struct {
	*store
}

// NewSQLiteRepository creates a new SQLite repository
func NewSQLiteRepository(h *backend.Handle) *SQLiteRepository {
	r := &SQLiteRepository{}
	r.store = newStore(h, r)
	return r
}

func (r *SQLiteRepository) lockClause() string {
	return ""
}

func (r *SQLiteRepository) upsertUserQuery() string {
	return `
		INSERT INTO users (id, email, name, provider, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			provider = excluded.provider,
			updated_at = excluded.updated_at
	`
}
