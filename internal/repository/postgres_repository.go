package repository

import (
	"github.com/rongwang/deductible-server/internal/backend"
)

// PostgresRepository implements the Repository interface using PostgreSQL.
// Revisions are written in the same transaction as the mutation, and rows
// read for an update are locked with FOR UPDATE.
type PostgresRepository struct {
	*store
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(h *backend.Handle) *PostgresRepository {
	r := &PostgresRepository{}
	r.store = newStore(h, r)
	return r
}

func (r *PostgresRepository) lockClause() string {
	return " FOR UPDATE"
}

func (r *PostgresRepository) upsertUserQuery() string {
	return `
		MERGE INTO users u
		USING (SELECT ?::varchar AS id, ?::varchar AS email, ?::varchar AS name,
			?::varchar AS provider, ?::varchar AS updated_at) s
		ON u.id = s.id
		WHEN MATCHED THEN
			UPDATE SET email = s.email, name = s.name, provider = s.provider, updated_at = s.updated_at
		WHEN NOT MATCHED THEN
			INSERT (id, email, name, provider, updated_at)
			VALUES (s.id, s.email, s.name, s.provider, s.updated_at)
	`
}
