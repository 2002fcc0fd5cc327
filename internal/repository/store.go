package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/rongwang/deductible-server/internal/backend"
	"github.com/rongwang/deductible-server/internal/models"
)

// dialect holds the statements that differ between backends. Everything else
// is written once with ? placeholders and rebound.
type dialect interface {
	// lockClause is appended to the SELECT that reads a row's old snapshot.
	lockClause() string
	// upsertUserQuery inserts or refreshes a user's identity columns from
	// (id, email, name, provider, updated_at).
	upsertUserQuery() string
}

// store implements Repository on top of a backend handle. The exported
// variants embed it and supply their dialect.
type store struct {
	h         *backend.Handle
	d         dialect
	revisions *RevisionLog
}

func newStore(h *backend.Handle, d dialect) *store {
	return &store{h: h, d: d, revisions: NewRevisionLog(h)}
}

// Handle returns the backend the store runs on.
func (s *store) Handle() *backend.Handle {
	return s.h
}

// mutate runs fn as one unit of work and writes its revision. fn returns a
// nil change when nothing was written, in which case mutate reports false.
//
// When the backend couples revisions, the revision is inserted in fn's
// transaction. Otherwise the mutation commits first and the revision follows
// on the same connection; if that second write fails the mutation still
// stands and the failure is only logged and counted.
func (s *store) mutate(ctx context.Context, fn func(ctx context.Context, tx *sqlx.Tx) (*change, error)) (bool, error) {
	var rev *models.Revision
	err := s.h.Run(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
		err := backend.InTx(ctx, conn, func(tx *sqlx.Tx) error {
			c, err := fn(ctx, tx)
			if err != nil || c == nil {
				return err
			}
			r, err := s.revisions.build(*c)
			if err != nil {
				return err
			}
			rev = &r
			if s.h.CoupledRevisions() {
				return s.revisions.Record(ctx, tx, r)
			}
			return nil
		})
		if err != nil {
			rev = nil
			return err
		}
		if rev == nil {
			return nil
		}

		if !s.h.CoupledRevisions() {
			if err := s.revisions.Record(ctx, conn, *rev); err != nil {
				s.revisions.lost(*rev, err)
				return nil
			}
		}
		s.revisions.written(*rev)
		return nil
	})
	if err != nil {
		return false, err
	}
	return rev != nil, nil
}

// get runs a single-row query, mapping no rows to found=false.
func (s *store) get(ctx context.Context, dest any, query string, args ...any) (bool, error) {
	found := true
	err := s.h.Run(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
		err := conn.GetContext(ctx, dest, s.h.Rebind(query), args...)
		if errors.Is(err, sql.ErrNoRows) {
			found = false
			return nil
		}
		return err
	})
	return found, err
}

func (s *store) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return s.h.Run(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, dest, s.h.Rebind(query), args...)
	})
}

// getRow is get on an open transaction or an already acquired connection.
func (s *store) getRow(ctx context.Context, q sqlx.QueryerContext, dest any, query string, args ...any) (bool, error) {
	err := sqlx.GetContext(ctx, q, dest, s.h.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// execTx runs a statement and returns the number of affected rows.
func (s *store) execTx(ctx context.Context, tx *sqlx.Tx, query string, args ...any) (int64, error) {
	res, err := tx.ExecContext(ctx, s.h.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
