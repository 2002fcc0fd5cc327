package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/rongwang/deductible-server/internal/backend"
)

// ErrSchemaMismatch wraps any bootstrap failure. It is fatal at startup.
var ErrSchemaMismatch = errors.New("schema mismatch")

// Ensure creates or upgrades the schema. It is safe to run any number of
// times: objects that already exist are left alone, and only "already
// exists" class errors are ignored.
func Ensure(ctx context.Context, h *backend.Handle) error {
	err := h.Run(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
		m := &manager{h: h, conn: conn}
		return m.ensure(ctx)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return nil
}

type manager struct {
	h    *backend.Handle
	conn *sqlx.Conn
}

func (m *manager) ensure(ctx context.Context) error {
	log := m.h.Logger()

	tables := sqliteTables
	if m.h.Kind() == backend.Postgres {
		tables = postgresTables
	}
	for _, stmt := range tables {
		if err := m.exec(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	for _, col := range lateColumns {
		ty := col.sqliteTy
		if m.h.Kind() == backend.Postgres {
			ty = col.postgresTy
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", col.table, col.name, ty)
		if err := m.exec(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s.%s: %w", col.table, col.name, err)
		}
	}

	for _, stmt := range append(indexes, receiptIndexes...) {
		if err := m.exec(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	if err := m.migrateLegacyReceipts(ctx); err != nil {
		return fmt.Errorf("migrate receipts: %w", err)
	}

	log.Info().Msg("schema ensured")
	return nil
}

// exec runs one DDL statement, treating "already exists" as success.
func (m *manager) exec(ctx context.Context, stmt string) error {
	if _, err := m.conn.ExecContext(ctx, stmt); err != nil {
		if m.h.IsAlreadyExists(err) {
			return nil
		}
		return err
	}
	return nil
}

func (m *manager) columns(ctx context.Context, table string) (map[string]bool, error) {
	var query string
	if m.h.Kind() == backend.Postgres {
		query = `SELECT column_name FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1`
	} else {
		query = `SELECT name FROM pragma_table_info(?)`
	}

	var names []string
	if err := m.conn.SelectContext(ctx, &names, query, table); err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[strings.ToLower(n)] = true
	}
	return out, nil
}

// migrateLegacyReceipts rebuilds receipts when it still has the user_id
// column from before ownership moved to the donation join. The rebuild runs
// in one transaction, so a failure leaves the old table in place.
func (m *manager) migrateLegacyReceipts(ctx context.Context) error {
	existing, err := m.columns(ctx, "receipts")
	if err != nil {
		return err
	}
	if !existing["user_id"] {
		return nil
	}

	log := m.h.Logger()
	log.Warn().Msg("rebuilding legacy receipts table")

	var shared []string
	for _, c := range receiptColumns {
		if existing[c] {
			shared = append(shared, c)
		}
	}
	cols := strings.Join(shared, ", ")

	definition := sqliteReceiptColumns
	if m.h.Kind() == backend.Postgres {
		definition = postgresReceiptColumns
	}

	return backend.InTx(ctx, m.conn, func(tx *sqlx.Tx) error {
		stmts := []string{
			"DROP TABLE IF EXISTS receipts_rebuild",
			"CREATE TABLE receipts_rebuild (" + definition + ")",
			fmt.Sprintf(`INSERT INTO receipts_rebuild (%s)
				SELECT %s FROM receipts WHERE donation_id IN (SELECT id FROM donations)`, cols, cols),
			"DROP TABLE receipts",
			"ALTER TABLE receipts_rebuild RENAME TO receipts",
		}
		stmts = append(stmts, receiptIndexes...)
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("%q: %w", firstLine(stmt), err)
			}
		}
		return nil
	})
}

func firstLine(stmt string) string {
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return stmt[:i]
	}
	return stmt
}
