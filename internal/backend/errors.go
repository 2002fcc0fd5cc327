package backend

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrPoolExhausted means no connection became available within the
	// acquire timeout. Retryable.
	ErrPoolExhausted = errors.New("database pool exhausted")
	// ErrConnectFailed means the driver could not open a connection.
	ErrConnectFailed = errors.New("database connect failed")
	// ErrTaskFailure means dispatched work died without reporting a result.
	ErrTaskFailure = errors.New("database task failed")
)

// PostgreSQL SQLSTATE codes.
const (
	pqUniqueViolation   = "23505"
	pqDuplicateTable    = "42P07"
	pqDuplicateColumn   = "42701"
	pqDuplicateObject   = "42710"
	pqDuplicateDatabase = "42P04"
)

// IsUniqueViolation reports whether err is a unique or primary key
// constraint violation on this backend.
func (h *Handle) IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	switch h.kind {
	case Postgres:
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return pqErr.Code == pqUniqueViolation
		}
	case SQLite:
		var sqErr sqlite3.Error
		if errors.As(err, &sqErr) {
			return sqErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
				sqErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
		}
	}
	// Drivers behind wrappers sometimes lose their typed errors.
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// IsAlreadyExists reports whether a DDL error only says the object is
// already there.
func (h *Handle) IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	if h.kind == Postgres {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case pqDuplicateTable, pqDuplicateColumn, pqDuplicateObject, pqDuplicateDatabase:
				return true
			}
			return false
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate column name")
}
