package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rongwang/deductible-server/internal/models"
	"github.com/rongwang/deductible-server/internal/utils"
)

// Audit repository methods

// LogAudit appends an activity feed entry. Entries are not revisions and
// carry no snapshots.
func (s *store) LogAudit(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt == "" {
		entry.CreatedAt = utils.Now()
	}

	query := s.h.Rebind(`
		INSERT INTO audit_logs (id, user_id, action, table_name, record_id, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	return s.h.Run(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
		_, err := conn.ExecContext(ctx, query,
			entry.ID, entry.UserID, entry.Action, entry.TableName, entry.RecordID, entry.Details, entry.CreatedAt)
		return err
	})
}

func (s *store) ListAuditLogs(ctx context.Context, userID string, since *string) ([]models.AuditLog, error) {
	query := `SELECT id, user_id, action, table_name, record_id, details, created_at FROM audit_logs WHERE user_id = ?`
	args := []any{userID}

	if since != nil {
		normalized, err := utils.NormalizeTimestamp(*since)
		if err != nil {
			return nil, fmt.Errorf("%w: since: %v", models.ErrInvalidInput, err)
		}
		query += ` AND created_at > ?`
		args = append(args, normalized)
	}
	query += ` ORDER BY created_at DESC`

	logs := []models.AuditLog{}
	if err := s.selectAll(ctx, &logs, query, args...); err != nil {
		return nil, err
	}
	return logs, nil
}

// ListRevisions returns a record's history, oldest first.
func (s *store) ListRevisions(ctx context.Context, table, recordID string) ([]models.Revision, error) {
	query := `
		SELECT id, user_id, table_name, record_id, operation, old_values, new_values, created_at
		FROM audit_revisions
		WHERE table_name = ? AND record_id = ?
		ORDER BY created_at ASC
	`

	revisions := []models.Revision{}
	if err := s.selectAll(ctx, &revisions, query, table, recordID); err != nil {
		return nil, err
	}
	return revisions, nil
}
