package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/rongwang/deductible-server/internal/backend"
	"github.com/rongwang/deductible-server/internal/metrics"
	"github.com/rongwang/deductible-server/internal/models"
	"github.com/rongwang/deductible-server/internal/utils"
)

// Revision tables.
const (
	tableDonations = "donations"
	tableCharities = "charities"
	tableReceipts  = "receipts"
	tableUsers     = "users"
)

// snapshot is the full column set of one row at one instant, keyed by
// column name.
type snapshot map[string]any

// RevisionLog writes before/after snapshots to audit_revisions.
type RevisionLog struct {
	h *backend.Handle
}

// NewRevisionLog creates a revision log on h.
func NewRevisionLog(h *backend.Handle) *RevisionLog {
	return &RevisionLog{h: h}
}

// change describes one applied mutation, before it is serialized.
type change struct {
	actor     *string
	table     string
	recordID  string
	operation string
	old       snapshot
	new       snapshot
}

// build serializes c into a revision row.
func (l *RevisionLog) build(c change) (models.Revision, error) {
	rev := models.Revision{
		ID:        uuid.New().String(),
		UserID:    c.actor,
		TableName: c.table,
		RecordID:  c.recordID,
		Operation: c.operation,
		CreatedAt: utils.Now(),
	}
	var err error
	if rev.OldValues, err = encodeSnapshot(c.old); err != nil {
		return rev, fmt.Errorf("encode old snapshot: %w", err)
	}
	if rev.NewValues, err = encodeSnapshot(c.new); err != nil {
		return rev, fmt.Errorf("encode new snapshot: %w", err)
	}
	return rev, nil
}

// Record inserts rev using exec, which is the mutation's transaction when the
// backend couples the two writes and a plain connection otherwise.
func (l *RevisionLog) Record(ctx context.Context, exec sqlx.ExecerContext, rev models.Revision) error {
	query := l.h.Rebind(`
		INSERT INTO audit_revisions (id, user_id, table_name, record_id, operation, old_values, new_values, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := exec.ExecContext(ctx, query,
		rev.ID, rev.UserID, rev.TableName, rev.RecordID, rev.Operation,
		jsonArg(rev.OldValues), jsonArg(rev.NewValues), rev.CreatedAt)
	return err
}

// written counts a revision that is durably stored.
func (l *RevisionLog) written(rev models.Revision) {
	metrics.RevisionsWrittenTotal.WithLabelValues(rev.TableName, rev.Operation).Inc()
}

// lost reports a committed mutation whose revision could not be written.
func (l *RevisionLog) lost(rev models.Revision, err error) {
	metrics.RevisionWriteFailuresTotal.WithLabelValues(rev.TableName).Inc()
	log := l.h.Logger()
	log.Error().
		Err(err).
		Str("table", rev.TableName).
		Str("record_id", rev.RecordID).
		Str("operation", rev.Operation).
		Msg("revision write failed after commit")
}

// jsonArg binds a snapshot as text so both backends store it in a TEXT
// column rather than as a blob.
func jsonArg(v types.NullJSONText) any {
	if !v.Valid {
		return nil
	}
	return string(v.JSONText)
}

func encodeSnapshot(s snapshot) (types.NullJSONText, error) {
	if s == nil {
		return types.NullJSONText{}, nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return types.NullJSONText{}, err
	}
	return types.NullJSONText{JSONText: types.JSONText(raw), Valid: true}, nil
}
