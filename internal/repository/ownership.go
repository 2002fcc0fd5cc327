package repository

import (
	"context"

	"github.com/rongwang/deductible-server/internal/models"
)

// Ownership checks answer ErrNotFound both when the record is missing and when
// someone else owns it.

func (s *store) AssertDonationOwner(ctx context.Context, userID, id string) error {
	return s.assertOwned(ctx, `SELECT COUNT(*) FROM donations WHERE id = ? AND user_id = ? AND deleted = FALSE`, id, userID)
}

// AssertDonationHistoryOwner also accepts soft-deleted donations, whose
// revisions stay readable by their owner.
func (s *store) AssertDonationHistoryOwner(ctx context.Context, userID, id string) error {
	return s.assertOwned(ctx, `SELECT COUNT(*) FROM donations WHERE id = ? AND user_id = ?`, id, userID)
}

// AssertReceiptOwner resolves the owner through the receipt's donation.
func (s *store) AssertReceiptOwner(ctx context.Context, userID, id string) error {
	query := `
		SELECT COUNT(*) FROM receipts r
		JOIN donations d ON d.id = r.donation_id
		WHERE r.id = ? AND d.user_id = ?
	`
	return s.assertOwned(ctx, query, id, userID)
}

func (s *store) AssertCharityOwner(ctx context.Context, userID, id string) error {
	return s.assertOwned(ctx, `SELECT COUNT(*) FROM charities WHERE id = ? AND user_id = ?`, id, userID)
}

func (s *store) assertOwned(ctx context.Context, query, id, userID string) error {
	if id == "" || userID == "" {
		return models.ErrNotFound
	}
	var count int
	if _, err := s.get(ctx, &count, query, id, userID); err != nil {
		return err
	}
	if count == 0 {
		return models.ErrNotFound
	}
	return nil
}
