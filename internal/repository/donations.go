package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rongwang/deductible-server/internal/models"
	"github.com/rongwang/deductible-server/internal/utils"
)

const donationSelect = `
	SELECT d.id, d.user_id, d.year, d.date, d.category, d.amount, d.charity_id, d.notes,
		d.created_at, d.updated_at, d.deleted,
		COALESCE(c.name, '') AS charity_name, c.ein AS charity_ein
	FROM donations d
	LEFT JOIN charities c ON c.id = d.charity_id
`

const donationRow = `
	SELECT id, user_id, year, date, category, amount, charity_id, notes, created_at, updated_at, deleted
	FROM donations
`

// Donation repository methods
func (s *store) CreateDonation(ctx context.Context, donation *models.Donation) error {
	if donation.UserID == "" || donation.CharityID == "" {
		return fmt.Errorf("%w: donation needs an owner and a charity", models.ErrInvalidInput)
	}
	year, err := utils.YearOf(donation.Date)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	// Offline clients assign their own ids
	if donation.ID == "" {
		donation.ID = uuid.New().String()
	}

	now := utils.Now()
	donation.Year = year
	donation.Category = models.NormalizeCategory(donation.Category)
	donation.CreatedAt = now
	donation.UpdatedAt = now
	donation.Deleted = false

	_, err = s.mutate(ctx, func(ctx context.Context, tx *sqlx.Tx) (*change, error) {
		if err := s.requireCharityTx(ctx, tx, donation.UserID, donation.CharityID); err != nil {
			return nil, err
		}

		query := `
			INSERT INTO donations (id, user_id, year, date, category, amount, charity_id, notes, created_at, updated_at, deleted)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := s.execTx(ctx, tx, query,
			donation.ID, donation.UserID, donation.Year, donation.Date, donation.Category,
			donation.Amount, donation.CharityID, donation.Notes,
			donation.CreatedAt, donation.UpdatedAt, donation.Deleted)
		if err != nil {
			if s.h.IsUniqueViolation(err) {
				return nil, fmt.Errorf("%w: donation %s already exists", models.ErrConflict, donation.ID)
			}
			return nil, err
		}

		return &change{
			actor:     &donation.UserID,
			table:     tableDonations,
			recordID:  donation.ID,
			operation: models.OpCreate,
			new:       donationSnapshot(donation),
		}, nil
	})
	return err
}

func (s *store) GetDonation(ctx context.Context, userID, id string) (*models.Donation, error) {
	query := donationSelect + ` WHERE d.id = ? AND d.user_id = ? AND d.deleted = FALSE`

	var donation models.Donation
	found, err := s.get(ctx, &donation, query, id, userID)
	if err != nil || !found {
		return nil, err // nil, nil when not found
	}
	return &donation, nil
}

func (s *store) ListDonations(ctx context.Context, userID string, filter models.DonationFilter) ([]models.Donation, error) {
	query := donationSelect + ` WHERE d.user_id = ?`
	args := []any{userID}

	// Deleted rows are only surfaced to incremental pulls that ask for them
	if filter.Since == nil || !filter.IncludeDeleted {
		query += ` AND d.deleted = FALSE`
	}

	if filter.Year != nil {
		query += ` AND d.year = ?`
		args = append(args, *filter.Year)
	}

	if filter.Since != nil {
		since, err := utils.NormalizeTimestamp(*filter.Since)
		if err != nil {
			return nil, fmt.Errorf("%w: since: %v", models.ErrInvalidInput, err)
		}
		// A new record has no update yet, so both stamps are checked
		query += ` AND (d.updated_at > ? OR d.created_at > ?)`
		args = append(args, since, since)
	}

	query += ` ORDER BY d.date DESC, d.created_at DESC`

	donations := []models.Donation{}
	if err := s.selectAll(ctx, &donations, query, args...); err != nil {
		return nil, err
	}
	return donations, nil
}

func (s *store) ListDonationYears(ctx context.Context, userID string) ([]int, error) {
	query := `SELECT DISTINCT year FROM donations WHERE user_id = ? AND deleted = FALSE ORDER BY year DESC`

	years := []int{}
	if err := s.selectAll(ctx, &years, query, userID); err != nil {
		return nil, err
	}
	return years, nil
}

func (s *store) UpdateDonation(ctx context.Context, userID, id string, patch models.DonationPatch) (bool, error) {
	return s.mutate(ctx, func(ctx context.Context, tx *sqlx.Tx) (*change, error) {
		old, err := s.lockDonationTx(ctx, tx, userID, id)
		if err != nil || old == nil {
			return nil, err
		}

		stale, err := isStale(old.UpdatedAt, patch.LastKnownUpdatedAt)
		if err != nil {
			return nil, err
		}
		if stale {
			log := s.h.Logger()
			log.Debug().Str("donation_id", id).Msg("stale donation update rejected")
			return nil, nil
		}

		next := *old
		if patch.Date != nil {
			year, err := utils.YearOf(*patch.Date)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
			}
			next.Date = *patch.Date
			next.Year = year
		}
		if patch.Category != nil {
			next.Category = models.NormalizeCategory(patch.Category)
		}
		if patch.Amount != nil {
			next.Amount = patch.Amount
		}
		if patch.Notes != nil {
			next.Notes = patch.Notes
		}
		if patch.CharityID != nil && *patch.CharityID != old.CharityID {
			if err := s.requireCharityTx(ctx, tx, userID, *patch.CharityID); err != nil {
				return nil, err
			}
			next.CharityID = *patch.CharityID
		}
		next.UpdatedAt = nextTimestamp(old.UpdatedAt)

		query := `
			UPDATE donations
			SET year = ?, date = ?, category = ?, amount = ?, charity_id = ?, notes = ?, updated_at = ?
			WHERE id = ? AND user_id = ? AND updated_at = ?
		`
		n, err := s.execTx(ctx, tx, query,
			next.Year, next.Date, next.Category, next.Amount, next.CharityID, next.Notes, next.UpdatedAt,
			id, userID, old.UpdatedAt)
		if err != nil || n == 0 {
			return nil, err
		}

		return &change{
			actor:     &userID,
			table:     tableDonations,
			recordID:  id,
			operation: models.OpUpdate,
			old:       donationSnapshot(old),
			new:       donationSnapshot(&next),
		}, nil
	})
}

// SoftDeleteDonation flags the donation as deleted. The row and its receipts
// stay for history.
func (s *store) SoftDeleteDonation(ctx context.Context, userID, id string) (bool, error) {
	return s.mutate(ctx, func(ctx context.Context, tx *sqlx.Tx) (*change, error) {
		old, err := s.lockDonationTx(ctx, tx, userID, id)
		if err != nil || old == nil {
			return nil, err
		}

		next := *old
		next.Deleted = true
		next.UpdatedAt = nextTimestamp(old.UpdatedAt)

		query := `UPDATE donations SET deleted = ?, updated_at = ? WHERE id = ? AND user_id = ? AND updated_at = ?`
		n, err := s.execTx(ctx, tx, query, true, next.UpdatedAt, id, userID, old.UpdatedAt)
		if err != nil || n == 0 {
			return nil, err
		}

		return &change{
			actor:     &userID,
			table:     tableDonations,
			recordID:  id,
			operation: models.OpDelete,
			old:       donationSnapshot(old),
			new:       donationSnapshot(&next),
		}, nil
	})
}

// lockDonationTx reads the live donation row that a mutation will replace.
func (s *store) lockDonationTx(ctx context.Context, tx *sqlx.Tx, userID, id string) (*models.Donation, error) {
	query := donationRow + ` WHERE id = ? AND user_id = ? AND deleted = FALSE` + s.d.lockClause()

	var donation models.Donation
	found, err := s.getRow(ctx, tx, &donation, query, id, userID)
	if err != nil || !found {
		return nil, err
	}
	return &donation, nil
}

// requireCharityTx fails with ErrNotFound unless the charity belongs to userID.
func (s *store) requireCharityTx(ctx context.Context, tx *sqlx.Tx, userID, charityID string) error {
	var count int
	query := `SELECT COUNT(*) FROM charities WHERE id = ? AND user_id = ?`
	if _, err := s.getRow(ctx, tx, &count, query, charityID, userID); err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("charity %s: %w", charityID, models.ErrNotFound)
	}
	return nil
}
