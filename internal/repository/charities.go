package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rongwang/deductible-server/internal/models"
	"github.com/rongwang/deductible-server/internal/utils"
)

const charityRow = `
	SELECT id, user_id, name, ein, category, status, classification, nonprofit_type, deductibility,
		street, city, state, zip, created_at, updated_at
	FROM charities
`

// Charity repository methods
func (s *store) CreateCharity(ctx context.Context, charity *models.Charity) error {
	charity.Name = strings.TrimSpace(charity.Name)
	if charity.UserID == "" || charity.Name == "" {
		return fmt.Errorf("%w: charity needs an owner and a name", models.ErrInvalidInput)
	}

	_, err := s.mutate(ctx, func(ctx context.Context, tx *sqlx.Tx) (*change, error) {
		return s.insertCharityTx(ctx, tx, charity)
	})
	if s.h.IsUniqueViolation(err) {
		return fmt.Errorf("%w: charity %q already exists", models.ErrConflict, charity.Name)
	}
	return err
}

func (s *store) insertCharityTx(ctx context.Context, tx *sqlx.Tx, charity *models.Charity) (*change, error) {
	if charity.ID == "" {
		charity.ID = uuid.New().String()
	}
	now := utils.Now()
	charity.CreatedAt = now
	charity.UpdatedAt = now

	query := `
		INSERT INTO charities (id, user_id, name, ein, category, status, classification, nonprofit_type,
			deductibility, street, city, state, zip, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.execTx(ctx, tx, query,
		charity.ID, charity.UserID, charity.Name, charity.EIN, charity.Category, charity.Status,
		charity.Classification, charity.NonprofitType, charity.Deductibility,
		charity.Street, charity.City, charity.State, charity.Zip,
		charity.CreatedAt, charity.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &change{
		actor:     &charity.UserID,
		table:     tableCharities,
		recordID:  charity.ID,
		operation: models.OpCreate,
		new:       charitySnapshot(charity),
	}, nil
}

func (s *store) GetCharity(ctx context.Context, userID, id string) (*models.Charity, error) {
	var charity models.Charity
	found, err := s.get(ctx, &charity, charityRow+` WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil || !found {
		return nil, err
	}
	return &charity, nil
}

func (s *store) ListCharities(ctx context.Context, userID string) ([]models.Charity, error) {
	charities := []models.Charity{}
	err := s.selectAll(ctx, &charities, charityRow+` WHERE user_id = ? ORDER BY LOWER(name)`, userID)
	if err != nil {
		return nil, err
	}
	return charities, nil
}

// FindCharityByNameOrEIN matches the name case-insensitively first, then the
// EIN exactly.
func (s *store) FindCharityByNameOrEIN(ctx context.Context, userID, name string, ein *string) (*models.Charity, error) {
	var charity *models.Charity
	err := s.h.Run(ctx, func(ctx context.Context, conn *sqlx.Conn) (err error) {
		charity, err = s.findCharity(ctx, conn, userID, name, ein)
		return err
	})
	return charity, err
}

func (s *store) findCharity(ctx context.Context, q sqlx.QueryerContext, userID, name string, ein *string) (*models.Charity, error) {
	var charity models.Charity

	name = strings.TrimSpace(name)
	if name != "" {
		found, err := s.getRow(ctx, q, &charity, charityRow+` WHERE user_id = ? AND LOWER(name) = LOWER(?)`, userID, name)
		if err != nil {
			return nil, err
		}
		if found {
			return &charity, nil
		}
	}

	if ein != nil && strings.TrimSpace(*ein) != "" {
		query := charityRow + ` WHERE user_id = ? AND ein = ? ORDER BY created_at LIMIT 1`
		found, err := s.getRow(ctx, q, &charity, query, userID, strings.TrimSpace(*ein))
		if err != nil {
			return nil, err
		}
		if found {
			return &charity, nil
		}
	}

	return nil, nil
}

// FindOrCreateCharity returns the id of the caller's charity matching name or
// ein, creating it when there is none. A concurrent insert of the same name
// surfaces as a unique violation and is answered by reading the winner.
func (s *store) FindOrCreateCharity(ctx context.Context, userID, name string, ein *string) (string, bool, error) {
	name = strings.TrimSpace(name)
	if userID == "" || name == "" {
		return "", false, fmt.Errorf("%w: charity needs an owner and a name", models.ErrInvalidInput)
	}

	var id string
	created, err := s.mutate(ctx, func(ctx context.Context, tx *sqlx.Tx) (*change, error) {
		existing, err := s.findCharity(ctx, tx, userID, name, ein)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			id = existing.ID
			return nil, nil
		}

		charity := &models.Charity{UserID: userID, Name: name, EIN: ein}
		c, err := s.insertCharityTx(ctx, tx, charity)
		if err != nil {
			return nil, err
		}
		id = charity.ID
		return c, nil
	})

	if s.h.IsUniqueViolation(err) {
		existing, ferr := s.FindCharityByNameOrEIN(ctx, userID, name, ein)
		if ferr != nil {
			return "", false, ferr
		}
		if existing == nil {
			return "", false, err
		}
		return existing.ID, false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, created, nil
}

func (s *store) UpdateCharity(ctx context.Context, userID, id string, patch models.CharityPatch) (bool, error) {
	updated, err := s.mutate(ctx, func(ctx context.Context, tx *sqlx.Tx) (*change, error) {
		old, err := s.lockCharityTx(ctx, tx, userID, id)
		if err != nil || old == nil {
			return nil, err
		}

		stale, err := isStale(old.UpdatedAt, patch.LastKnownUpdatedAt)
		if err != nil {
			return nil, err
		}
		if stale {
			log := s.h.Logger()
			log.Debug().Str("charity_id", id).Msg("stale charity update rejected")
			return nil, nil
		}

		next := *old
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return nil, fmt.Errorf("%w: charity name cannot be empty", models.ErrInvalidInput)
			}
			next.Name = name
		}
		setIfPresent(&next.EIN, patch.EIN)
		setIfPresent(&next.Category, patch.Category)
		setIfPresent(&next.Status, patch.Status)
		setIfPresent(&next.Classification, patch.Classification)
		setIfPresent(&next.NonprofitType, patch.NonprofitType)
		setIfPresent(&next.Deductibility, patch.Deductibility)
		setIfPresent(&next.Street, patch.Street)
		setIfPresent(&next.City, patch.City)
		setIfPresent(&next.State, patch.State)
		setIfPresent(&next.Zip, patch.Zip)
		next.UpdatedAt = nextTimestamp(old.UpdatedAt)

		query := `
			UPDATE charities
			SET name = ?, ein = ?, category = ?, status = ?, classification = ?, nonprofit_type = ?,
				deductibility = ?, street = ?, city = ?, state = ?, zip = ?, updated_at = ?
			WHERE id = ? AND user_id = ? AND updated_at = ?
		`
		n, err := s.execTx(ctx, tx, query,
			next.Name, next.EIN, next.Category, next.Status, next.Classification, next.NonprofitType,
			next.Deductibility, next.Street, next.City, next.State, next.Zip, next.UpdatedAt,
			id, userID, old.UpdatedAt)
		if err != nil || n == 0 {
			return nil, err
		}

		return &change{
			actor:     &userID,
			table:     tableCharities,
			recordID:  id,
			operation: models.OpUpdate,
			old:       charitySnapshot(old),
			new:       charitySnapshot(&next),
		}, nil
	})
	if s.h.IsUniqueViolation(err) {
		return false, fmt.Errorf("%w: another charity already uses that name", models.ErrConflict)
	}
	return updated, err
}

// DeleteCharity hard-deletes a charity that no live donation references.
// Donations that were soft-deleted keep their charity_id for history.
func (s *store) DeleteCharity(ctx context.Context, userID, id string) (bool, error) {
	return s.mutate(ctx, func(ctx context.Context, tx *sqlx.Tx) (*change, error) {
		old, err := s.lockCharityTx(ctx, tx, userID, id)
		if err != nil || old == nil {
			return nil, err
		}

		var inUse int
		query := `SELECT COUNT(*) FROM donations WHERE charity_id = ? AND deleted = FALSE`
		if _, err := s.getRow(ctx, tx, &inUse, query, id); err != nil {
			return nil, err
		}
		if inUse > 0 {
			return nil, fmt.Errorf("charity %s: %w", id, models.ErrCharityInUse)
		}

		n, err := s.execTx(ctx, tx, `DELETE FROM charities WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil || n == 0 {
			return nil, err
		}

		return &change{
			actor:     &userID,
			table:     tableCharities,
			recordID:  id,
			operation: models.OpDelete,
			old:       charitySnapshot(old),
		}, nil
	})
}

func (s *store) lockCharityTx(ctx context.Context, tx *sqlx.Tx, userID, id string) (*models.Charity, error) {
	var charity models.Charity
	found, err := s.getRow(ctx, tx, &charity, charityRow+` WHERE id = ? AND user_id = ?`+s.d.lockClause(), id, userID)
	if err != nil || !found {
		return nil, err
	}
	return &charity, nil
}

func setIfPresent(dst **string, value *string) {
	if value != nil {
		*dst = value
	}
}
