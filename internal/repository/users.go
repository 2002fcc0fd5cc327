package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/rongwang/deductible-server/internal/models"
	"github.com/rongwang/deductible-server/internal/utils"
)

const userRow = `
	SELECT id, email, name, provider, phone, tax_id, filing_status, agi, marginal_tax_rate,
		itemize_deductions, updated_at
	FROM users
`

// User repository methods

// UpsertUser records a successful sign-in. Identity columns are refreshed;
// profile fields the user edited are kept.
func (s *store) UpsertUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return fmt.Errorf("%w: user id is required", models.ErrInvalidInput)
	}

	_, err := s.mutate(ctx, func(ctx context.Context, tx *sqlx.Tx) (*change, error) {
		var old models.User
		found, err := s.getRow(ctx, tx, &old, userRow+` WHERE id = ?`+s.d.lockClause(), user.ID)
		if err != nil {
			return nil, err
		}

		next := models.User{ID: user.ID}
		operation := models.OpCreate
		if found {
			next = old
			operation = models.OpUpdate
			next.UpdatedAt = nextTimestamp(old.UpdatedAt)
		} else {
			next.UpdatedAt = utils.Now()
		}
		next.Email = user.Email
		next.Name = user.Name
		next.Provider = user.Provider

		_, err = s.execTx(ctx, tx, s.d.upsertUserQuery(),
			next.ID, next.Email, next.Name, next.Provider, next.UpdatedAt)
		if err != nil {
			return nil, err
		}

		*user = next
		c := &change{
			actor:     &next.ID,
			table:     tableUsers,
			recordID:  next.ID,
			operation: operation,
			new:       userSnapshot(&next),
		}
		if found {
			c.old = userSnapshot(&old)
		}
		return c, nil
	})
	return err
}

func (s *store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	found, err := s.get(ctx, &user, userRow+` WHERE id = ?`, id)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (s *store) UpdateUserProfile(ctx context.Context, id string, patch models.UserPatch) (bool, error) {
	return s.mutate(ctx, func(ctx context.Context, tx *sqlx.Tx) (*change, error) {
		var old models.User
		found, err := s.getRow(ctx, tx, &old, userRow+` WHERE id = ?`+s.d.lockClause(), id)
		if err != nil || !found {
			return nil, err
		}

		stale, err := isStale(old.UpdatedAt, patch.LastKnownUpdatedAt)
		if err != nil {
			return nil, err
		}
		if stale {
			return nil, nil
		}

		next := old
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return nil, fmt.Errorf("%w: name cannot be empty", models.ErrInvalidInput)
			}
			next.Name = name
		}
		setIfPresent(&next.Phone, patch.Phone)
		setIfPresent(&next.TaxID, patch.TaxID)
		setIfPresent(&next.FilingStatus, patch.FilingStatus)
		if patch.AGI != nil {
			next.AGI = patch.AGI
		}
		if patch.MarginalTaxRate != nil {
			if *patch.MarginalTaxRate < 0 || *patch.MarginalTaxRate > 1 {
				return nil, fmt.Errorf("%w: marginal tax rate must be between 0 and 1", models.ErrInvalidInput)
			}
			next.MarginalTaxRate = patch.MarginalTaxRate
		}
		if patch.ItemizeDeductions != nil {
			next.ItemizeDeductions = patch.ItemizeDeductions
		}
		next.UpdatedAt = nextTimestamp(old.UpdatedAt)

		query := `
			UPDATE users
			SET name = ?, phone = ?, tax_id = ?, filing_status = ?, agi = ?, marginal_tax_rate = ?,
				itemize_deductions = ?, updated_at = ?
			WHERE id = ? AND updated_at = ?
		`
		n, err := s.execTx(ctx, tx, query,
			next.Name, next.Phone, next.TaxID, next.FilingStatus, next.AGI, next.MarginalTaxRate,
			next.ItemizeDeductions, next.UpdatedAt, id, old.UpdatedAt)
		if err != nil || n == 0 {
			return nil, err
		}

		return &change{
			actor:     &id,
			table:     tableUsers,
			recordID:  id,
			operation: models.OpUpdate,
			old:       userSnapshot(&old),
			new:       userSnapshot(&next),
		}, nil
	})
}
