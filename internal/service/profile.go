package service

import (
	"context"
	"fmt"

	"github.com/rongwang/deductible-server/internal/models"
)

func (s *DefaultService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
	}
	return user, nil
}

func (s *DefaultService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	patch := models.UserPatch{
		Name:               req.Name,
		Phone:              req.Phone,
		TaxID:              req.TaxID,
		FilingStatus:       req.FilingStatus,
		AGI:                req.AGI,
		MarginalTaxRate:    req.MarginalTaxRate,
		ItemizeDeductions:  req.ItemizeDeductions,
		LastKnownUpdatedAt: req.UpdatedAt,
	}
	ok, err := s.repo.UpdateUserProfile(ctx, userID, patch)
	if err != nil {
		return nil, fmt.Errorf("error updating profile: %w", err)
	}
	if !ok {
		user, err := s.repo.GetUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("error getting user: %w", err)
		}
		var missing error
		if user == nil {
			missing = models.ErrNotFound
		}
		return nil, notApplied(missing, "user "+userID)
	}
	return s.GetProfile(ctx, userID)
}
