package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rongwang/deductible-server/internal/models"
	"github.com/rongwang/deductible-server/internal/registry"
)

func (s *DefaultService) ListCharities(ctx context.Context, userID string) ([]models.Charity, error) {
	charities, err := s.repo.ListCharities(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing charities: %w", err)
	}
	return charities, nil
}

// CreateCharity stores a charity. When an EIN is given the registry record
// fills in classification and any address fields the request left empty. A
// registry failure does not block the create.
func (s *DefaultService) CreateCharity(ctx context.Context, userID string, req models.CreateCharityRequest) (*models.Charity, error) {
	charity := &models.Charity{
		UserID: userID,
		Name:   req.Name,
		EIN:    req.EIN,
		Street: req.Street,
		City:   req.City,
		State:  req.State,
		Zip:    req.Zip,
	}

	if req.EIN != nil && strings.TrimSpace(*req.EIN) != "" {
		org, err := s.registry.Lookup(ctx, *req.EIN)
		switch {
		case err == nil:
			enrich(charity, org)
		case errors.Is(err, models.ErrInvalidInput):
			return nil, err
		default:
			s.log.Warn().Err(err).Str("ein", *req.EIN).Msg("charity created without registry data")
		}
	}

	if err := s.repo.CreateCharity(ctx, charity); err != nil {
		return nil, fmt.Errorf("error creating charity: %w", err)
	}
	return charity, nil
}

func (s *DefaultService) UpdateCharity(ctx context.Context, userID, id string, req models.UpdateCharityRequest) (*models.Charity, error) {
	patch := models.CharityPatch{
		Name:               req.Name,
		EIN:                req.EIN,
		Category:           req.Category,
		Status:             req.Status,
		Classification:     req.Classification,
		NonprofitType:      req.NonprofitType,
		Deductibility:      req.Deductibility,
		Street:             req.Street,
		City:               req.City,
		State:              req.State,
		Zip:                req.Zip,
		LastKnownUpdatedAt: req.UpdatedAt,
	}
	ok, err := s.repo.UpdateCharity(ctx, userID, id, patch)
	if err != nil {
		return nil, fmt.Errorf("error updating charity: %w", err)
	}
	if !ok {
		return nil, notApplied(s.repo.AssertCharityOwner(ctx, userID, id), "charity "+id)
	}

	charity, err := s.repo.GetCharity(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("error reading charity: %w", err)
	}
	if charity == nil {
		return nil, fmt.Errorf("charity %s: %w", id, models.ErrNotFound)
	}
	return charity, nil
}

func (s *DefaultService) DeleteCharity(ctx context.Context, userID, id string) error {
	ok, err := s.repo.DeleteCharity(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("error deleting charity: %w", err)
	}
	if !ok {
		return fmt.Errorf("charity %s: %w", id, models.ErrNotFound)
	}
	s.audit(ctx, userID, "delete", "charities", id, "Deleted charity id="+id)
	return nil
}

func (s *DefaultService) LookupCharity(ctx context.Context, ein string) (*registry.Organization, error) {
	return s.registry.Lookup(ctx, ein)
}

func (s *DefaultService) SearchCharities(ctx context.Context, query string) ([]registry.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty search query", models.ErrInvalidInput)
	}
	return s.registry.Search(ctx, query)
}

func enrich(charity *models.Charity, org *registry.Organization) {
	ein := org.EIN
	charity.EIN = &ein
	charity.Category = org.Category
	charity.Status = org.Status
	charity.Classification = org.Classification
	charity.NonprofitType = org.NonprofitType
	charity.Deductibility = org.Deductibility
	fill := func(dst **string, value *string) {
		if *dst == nil || strings.TrimSpace(**dst) == "" {
			*dst = value
		}
	}
	fill(&charity.Street, org.Street)
	fill(&charity.City, org.City)
	fill(&charity.State, org.State)
	fill(&charity.Zip, org.Zip)
}
