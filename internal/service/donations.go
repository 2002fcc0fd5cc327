package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rongwang/deductible-server/internal/models"
)

func (s *DefaultService) ListDonations(ctx context.Context, userID string, filter models.DonationFilter) ([]models.Donation, error) {
	donations, err := s.repo.ListDonations(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing donations: %w", err)
	}
	return donations, nil
}

// CreateDonation stores a donation. Without a charity id the charity is
// matched by name or EIN and created on first use.
func (s *DefaultService) CreateDonation(ctx context.Context, userID string, req models.CreateDonationRequest) (*models.Donation, error) {
	charityID, err := s.resolveCharity(ctx, userID, req.CharityID, req.CharityName, req.CharityEIN)
	if err != nil {
		return nil, err
	}

	donation := &models.Donation{
		UserID:    userID,
		Date:      req.Date,
		Category:  req.Category,
		Amount:    req.Amount,
		CharityID: charityID,
		Notes:     req.Notes,
	}
	if req.ID != nil {
		donation.ID = strings.TrimSpace(*req.ID)
	}
	if err := s.repo.CreateDonation(ctx, donation); err != nil {
		return nil, fmt.Errorf("error creating donation: %w", err)
	}

	created, err := s.repo.GetDonation(ctx, userID, donation.ID)
	if err != nil {
		return nil, fmt.Errorf("error reading donation: %w", err)
	}
	if created == nil {
		return donation, nil
	}
	return created, nil
}

func (s *DefaultService) UpdateDonation(ctx context.Context, userID, id string, req models.UpdateDonationRequest) (*models.Donation, error) {
	patch := models.DonationPatch{
		Date:               req.Date,
		Category:           req.Category,
		CharityID:          req.CharityID,
		Amount:             req.Amount,
		Notes:              req.Notes,
		LastKnownUpdatedAt: req.UpdatedAt,
	}
	ok, err := s.repo.UpdateDonation(ctx, userID, id, patch)
	if err != nil {
		return nil, fmt.Errorf("error updating donation: %w", err)
	}
	if !ok {
		return nil, notApplied(s.repo.AssertDonationOwner(ctx, userID, id), "donation "+id)
	}

	updated, err := s.repo.GetDonation(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("error reading donation: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("donation %s: %w", id, models.ErrNotFound)
	}
	return updated, nil
}

func (s *DefaultService) DeleteDonation(ctx context.Context, userID, id string) error {
	ok, err := s.repo.SoftDeleteDonation(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("error deleting donation: %w", err)
	}
	if !ok {
		return fmt.Errorf("donation %s: %w", id, models.ErrNotFound)
	}
	s.audit(ctx, userID, "delete", "donations", id, "Deleted donation id="+id)
	return nil
}

// DonationRevisions returns the revision history of one of userID's
// donations, oldest first. Deleted donations keep their history.
func (s *DefaultService) DonationRevisions(ctx context.Context, userID, id string) ([]models.Revision, error) {
	if err := s.repo.AssertDonationHistoryOwner(ctx, userID, id); err != nil {
		return nil, err
	}
	revisions, err := s.repo.ListRevisions(ctx, "donations", id)
	if err != nil {
		return nil, fmt.Errorf("error listing revisions: %w", err)
	}
	return revisions, nil
}

// Import columns, in order. Only date and charity_name are required.
const (
	colID = iota
	colDate
	colCharityName
	colCharityID
	colCharityEIN
	colNotes
	colAmount
	colCategory
)

// ImportDonations loads donations from CSV text with a header row. Rows that
// cannot be stored are skipped and counted.
func (s *DefaultService) ImportDonations(ctx context.Context, userID, data string) (*models.ImportResponse, error) {
	reader := csv.NewReader(strings.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("%w: csv header: %v", models.ErrInvalidInput, err)
	}

	resp := &models.ImportResponse{Status: "success"}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.log.Warn().Err(err).Int("line", line).Msg("csv parse error")
			resp.Skipped++
			continue
		}

		req, err := parseImportRow(record)
		if err != nil {
			s.log.Warn().Err(err).Int("line", line).Msg("import row rejected")
			resp.Skipped++
			continue
		}
		donation, err := s.CreateDonation(ctx, userID, req)
		if err != nil {
			s.log.Warn().Err(err).Int("line", line).Msg("import row not stored")
			resp.Skipped++
			continue
		}

		resp.Imported++
		s.audit(ctx, userID, "import", "donations", donation.ID, "Imported donation id="+donation.ID)
	}
	return resp, nil
}

func parseImportRow(record []string) (models.CreateDonationRequest, error) {
	field := func(i int) *string {
		if i >= len(record) {
			return nil
		}
		v := strings.TrimSpace(record[i])
		if v == "" {
			return nil
		}
		return &v
	}

	req := models.CreateDonationRequest{
		ID:         field(colID),
		CharityID:  field(colCharityID),
		CharityEIN: field(colCharityEIN),
		Notes:      field(colNotes),
		Category:   field(colCategory),
	}
	if date := field(colDate); date != nil {
		req.Date = *date
	} else {
		return req, fmt.Errorf("%w: missing date", models.ErrInvalidInput)
	}
	if name := field(colCharityName); name != nil {
		req.CharityName = *name
	}
	if amount := field(colAmount); amount != nil {
		v, err := strconv.ParseFloat(*amount, 64)
		if err != nil {
			return req, fmt.Errorf("%w: amount %q", models.ErrInvalidInput, *amount)
		}
		req.Amount = &v
	}
	return req, nil
}

func (s *DefaultService) resolveCharity(ctx context.Context, userID string, charityID *string, name string, ein *string) (string, error) {
	if charityID != nil && strings.TrimSpace(*charityID) != "" {
		return strings.TrimSpace(*charityID), nil
	}
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: charity id or name is required", models.ErrInvalidInput)
	}
	id, _, err := s.repo.FindOrCreateCharity(ctx, userID, name, ein)
	if err != nil {
		return "", fmt.Errorf("error resolving charity: %w", err)
	}
	return id, nil
}
