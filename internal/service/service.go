package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rongwang/deductible-server/internal/models"
	"github.com/rongwang/deductible-server/internal/registry"
	"github.com/rongwang/deductible-server/internal/repository"
)

// Service defines all the business logic operations
type Service interface {
	// Authentication
	DevLogin(ctx context.Context, req models.DevLoginRequest) (*models.AuthResponse, error)

	// Donation operations
	ListDonations(ctx context.Context, userID string, filter models.DonationFilter) ([]models.Donation, error)
	CreateDonation(ctx context.Context, userID string, req models.CreateDonationRequest) (*models.Donation, error)
	UpdateDonation(ctx context.Context, userID, id string, req models.UpdateDonationRequest) (*models.Donation, error)
	DeleteDonation(ctx context.Context, userID, id string) error
	ImportDonations(ctx context.Context, userID, csv string) (*models.ImportResponse, error)
	DonationRevisions(ctx context.Context, userID, id string) ([]models.Revision, error)

	// Charity operations
	ListCharities(ctx context.Context, userID string) ([]models.Charity, error)
	CreateCharity(ctx context.Context, userID string, req models.CreateCharityRequest) (*models.Charity, error)
	UpdateCharity(ctx context.Context, userID, id string, req models.UpdateCharityRequest) (*models.Charity, error)
	DeleteCharity(ctx context.Context, userID, id string) error
	LookupCharity(ctx context.Context, ein string) (*registry.Organization, error)
	SearchCharities(ctx context.Context, query string) ([]registry.SearchResult, error)

	// Receipt operations
	ListReceipts(ctx context.Context, userID string, donationID *string) ([]models.Receipt, error)
	ConfirmReceipt(ctx context.Context, userID string, req models.ConfirmReceiptRequest) (*models.Receipt, error)
	AttachOCR(ctx context.Context, userID, id string, req models.ReceiptOCRRequest) (*models.Receipt, error)

	// Profile
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error)

	// Reports
	ListAuditLogs(ctx context.Context, userID string, since *string) ([]models.AuditLog, error)
	ReportYears(ctx context.Context, userID string) ([]int, error)

	// Valuations
	SuggestValuations(ctx context.Context, query string) ([]models.Valuation, error)
	SeedValuations(ctx context.Context) (int, error)
}

// CharityRegistry resolves EINs against an external nonprofit registry.
type CharityRegistry interface {
	Lookup(ctx context.Context, ein string) (*registry.Organization, error)
	Search(ctx context.Context, query string) ([]registry.SearchResult, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	registry      CharityRegistry
	log           zerolog.Logger
	jwtSecret     []byte
	tokenDuration time.Duration
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, reg CharityRegistry, jwtSecret string, log zerolog.Logger) Service {
	return &DefaultService{
		repo:          repo,
		registry:      reg,
		log:           log.With().Str("component", "service").Logger(),
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: 24 * time.Hour,
	}
}

// DevLogin signs in a local development user without an identity provider.
// The user id is derived from the email so repeated logins map to one
// profile.
func (s *DefaultService) DevLogin(ctx context.Context, req models.DevLoginRequest) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	user := &models.User{
		ID:       uuid.NewSHA1(uuid.NameSpaceURL, []byte("dev:"+email)).String(),
		Email:    email,
		Name:     name,
		Provider: "dev",
	}
	if err := s.repo.UpsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("error upserting user: %w", err)
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.AuthResponse{
		Status:    "success",
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
	}, nil
}

// Reports
func (s *DefaultService) ListAuditLogs(ctx context.Context, userID string, since *string) ([]models.AuditLog, error) {
	logs, err := s.repo.ListAuditLogs(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("error listing audit logs: %w", err)
	}
	return logs, nil
}

func (s *DefaultService) ReportYears(ctx context.Context, userID string) ([]int, error) {
	years, err := s.repo.ListDonationYears(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing years: %w", err)
	}
	return years, nil
}

// Valuations
func (s *DefaultService) SuggestValuations(ctx context.Context, query string) ([]models.Valuation, error) {
	return s.repo.SuggestValuations(ctx, query)
}

func (s *DefaultService) SeedValuations(ctx context.Context) (int, error) {
	return s.repo.SeedValuations(ctx)
}

// Helper methods
func (s *DefaultService) generateJWT(user *models.User) (string, error) {
	expirationTime := time.Now().Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"exp":   expirationTime.Unix(),
		"iat":   time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// notApplied explains a false result from a conditional write. An owned
// record that was not written lost to a newer version.
func notApplied(ownerErr error, what string) error {
	if ownerErr == nil {
		return fmt.Errorf("%s not updated (stale): %w", what, models.ErrConflict)
	}
	if errors.Is(ownerErr, models.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return ownerErr
}

// audit records an activity feed entry. Failures are logged and do not
// undo the action they describe.
func (s *DefaultService) audit(ctx context.Context, userID, action, table, recordID, details string) {
	entry := &models.AuditLog{
		UserID:    userID,
		Action:    action,
		TableName: table,
		RecordID:  &recordID,
		Details:   &details,
	}
	if err := s.repo.LogAudit(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("action", action).Str("record_id", recordID).Msg("audit log write failed")
	}
}
