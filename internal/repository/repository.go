package repository

import (
	"context"

	"github.com/rongwang/deductible-server/internal/backend"
	"github.com/rongwang/deductible-server/internal/models"
)

// Repository interface defines the methods that both backend implementations
// must satisfy. Every mutating method writes exactly one revision on success.
type Repository interface {
	// Donation operations
	CreateDonation(ctx context.Context, donation *models.Donation) error
	GetDonation(ctx context.Context, userID, id string) (*models.Donation, error)
	ListDonations(ctx context.Context, userID string, filter models.DonationFilter) ([]models.Donation, error)
	UpdateDonation(ctx context.Context, userID, id string, patch models.DonationPatch) (bool, error)
	SoftDeleteDonation(ctx context.Context, userID, id string) (bool, error)
	ListDonationYears(ctx context.Context, userID string) ([]int, error)

	// Charity operations
	CreateCharity(ctx context.Context, charity *models.Charity) error
	GetCharity(ctx context.Context, userID, id string) (*models.Charity, error)
	ListCharities(ctx context.Context, userID string) ([]models.Charity, error)
	FindCharityByNameOrEIN(ctx context.Context, userID, name string, ein *string) (*models.Charity, error)
	FindOrCreateCharity(ctx context.Context, userID, name string, ein *string) (string, bool, error)
	UpdateCharity(ctx context.Context, userID, id string, patch models.CharityPatch) (bool, error)
	DeleteCharity(ctx context.Context, userID, id string) (bool, error)

	// Receipt operations
	AddReceipt(ctx context.Context, userID string, receipt *models.Receipt) error
	GetReceipt(ctx context.Context, userID, id string) (*models.Receipt, error)
	ListReceipts(ctx context.Context, userID string, donationID *string) ([]models.Receipt, error)
	SetReceiptOCR(ctx context.Context, id string, ocr models.ReceiptOCR) (bool, error)

	// User operations
	UpsertUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id string, patch models.UserPatch) (bool, error)

	// Audit operations
	LogAudit(ctx context.Context, entry *models.AuditLog) error
	ListAuditLogs(ctx context.Context, userID string, since *string) ([]models.AuditLog, error)
	ListRevisions(ctx context.Context, table, recordID string) ([]models.Revision, error)

	// Valuation operations
	SeedValuations(ctx context.Context) (int, error)
	SuggestValuations(ctx context.Context, query string) ([]models.Valuation, error)

	// Ownership checks
	AssertDonationOwner(ctx context.Context, userID, id string) error
	AssertDonationHistoryOwner(ctx context.Context, userID, id string) error
	AssertReceiptOwner(ctx context.Context, userID, id string) error
	AssertCharityOwner(ctx context.Context, userID, id string) error
}

// New returns the implementation matching the handle's backend.
func New(h *backend.Handle) Repository {
	if h.Kind() == backend.Postgres {
		return NewPostgresRepository(h)
	}
	return NewSQLiteRepository(h)
}
