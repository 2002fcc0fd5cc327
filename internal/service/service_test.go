package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rongwang/deductible-server/internal/backend"
	"github.com/rongwang/deductible-server/internal/models"
	"github.com/rongwang/deductible-server/internal/registry"
	"github.com/rongwang/deductible-server/internal/repository"
	"github.com/rongwang/deductible-server/internal/schema"
	"github.com/rongwang/deductible-server/internal/utils"
)

type stubRegistry struct {
	org *registry.Organization
	err error
}

func (s stubRegistry) Lookup(ctx context.Context, ein string) (*registry.Organization, error) {
	return s.org, s.err
}

func (s stubRegistry) Search(ctx context.Context, query string) ([]registry.SearchResult, error) {
	return nil, s.err
}

func newService(t *testing.T, reg CharityRegistry) (*DefaultService, repository.Repository) {
	t.Helper()
	ctx := context.Background()
	h, err := backend.Open(ctx, backend.Options{
		Kind:           backend.SQLite,
		DSN:            fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate", filepath.Join(t.TempDir(), "svc.db")),
		AcquireTimeout: 5 * time.Second,
		Logger:         utils.NopLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	require.NoError(t, schema.Ensure(ctx, h))

	repo := repository.New(h)
	require.NoError(t, repo.UpsertUser(ctx, &models.User{ID: "u1", Email: "u1@example.com", Name: "U1", Provider: "test"}))
	return NewDefaultService(repo, reg, "secret", utils.NopLogger()).(*DefaultService), repo
}

func TestNotApplied(t *testing.T) {
	assert.ErrorIs(t, notApplied(nil, "donation x"), models.ErrConflict)
	assert.ErrorIs(t, notApplied(fmt.Errorf("wrapped: %w", models.ErrNotFound), "donation x"), models.ErrNotFound)

	boom := errors.New("boom")
	assert.ErrorIs(t, notApplied(boom, "donation x"), boom)
}

func TestParseImportRow(t *testing.T) {
	req, err := parseImportRow([]string{"", "2024-01-02", "Zoo", "", "12-3456789", "note", " 12.5 "})
	require.NoError(t, err)
	assert.Nil(t, req.ID)
	assert.Equal(t, "Zoo", req.CharityName)
	assert.Equal(t, "12-3456789", *req.CharityEIN)
	assert.InDelta(t, 12.5, *req.Amount, 1e-9)
	assert.Nil(t, req.Category)

	_, err = parseImportRow([]string{"x", ""})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = parseImportRow([]string{"x", "2024-01-02", "Zoo", "", "", "", "twelve"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestCreateCharityToleratesRegistryFailure(t *testing.T) {
	svc, _ := newService(t, stubRegistry{err: fmt.Errorf("%w: slow", models.ErrUpstreamTimeout)})

	charity, err := svc.CreateCharity(context.Background(), "u1", models.CreateCharityRequest{
		Name: "Quiet Trust",
		EIN:  models.StringPtr("12-3456789"),
	})
	require.NoError(t, err)
	assert.Equal(t, "12-3456789", *charity.EIN)
	assert.Nil(t, charity.Deductibility)
}

func TestCreateCharityEnriches(t *testing.T) {
	city := "Springfield"
	deductible := "Contributions are deductible"
	svc, _ := newService(t, stubRegistry{org: &registry.Organization{
		EIN:           "12-3456789",
		Name:          "Springfield Trust Inc",
		City:          &city,
		Deductibility: &deductible,
	}})

	own := "Shelbyville"
	charity, err := svc.CreateCharity(context.Background(), "u1", models.CreateCharityRequest{
		Name: "Springfield Trust",
		EIN:  models.StringPtr("123456789"),
		City: &own,
	})
	require.NoError(t, err)
	assert.Equal(t, "Springfield Trust", charity.Name)
	assert.Equal(t, "12-3456789", *charity.EIN)
	assert.Equal(t, "Shelbyville", *charity.City)
	assert.Equal(t, deductible, *charity.Deductibility)
}

func TestUpdateDonationDistinguishesStaleFromMissing(t *testing.T) {
	svc, _ := newService(t, stubRegistry{})
	ctx := context.Background()

	donation, err := svc.CreateDonation(ctx, "u1", models.CreateDonationRequest{
		Date:        "2024-06-01",
		CharityName: "Harbor Fund",
		Amount:      func() *float64 { v := 10.0; return &v }(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Harbor Fund", donation.CharityName)

	_, err = svc.UpdateDonation(ctx, "u1", donation.ID, models.UpdateDonationRequest{
		Notes:     models.StringPtr("late"),
		UpdatedAt: &donation.UpdatedAt,
	})
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = svc.UpdateDonation(ctx, "someone-else", donation.ID, models.UpdateDonationRequest{Notes: models.StringPtr("x")})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDevLoginIsStable(t *testing.T) {
	svc, repo := newService(t, stubRegistry{})
	ctx := context.Background()

	first, err := svc.DevLogin(ctx, models.DevLoginRequest{Email: "Alex@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "alex", first.Name)

	second, err := svc.DevLogin(ctx, models.DevLoginRequest{Email: "alex@example.com", Name: "Alex"})
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID)

	user, err := repo.GetUser(ctx, first.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Alex", user.Name)
}
