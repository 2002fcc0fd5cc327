package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rongwang/deductible-server/internal/api/testutils"
	"github.com/rongwang/deductible-server/internal/models"
)

func TestProfile(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	rate := 0.24
	itemize := true
	w := testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/me",
		models.UpdateProfileRequest{FilingStatus: models.StringPtr("single"), MarginalTaxRate: &rate, ItemizeDeductions: &itemize},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.UserResponse
	testutils.Decode(t, w, &resp)
	assert.Equal(t, "single", *resp.User.FilingStatus)
	assert.InDelta(t, 0.24, *resp.User.MarginalTaxRate, 1e-9)
	assert.True(t, *resp.User.ItemizeDeductions)
	assert.Equal(t, "Test User", resp.User.Name)

	// Out of range rate
	bad := 1.5
	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/me",
		models.UpdateProfileRequest{MarginalTaxRate: &bad}, testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Stale edit
	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/me",
		models.UpdateProfileRequest{Phone: models.StringPtr("555-0100"), UpdatedAt: &resp.User.UpdatedAt},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestValuations(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/valuations/seed", nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code)
	var seeded models.SeedResponse
	testutils.Decode(t, w, &seeded)
	assert.Greater(t, seeded.Inserted, 0)

	// Seeding twice inserts nothing new
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/valuations/seed", nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	testutils.Decode(t, w, &seeded)
	assert.Equal(t, 0, seeded.Inserted)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/valuations/suggest",
		models.SuggestValuationsRequest{Query: "book"}, testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code)
	var suggestions models.ValuationListResponse
	testutils.Decode(t, w, &suggestions)
	assert.NotEmpty(t, suggestions.Valuations)
	for _, v := range suggestions.Valuations {
		assert.Contains(t, v.Name, "Book")
		assert.LessOrEqual(t, v.MinValue, v.MaxValue)
	}
}
