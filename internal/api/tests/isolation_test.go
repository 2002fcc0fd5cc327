package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rongwang/deductible-server/internal/api/testutils"
	"github.com/rongwang/deductible-server/internal/models"
)

// Another user's records look exactly like records that do not exist.
func TestRecordsAreIsolatedPerUser(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	_, otherJWT := testutils.CreateTestUser(t, testCtx.Repository, string(testCtx.JWTSecret), "intruder@example.com")

	donation := createDonation(t, testCtx, testCtx.TestUserJWT, models.CreateDonationRequest{
		Date: "2024-03-15", CharityName: "Private Charity", Amount: amount(99),
	})

	assert.Empty(t, listDonations(t, testCtx, otherJWT, ""))

	w := testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/donations/"+donation.ID,
		models.UpdateDonationRequest{Amount: amount(0), UpdatedAt: clientStamp(0)},
		testutils.AuthHeaders(otherJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/donations/"+donation.ID, nil, testutils.AuthHeaders(otherJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/donations/"+donation.ID+"/revisions", nil, testutils.AuthHeaders(otherJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/charities/"+donation.CharityID,
		models.UpdateCharityRequest{Name: models.StringPtr("Mine now")},
		testutils.AuthHeaders(otherJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Using someone else's charity id is rejected
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/donations",
		models.CreateDonationRequest{Date: "2024-03-15", CharityID: &donation.CharityID},
		testutils.AuthHeaders(otherJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The owner still sees an untouched record
	mine := listDonations(t, testCtx, testCtx.TestUserJWT, "")
	if assert.Len(t, mine, 1) {
		assert.InDelta(t, 99, *mine[0].Amount, 1e-9)
		assert.Equal(t, "Private Charity", mine[0].CharityName)
	}
}
