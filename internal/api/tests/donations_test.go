package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rongwang/deductible-server/internal/api/testutils"
	"github.com/rongwang/deductible-server/internal/models"
)

func TestCreateDonation(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	// Test case 1: Charity resolved by name
	donation := createDonation(t, testCtx, testCtx.TestUserJWT, models.CreateDonationRequest{
		Date:        "2024-03-15",
		CharityName: "Red Cross",
		Category:    models.StringPtr("Money"),
		Amount:      amount(123.45),
	})
	assert.Equal(t, 2024, donation.Year)
	assert.Equal(t, "Red Cross", donation.CharityName)
	assert.Equal(t, "money", *donation.Category)
	assert.InDelta(t, 123.45, *donation.Amount, 1e-9)

	// Test case 2: Same charity under different case is reused
	again := createDonation(t, testCtx, testCtx.TestUserJWT, models.CreateDonationRequest{
		Date:        "2024-04-01",
		CharityName: "red cross",
		Amount:      amount(10),
	})
	assert.Equal(t, donation.CharityID, again.CharityID)

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/charities", nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code)
	var charities models.CharityListResponse
	testutils.Decode(t, w, &charities)
	assert.Len(t, charities.Charities, 1)

	// Test case 3: Client supplied id is kept, and a replay conflicts
	clientID := "offline-donation-1"
	req := models.CreateDonationRequest{ID: &clientID, Date: "2023-12-31", CharityID: &donation.CharityID}
	created := createDonation(t, testCtx, testCtx.TestUserJWT, req)
	assert.Equal(t, clientID, created.ID)
	assert.Equal(t, 2023, created.Year)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/donations", req, testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusConflict, w.Code)

	// Test case 4: Invalid date and missing charity
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/donations",
		models.CreateDonationRequest{Date: "15/03/2024", CharityName: "Red Cross"},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/donations",
		models.CreateDonationRequest{Date: "2024-03-15"},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Test case 5: Unknown charity id
	missing := "no-such-charity"
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/donations",
		models.CreateDonationRequest{Date: "2024-03-15", CharityID: &missing},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Years report
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/reports/years", nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code)
	var years models.YearsResponse
	testutils.Decode(t, w, &years)
	assert.Equal(t, []int{2024, 2023}, years.Years)

	assert.Len(t, listDonations(t, testCtx, testCtx.TestUserJWT, "?year=2024"), 2)
}

func TestUpdateDonation(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	donation := createDonation(t, testCtx, testCtx.TestUserJWT, models.CreateDonationRequest{
		Date:        "2024-03-15",
		CharityName: "Food Bank",
		Amount:      amount(50),
	})
	path := "/api/donations/" + donation.ID

	// Test case 1: Newer client edit is applied
	w := testutils.PerformRequest(testCtx.Router, http.MethodPut, path,
		models.UpdateDonationRequest{Amount: amount(75), Notes: models.StringPtr("matched"), UpdatedAt: clientStamp(0)},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.DonationResponse
	testutils.Decode(t, w, &resp)
	assert.InDelta(t, 75, *resp.Donation.Amount, 1e-9)
	assert.Equal(t, "matched", *resp.Donation.Notes)

	// Test case 2: Replaying the same edit is stale
	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, path,
		models.UpdateDonationRequest{Amount: amount(1), UpdatedAt: &resp.Donation.UpdatedAt},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusConflict, w.Code)

	// Test case 3: Unknown donation
	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/donations/missing",
		models.UpdateDonationRequest{Amount: amount(1)},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Test case 4: Malformed precondition
	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, path,
		models.UpdateDonationRequest{Amount: amount(1), UpdatedAt: models.StringPtr("yesterday")},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Revision history: create then update
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, path+"/revisions", nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code)
	var revisions models.RevisionListResponse
	testutils.Decode(t, w, &revisions)
	require.Len(t, revisions.Revisions, 2)
	assert.Equal(t, models.OpCreate, revisions.Revisions[0].Operation)
	assert.Equal(t, models.OpUpdate, revisions.Revisions[1].Operation)
}

func TestDeleteDonation(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	donation := createDonation(t, testCtx, testCtx.TestUserJWT, models.CreateDonationRequest{
		Date:        "2024-03-15",
		CharityName: "Library Friends",
		Amount:      amount(20),
	})

	// Test case 1: Successfully delete the donation
	w := testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/donations/"+donation.ID, nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, listDonations(t, testCtx, testCtx.TestUserJWT, ""))

	// Test case 2: Deleting twice is not found
	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/donations/"+donation.ID, nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Test case 3: Unauthorized request (no token)
	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/donations/"+donation.ID, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The delete shows up in the audit feed
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/audit", nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code)
	var audit models.AuditLogResponse
	testutils.Decode(t, w, &audit)
	require.Len(t, audit.Logs, 1)
	assert.Equal(t, "delete", audit.Logs[0].Action)
	assert.Equal(t, donation.ID, *audit.Logs[0].RecordID)

	// The owner can still read the history of the deleted donation
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/donations/"+donation.ID+"/revisions", nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var revisions models.RevisionListResponse
	testutils.Decode(t, w, &revisions)
	require.Len(t, revisions.Revisions, 2)
	deletion := revisions.Revisions[1]
	assert.Equal(t, models.OpDelete, deletion.Operation)
	old, err := deletion.Old()
	require.NoError(t, err)
	next, err := deletion.New()
	require.NoError(t, err)
	assert.Equal(t, false, old["deleted"])
	assert.Equal(t, true, next["deleted"])

	// Nobody else can
	_, otherJWT := testutils.CreateTestUser(t, testCtx.Repository, string(testCtx.JWTSecret), "other@example.com")
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/donations/"+donation.ID+"/revisions", nil, testutils.AuthHeaders(otherJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImportDonations(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	csv := "id,date,charity_name,charity_id,charity_ein,notes,amount,category\n" +
		"imp-1,2022-05-01,Animal Shelter,,,blankets,40,items\n" +
		",2022-06-01,animal shelter,,,,25.50,\n" +
		"imp-3,not-a-date,Animal Shelter,,,,10,money\n" +
		"imp-4,2022-07-01,,,,,10,money\n"

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/donations/import",
		models.ImportDonationsRequest{CSV: csv}, testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.ImportResponse
	testutils.Decode(t, w, &resp)
	assert.Equal(t, 2, resp.Imported)
	assert.Equal(t, 2, resp.Skipped)

	donations := listDonations(t, testCtx, testCtx.TestUserJWT, "?year=2022")
	require.Len(t, donations, 2)
	assert.Equal(t, donations[0].CharityID, donations[1].CharityID)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/audit", nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	var audit models.AuditLogResponse
	testutils.Decode(t, w, &audit)
	assert.Len(t, audit.Logs, 2)
	for _, entry := range audit.Logs {
		assert.Equal(t, "import", entry.Action)
	}
}
