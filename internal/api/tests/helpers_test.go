package api_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rongwang/deductible-server/internal/api/testutils"
	"github.com/rongwang/deductible-server/internal/models"
)

func createDonation(t *testing.T, tc *testutils.TestContext, token string, req models.CreateDonationRequest) *models.Donation {
	t.Helper()
	w := testutils.PerformRequest(tc.Router, http.MethodPost, "/api/donations", req, testutils.AuthHeaders(token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.DonationResponse
	testutils.Decode(t, w, &resp)
	require.NotNil(t, resp.Donation)
	return resp.Donation
}

func listDonations(t *testing.T, tc *testutils.TestContext, token, query string) []models.Donation {
	t.Helper()
	w := testutils.PerformRequest(tc.Router, http.MethodGet, "/api/donations"+query, nil, testutils.AuthHeaders(token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.DonationListResponse
	testutils.Decode(t, w, &resp)
	return resp.Donations
}

// clientStamp is the modification time an offline client attaches to an
// edit it made d from now.
func clientStamp(d time.Duration) *string {
	s := time.Now().Add(d).UTC().Format(time.RFC3339Nano)
	return &s
}

func amount(v float64) *float64 {
	return &v
}
