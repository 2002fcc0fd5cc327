package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rongwang/deductible-server/internal/api/testutils"
	"github.com/rongwang/deductible-server/internal/models"
	"github.com/rongwang/deductible-server/internal/service"
)

func TestReceiptLifecycle(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	donation := createDonation(t, testCtx, testCtx.TestUserJWT, models.CreateDonationRequest{
		Date: "2024-03-15", CharityName: "Museum", Amount: amount(120),
	})
	key := service.ReceiptKeyPrefix(testCtx.TestUserID) + "scan.jpg"

	// Test case 1: Confirm an upload under the caller's prefix
	size := int64(2048)
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/receipts/confirm",
		models.ConfirmReceiptRequest{DonationID: donation.ID, Key: key, FileName: models.StringPtr("scan.jpg"), Size: &size},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.ReceiptResponse
	testutils.Decode(t, w, &created)
	receiptID := created.Receipt.ID

	// Test case 2: Keys outside the prefix are refused
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/receipts/confirm",
		models.ConfirmReceiptRequest{DonationID: donation.ID, Key: "receipts/someone-else/scan.jpg"},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Test case 3: Unknown donation
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/receipts/confirm",
		models.ConfirmReceiptRequest{DonationID: "missing", Key: key},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Test case 4: Store OCR results
	ocrAmount := int64(12345)
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/receipts/"+receiptID+"/ocr",
		models.ReceiptOCRRequest{Text: models.StringPtr("Sample OCR text"), Date: models.StringPtr("2024-03-15"), Amount: &ocrAmount},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ocr models.ReceiptResponse
	testutils.Decode(t, w, &ocr)
	assert.Equal(t, "Sample OCR text", *ocr.Receipt.OCRText)
	assert.Equal(t, int64(12345), *ocr.Receipt.OCRAmount)
	assert.Equal(t, "done", *ocr.Receipt.OCRStatus)

	// Test case 5: Bad OCR date
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/receipts/"+receiptID+"/ocr",
		models.ReceiptOCRRequest{Date: models.StringPtr("March 15")},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Listing, filtered by donation
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/receipts?donation_id="+donation.ID, nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code)
	var list models.ReceiptListResponse
	testutils.Decode(t, w, &list)
	require.Len(t, list.Receipts, 1)
	assert.Equal(t, receiptID, list.Receipts[0].ID)

	// Another user cannot see or annotate it
	_, otherJWT := testutils.CreateTestUser(t, testCtx.Repository, string(testCtx.JWTSecret), "other@example.com")
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/receipts/"+receiptID+"/ocr",
		models.ReceiptOCRRequest{Text: models.StringPtr("hijack")},
		testutils.AuthHeaders(otherJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/receipts", nil, testutils.AuthHeaders(otherJWT))
	testutils.Decode(t, w, &list)
	assert.Empty(t, list.Receipts)

	// The OCR write is in the audit feed
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/audit", nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	var audit models.AuditLogResponse
	testutils.Decode(t, w, &audit)
	require.Len(t, audit.Logs, 1)
	assert.Equal(t, "ocr", audit.Logs[0].Action)
}
