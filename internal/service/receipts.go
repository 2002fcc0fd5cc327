package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rongwang/deductible-server/internal/models"
)

// ReceiptKeyPrefix is the object-storage prefix every key uploaded by
// userID lives under.
func ReceiptKeyPrefix(userID string) string {
	return "receipts/" + userID + "/"
}

func (s *DefaultService) ListReceipts(ctx context.Context, userID string, donationID *string) ([]models.Receipt, error) {
	receipts, err := s.repo.ListReceipts(ctx, userID, donationID)
	if err != nil {
		return nil, fmt.Errorf("error listing receipts: %w", err)
	}
	return receipts, nil
}

// ConfirmReceipt records an upload after the client finished writing the
// object. Keys outside the caller's prefix are treated as missing.
func (s *DefaultService) ConfirmReceipt(ctx context.Context, userID string, req models.ConfirmReceiptRequest) (*models.Receipt, error) {
	if !strings.HasPrefix(req.Key, ReceiptKeyPrefix(userID)) {
		return nil, fmt.Errorf("receipt key %q: %w", req.Key, models.ErrNotFound)
	}

	receipt := &models.Receipt{
		DonationID:  req.DonationID,
		Key:         req.Key,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Size:        req.Size,
	}
	if err := s.repo.AddReceipt(ctx, userID, receipt); err != nil {
		return nil, fmt.Errorf("error adding receipt: %w", err)
	}
	return receipt, nil
}

// AttachOCR stores text extraction results on one of userID's receipts.
func (s *DefaultService) AttachOCR(ctx context.Context, userID, id string, req models.ReceiptOCRRequest) (*models.Receipt, error) {
	if err := s.repo.AssertReceiptOwner(ctx, userID, id); err != nil {
		return nil, err
	}

	ocr := models.ReceiptOCR{
		Text:   req.Text,
		Date:   req.Date,
		Amount: req.Amount,
		Status: req.Status,
	}
	if ocr.Status == nil {
		ocr.Status = models.StringPtr("done")
	}
	ok, err := s.repo.SetReceiptOCR(ctx, id, ocr)
	if err != nil {
		return nil, fmt.Errorf("error saving ocr result: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("receipt %s: %w", id, models.ErrNotFound)
	}

	s.audit(ctx, userID, "ocr", "receipts", id, "OCR stored for receipt id="+id)

	receipt, err := s.repo.GetReceipt(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("error reading receipt: %w", err)
	}
	if receipt == nil {
		return nil, fmt.Errorf("receipt %s: %w", id, models.ErrNotFound)
	}
	return receipt, nil
}
