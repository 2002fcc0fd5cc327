package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rongwang/deductible-server/internal/models"
	"github.com/rongwang/deductible-server/internal/utils"
)

const receiptRow = `
	SELECT r.id, r.donation_id, r.key, r.file_name, r.content_type, r.size,
		r.ocr_text, r.ocr_date, r.ocr_amount, r.ocr_status, r.created_at
	FROM receipts r
`

// Receipt repository methods

// AddReceipt attaches an uploaded document to one of userID's live donations.
func (s *store) AddReceipt(ctx context.Context, userID string, receipt *models.Receipt) error {
	if strings.TrimSpace(receipt.Key) == "" || receipt.DonationID == "" {
		return fmt.Errorf("%w: receipt needs a key and a donation", models.ErrInvalidInput)
	}
	if receipt.ID == "" {
		receipt.ID = uuid.New().String()
	}
	receipt.CreatedAt = utils.Now()

	_, err := s.mutate(ctx, func(ctx context.Context, tx *sqlx.Tx) (*change, error) {
		donation, err := s.lockDonationTx(ctx, tx, userID, receipt.DonationID)
		if err != nil {
			return nil, err
		}
		if donation == nil {
			return nil, fmt.Errorf("donation %s: %w", receipt.DonationID, models.ErrNotFound)
		}

		query := `
			INSERT INTO receipts (id, donation_id, key, file_name, content_type, size,
				ocr_text, ocr_date, ocr_amount, ocr_status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err = s.execTx(ctx, tx, query,
			receipt.ID, receipt.DonationID, receipt.Key, receipt.FileName, receipt.ContentType, receipt.Size,
			receipt.OCRText, receipt.OCRDate, receipt.OCRAmount, receipt.OCRStatus, receipt.CreatedAt)
		if err != nil {
			return nil, err
		}

		return &change{
			actor:     &userID,
			table:     tableReceipts,
			recordID:  receipt.ID,
			operation: models.OpCreate,
			new:       receiptSnapshot(receipt),
		}, nil
	})
	return err
}

func (s *store) GetReceipt(ctx context.Context, userID, id string) (*models.Receipt, error) {
	query := receiptRow + `
		JOIN donations d ON d.id = r.donation_id
		WHERE r.id = ? AND d.user_id = ?
	`

	var receipt models.Receipt
	found, err := s.get(ctx, &receipt, query, id, userID)
	if err != nil || !found {
		return nil, err
	}
	return &receipt, nil
}

func (s *store) ListReceipts(ctx context.Context, userID string, donationID *string) ([]models.Receipt, error) {
	query := receiptRow + `
		JOIN donations d ON d.id = r.donation_id
		WHERE d.user_id = ?
	`
	args := []any{userID}

	if donationID != nil {
		query += ` AND r.donation_id = ?`
		args = append(args, *donationID)
	}
	query += ` ORDER BY r.created_at DESC`

	receipts := []models.Receipt{}
	if err := s.selectAll(ctx, &receipts, query, args...); err != nil {
		return nil, err
	}
	return receipts, nil
}

// SetReceiptOCR stores extraction results. It is called by the OCR pipeline
// after ownership was checked, so the revision has no acting user.
func (s *store) SetReceiptOCR(ctx context.Context, id string, ocr models.ReceiptOCR) (bool, error) {
	if ocr.Date != nil {
		if _, err := utils.ParseDate(*ocr.Date); err != nil {
			return false, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
		}
	}

	return s.mutate(ctx, func(ctx context.Context, tx *sqlx.Tx) (*change, error) {
		var old models.Receipt
		found, err := s.getRow(ctx, tx, &old, receiptRow+` WHERE r.id = ?`+s.d.lockClause(), id)
		if err != nil || !found {
			return nil, err
		}

		next := old
		setIfPresent(&next.OCRText, ocr.Text)
		setIfPresent(&next.OCRDate, ocr.Date)
		setIfPresent(&next.OCRStatus, ocr.Status)
		if ocr.Amount != nil {
			next.OCRAmount = ocr.Amount
		}

		query := `UPDATE receipts SET ocr_text = ?, ocr_date = ?, ocr_amount = ?, ocr_status = ? WHERE id = ?`
		n, err := s.execTx(ctx, tx, query, next.OCRText, next.OCRDate, next.OCRAmount, next.OCRStatus, id)
		if err != nil || n == 0 {
			return nil, err
		}

		return &change{
			table:     tableReceipts,
			recordID:  id,
			operation: models.OpUpdate,
			old:       receiptSnapshot(&old),
			new:       receiptSnapshot(&next),
		}, nil
	})
}
