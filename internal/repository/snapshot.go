package repository

import "github.com/rongwang/deductible-server/internal/models"

// Snapshots carry every stored column of the entity, never joined fields.

func donationSnapshot(d *models.Donation) snapshot {
	return snapshot{
		"id":         d.ID,
		"user_id":    d.UserID,
		"year":       d.Year,
		"date":       d.Date,
		"category":   d.Category,
		"amount":     d.Amount,
		"charity_id": d.CharityID,
		"notes":      d.Notes,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
		"deleted":    d.Deleted,
	}
}

func charitySnapshot(c *models.Charity) snapshot {
	return snapshot{
		"id":             c.ID,
		"user_id":        c.UserID,
		"name":           c.Name,
		"ein":            c.EIN,
		"category":       c.Category,
		"status":         c.Status,
		"classification": c.Classification,
		"nonprofit_type": c.NonprofitType,
		"deductibility":  c.Deductibility,
		"street":         c.Street,
		"city":           c.City,
		"state":          c.State,
		"zip":            c.Zip,
		"created_at":     c.CreatedAt,
		"updated_at":     c.UpdatedAt,
	}
}

func receiptSnapshot(r *models.Receipt) snapshot {
	return snapshot{
		"id":           r.ID,
		"donation_id":  r.DonationID,
		"key":          r.Key,
		"file_name":    r.FileName,
		"content_type": r.ContentType,
		"size":         r.Size,
		"ocr_text":     r.OCRText,
		"ocr_date":     r.OCRDate,
		"ocr_amount":   r.OCRAmount,
		"ocr_status":   r.OCRStatus,
		"created_at":   r.CreatedAt,
	}
}

func userSnapshot(u *models.User) snapshot {
	return snapshot{
		"id":                 u.ID,
		"email":              u.Email,
		"name":               u.Name,
		"provider":           u.Provider,
		"phone":              u.Phone,
		"tax_id":             u.TaxID,
		"filing_status":      u.FilingStatus,
		"agi":                u.AGI,
		"marginal_tax_rate":  u.MarginalTaxRate,
		"itemize_deductions": u.ItemizeDeductions,
		"updated_at":         u.UpdatedAt,
	}
}
