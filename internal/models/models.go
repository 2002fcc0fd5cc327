package models

import (
	"encoding/json"

	"github.com/jmoiron/sqlx/types"
)

// Donation is a single charitable contribution. CharityName and CharityEIN
// are read through a join and are not columns of the donations table.
type Donation struct {
	ID          string   `db:"id" json:"id"`
	UserID      string   `db:"user_id" json:"userId"`
	Year        int      `db:"year" json:"year"`
	Date        string   `db:"date" json:"date"`
	Category    *string  `db:"category" json:"category,omitempty"`
	Amount      *float64 `db:"amount" json:"amount,omitempty"`
	CharityID   string   `db:"charity_id" json:"charityId"`
	CharityName string   `db:"charity_name" json:"charityName"`
	CharityEIN  *string  `db:"charity_ein" json:"charityEin,omitempty"`
	Notes       *string  `db:"notes" json:"notes,omitempty"`
	CreatedAt   string   `db:"created_at" json:"createdAt"`
	UpdatedAt   string   `db:"updated_at" json:"updatedAt"`
	Deleted     bool     `db:"deleted" json:"deleted"`
}

// Charity is a recipient organization, scoped to one user.
type Charity struct {
	ID             string  `db:"id" json:"id"`
	UserID         string  `db:"user_id" json:"userId"`
	Name           string  `db:"name" json:"name"`
	EIN            *string `db:"ein" json:"ein,omitempty"`
	Category       *string `db:"category" json:"category,omitempty"`
	Status         *string `db:"status" json:"status,omitempty"`
	Classification *string `db:"classification" json:"classification,omitempty"`
	NonprofitType  *string `db:"nonprofit_type" json:"nonprofitType,omitempty"`
	Deductibility  *string `db:"deductibility" json:"deductibility,omitempty"`
	Street         *string `db:"street" json:"street,omitempty"`
	City           *string `db:"city" json:"city,omitempty"`
	State          *string `db:"state" json:"state,omitempty"`
	Zip            *string `db:"zip" json:"zip,omitempty"`
	CreatedAt      string  `db:"created_at" json:"createdAt"`
	UpdatedAt      string  `db:"updated_at" json:"updatedAt"`
}

// Receipt is an uploaded document attached to a donation. Its owner is the
// owner of the donation.
type Receipt struct {
	ID          string  `db:"id" json:"id"`
	DonationID  string  `db:"donation_id" json:"donationId"`
	Key         string  `db:"key" json:"key"`
	FileName    *string `db:"file_name" json:"fileName,omitempty"`
	ContentType *string `db:"content_type" json:"contentType,omitempty"`
	Size        *int64  `db:"size" json:"size,omitempty"`
	OCRText     *string `db:"ocr_text" json:"ocrText,omitempty"`
	OCRDate     *string `db:"ocr_date" json:"ocrDate,omitempty"`
	OCRAmount   *int64  `db:"ocr_amount" json:"ocrAmount,omitempty"` // minor units
	OCRStatus   *string `db:"ocr_status" json:"ocrStatus,omitempty"`
	CreatedAt   string  `db:"created_at" json:"createdAt"`
}

// User is the profile of an authenticated subject.
type User struct {
	ID                string   `db:"id" json:"id"`
	Email             string   `db:"email" json:"email"`
	Name              string   `db:"name" json:"name"`
	Provider          string   `db:"provider" json:"provider"`
	Phone             *string  `db:"phone" json:"phone,omitempty"`
	TaxID             *string  `db:"tax_id" json:"taxId,omitempty"`
	FilingStatus      *string  `db:"filing_status" json:"filingStatus,omitempty"`
	AGI               *float64 `db:"agi" json:"agi,omitempty"`
	MarginalTaxRate   *float64 `db:"marginal_tax_rate" json:"marginalTaxRate,omitempty"`
	ItemizeDeductions *bool    `db:"itemize_deductions" json:"itemizeDeductions,omitempty"`
	UpdatedAt         string   `db:"updated_at" json:"updatedAt"`
}

// Revision operations.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Revision is an immutable before/after snapshot of one mutation.
type Revision struct {
	ID        string             `db:"id" json:"id"`
	UserID    *string            `db:"user_id" json:"userId,omitempty"`
	TableName string             `db:"table_name" json:"tableName"`
	RecordID  string             `db:"record_id" json:"recordId"`
	Operation string             `db:"operation" json:"operation"`
	OldValues types.NullJSONText `db:"old_values" json:"oldValues"`
	NewValues types.NullJSONText `db:"new_values" json:"newValues"`
	CreatedAt string             `db:"created_at" json:"createdAt"`
}

// Old decodes the before snapshot. It returns nil for create revisions.
func (r Revision) Old() (map[string]any, error) {
	return decodeSnapshot(r.OldValues)
}

// New decodes the after snapshot. It returns nil for delete revisions.
func (r Revision) New() (map[string]any, error) {
	return decodeSnapshot(r.NewValues)
}

// UnmarshalJSON restores Valid on both snapshots. NullJSONText only
// inherits JSONText's decoder, which fills the text and leaves Valid unset.
func (r *Revision) UnmarshalJSON(data []byte) error {
	type plain Revision
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	p.OldValues.Valid = hasSnapshot(p.OldValues.JSONText)
	p.NewValues.Valid = hasSnapshot(p.NewValues.JSONText)
	*r = Revision(p)
	return nil
}

func hasSnapshot(text types.JSONText) bool {
	return len(text) > 0 && string(text) != "null"
}

func decodeSnapshot(v types.NullJSONText) (map[string]any, error) {
	if !v.Valid || !hasSnapshot(v.JSONText) {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(v.JSONText, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AuditLog is a coarse activity feed entry.
type AuditLog struct {
	ID        string  `db:"id" json:"id"`
	UserID    string  `db:"user_id" json:"userId"`
	Action    string  `db:"action" json:"action"`
	TableName string  `db:"table_name" json:"tableName"`
	RecordID  *string `db:"record_id" json:"recordId,omitempty"`
	Details   *string `db:"details" json:"details,omitempty"`
	CreatedAt string  `db:"created_at" json:"createdAt"`
}

// Valuation is a reference price range for a kind of donated item.
type Valuation struct {
	Name     string  `db:"name" json:"name"`
	MinValue float64 `db:"min_value" json:"min"`
	MaxValue float64 `db:"max_value" json:"max"`
}
