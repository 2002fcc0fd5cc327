package models

import "strings"

// Donation categories.
const (
	CategoryItems   = "items"
	CategoryMoney   = "money"
	CategoryMileage = "mileage"
)

// NormalizeCategory lower-cases a category. Empty input means unset, and any
// unrecognized value is treated as a money donation.
func NormalizeCategory(input *string) *string {
	if input == nil {
		return nil
	}
	normalized := strings.ToLower(strings.TrimSpace(*input))
	switch normalized {
	case CategoryItems, CategoryMoney, CategoryMileage:
		return &normalized
	case "":
		return nil
	default:
		money := CategoryMoney
		return &money
	}
}

// DonationFilter narrows ListDonations. IncludeDeleted is only honored
// together with Since, for incremental pulls that must observe deletions.
type DonationFilter struct {
	Year           *int
	Since          *string
	IncludeDeleted bool
}

// DonationPatch is a partial donation update. Nil fields keep their stored
// value. LastKnownUpdatedAt, when set, is the optimistic concurrency
// precondition.
type DonationPatch struct {
	Date               *string
	Category           *string
	CharityID          *string
	Amount             *float64
	Notes              *string
	LastKnownUpdatedAt *string
}

// CharityPatch is a partial charity update.
type CharityPatch struct {
	Name               *string
	EIN                *string
	Category           *string
	Status             *string
	Classification     *string
	NonprofitType      *string
	Deductibility      *string
	Street             *string
	City               *string
	State              *string
	Zip                *string
	LastKnownUpdatedAt *string
}

// UserPatch is a partial profile edit.
type UserPatch struct {
	Name               *string
	Phone              *string
	TaxID              *string
	FilingStatus       *string
	AGI                *float64
	MarginalTaxRate    *float64
	ItemizeDeductions  *bool
	LastKnownUpdatedAt *string
}

// ReceiptOCR carries the result of text extraction for one receipt.
type ReceiptOCR struct {
	Text   *string
	Date   *string
	Amount *int64
	Status *string
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
