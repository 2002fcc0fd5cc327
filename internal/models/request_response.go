package models

// Request models
type DevLoginRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"`
}

type CreateDonationRequest struct {
	ID          *string  `json:"id"`
	Date        string   `json:"date" binding:"required"`
	CharityID   *string  `json:"charityId"`
	CharityName string   `json:"charityName"`
	CharityEIN  *string  `json:"charityEin"`
	Category    *string  `json:"category"`
	Amount      *float64 `json:"amount"`
	Notes       *string  `json:"notes"`
}

type UpdateDonationRequest struct {
	Date      *string  `json:"date"`
	CharityID *string  `json:"charityId"`
	Category  *string  `json:"category"`
	Amount    *float64 `json:"amount"`
	Notes     *string  `json:"notes"`
	UpdatedAt *string  `json:"updatedAt"` // last value the client saw
}

type ImportDonationsRequest struct {
	CSV string `json:"csv" binding:"required"`
}

type CreateCharityRequest struct {
	Name   string  `json:"name" binding:"required"`
	EIN    *string `json:"ein"`
	Street *string `json:"street"`
	City   *string `json:"city"`
	State  *string `json:"state"`
	Zip    *string `json:"zip"`
}

type UpdateCharityRequest struct {
	Name           *string `json:"name"`
	EIN            *string `json:"ein"`
	Category       *string `json:"category"`
	Status         *string `json:"status"`
	Classification *string `json:"classification"`
	NonprofitType  *string `json:"nonprofitType"`
	Deductibility  *string `json:"deductibility"`
	Street         *string `json:"street"`
	City           *string `json:"city"`
	State          *string `json:"state"`
	Zip            *string `json:"zip"`
	UpdatedAt      *string `json:"updatedAt"`
}

type ConfirmReceiptRequest struct {
	DonationID  string  `json:"donationId" binding:"required"`
	Key         string  `json:"key" binding:"required"`
	FileName    *string `json:"fileName"`
	ContentType *string `json:"contentType"`
	Size        *int64  `json:"size"`
}

type ReceiptOCRRequest struct {
	Text   *string `json:"text"`
	Date   *string `json:"date"`
	Amount *int64  `json:"amount"`
	Status *string `json:"status"`
}

type UpdateProfileRequest struct {
	Name              *string  `json:"name"`
	Phone             *string  `json:"phone"`
	TaxID             *string  `json:"taxId"`
	FilingStatus      *string  `json:"filingStatus"`
	AGI               *float64 `json:"agi"`
	MarginalTaxRate   *float64 `json:"marginalTaxRate"`
	ItemizeDeductions *bool    `json:"itemizeDeductions"`
	UpdatedAt         *string  `json:"updatedAt"`
}

type SuggestValuationsRequest struct {
	Query string `json:"query" binding:"required"`
}

// Response models
type AuthResponse struct {
	Status    string `json:"status"`
	UserID    string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

type DonationResponse struct {
	Status   string    `json:"status"`
	Donation *Donation `json:"donation,omitempty"`
}

type DonationListResponse struct {
	Status    string     `json:"status"`
	Donations []Donation `json:"donations"`
}

type ImportResponse struct {
	Status   string `json:"status"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
}

type CharityResponse struct {
	Status  string   `json:"status"`
	Charity *Charity `json:"charity,omitempty"`
}

type CharityListResponse struct {
	Status    string    `json:"status"`
	Charities []Charity `json:"charities"`
}

type ReceiptResponse struct {
	Status  string   `json:"status"`
	Receipt *Receipt `json:"receipt,omitempty"`
}

type ReceiptListResponse struct {
	Status   string    `json:"status"`
	Receipts []Receipt `json:"receipts"`
}

type UserResponse struct {
	Status string `json:"status"`
	User   *User  `json:"user,omitempty"`
}

type AuditLogResponse struct {
	Status string     `json:"status"`
	Logs   []AuditLog `json:"logs"`
}

type RevisionListResponse struct {
	Status    string     `json:"status"`
	Revisions []Revision `json:"revisions"`
}

type YearsResponse struct {
	Status string `json:"status"`
	Years  []int  `json:"years"`
}

type ValuationListResponse struct {
	Status     string      `json:"status"`
	Valuations []Valuation `json:"valuations"`
}

type SeedResponse struct {
	Status   string `json:"status"`
	Inserted int    `json:"inserted"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
