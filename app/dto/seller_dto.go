package dto

// CreateSellerProfileRequest opens a seller profile and its payout account
type CreateSellerProfileRequest struct {
	CompanyName    string `json:"company_name" validate:"required,min=2,max=255" example:"Shazan Tech Ltd"`
	CompanyWebsite string `json:"company_website" validate:"omitempty,url,max=255" example:"https://shazantech.com"`
	Address        string `json:"address" validate:"required,max=255" example:"123 Business Avenue"`
	City           string `json:"city" validate:"required,max=100" example:"Dhaka"`
	State          string `json:"state" validate:"required,max=100" example:"Dhaka Division"`
	Zip            string `json:"zip" validate:"required,max=20" example:"1212"`
	Country        string `json:"country" validate:"required,len=2,alpha" example:"BD"`
}

// UpdateSellerProfileRequest patches company and address fields
type UpdateSellerProfileRequest struct {
	CompanyName    *string `json:"company_name,omitempty" validate:"omitempty,min=2,max=255"`
	CompanyWebsite *string `json:"company_website,omitempty" validate:"omitempty,url,max=255"`
	Address        *string `json:"address,omitempty" validate:"omitempty,max=255"`
	City           *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State          *string `json:"state,omitempty" validate:"omitempty,max=100"`
	Zip            *string `json:"zip,omitempty" validate:"omitempty,max=20"`
}

// SellerBankDTO is the payout bank record, without the full account number
type SellerBankDTO struct {
	BankName string `json:"bank_name" example:"STRIPE TEST BANK"`
	Last4    string `json:"last4" example:"6789"`
	Country  string `json:"country" example:"US"`
	Currency string `json:"currency" example:"usd"`
}

// SellerProfileDTO is the public view of a seller profile
type SellerProfileDTO struct {
	ID                 uint           `json:"id"`
	CompanyName        string         `json:"company_name"`
	CompanyWebsite     string         `json:"company_website,omitempty"`
	Address            string         `json:"address"`
	City               string         `json:"city"`
	State              string         `json:"state"`
	Zip                string         `json:"zip"`
	Country            string         `json:"country"`
	ProcessorAccountID *string        `json:"processor_account_id,omitempty"`
	PaymentReady       bool           `json:"payment_ready"`
	Bank               *SellerBankDTO `json:"bank,omitempty"`
}

// OnboardingLinkResponse is the hosted onboarding page
type OnboardingLinkResponse struct {
	URL       string `json:"url" example:"https://connect.stripe.com/setup/e/acct_1/abc"`
	ExpiresAt string `json:"expires_at,omitempty" example:"2024-01-15T10:35:00Z"`
}

// SyncOnboardingResponse reports the processor-side onboarding state
type SyncOnboardingResponse struct {
	PayoutsEnabled   bool             `json:"payouts_enabled"`
	DetailsSubmitted bool             `json:"details_submitted"`
	Profile          SellerProfileDTO `json:"profile"`
}
