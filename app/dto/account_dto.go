package dto

// AccountDTO is the public view of an account
type AccountDTO struct {
	ID               uint              `json:"id" example:"12"`
	UUID             string            `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Email            string            `json:"email" example:"seller@example.com"`
	Name             string            `json:"name" example:"John Doe"`
	Role             string            `json:"role" example:"SELLER"`
	IsVerified       bool              `json:"is_verified" example:"true"`
	IsSuspended      bool              `json:"is_suspended" example:"false"`
	SuspensionReason *string           `json:"suspension_reason,omitempty"`
	SellerProfile    *SellerProfileDTO `json:"seller_profile,omitempty"`
	CreatedAt        string            `json:"created_at" example:"2024-01-15T10:30:00Z"`
	LastLoginAt      string            `json:"last_login_at,omitempty" example:"2024-01-15T10:30:00Z"`
}

// AccountSummaryDTO identifies the counterparty of a payment
type AccountSummaryDTO struct {
	ID    uint   `json:"id" example:"7"`
	Name  string `json:"name" example:"Jane Buyer"`
	Email string `json:"email" example:"buyer@example.com"`
}

// PaymentSummaryDTO is one row of a purchases or earnings list
type PaymentSummaryDTO struct {
	UUID          string  `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	TransactionID string  `json:"transaction_id" example:"pi_3MtwBwLkdIwHu7ix28a3tqPa"`
	AdUUID        string  `json:"ad_uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	AdTitle       string  `json:"ad_title" example:"MacBook Pro M2"`
	TotalAmount   string  `json:"total_amount" example:"100.00"`
	SellerAmount  *string `json:"seller_amount,omitempty" example:"90.00"`
	Currency      string  `json:"currency" example:"usd"`
	Status        string  `json:"status" example:"COMPLETED"`
	CreatedAt     string  `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// PaymentListResponse is a page of payments
type PaymentListResponse struct {
	Items      []PaymentSummaryDTO `json:"items"`
	Pagination PaginationInfo      `json:"pagination"`
}

// EarningsResponse is a page of a seller's settled sales plus lifetime income
type EarningsResponse struct {
	Items       []PaymentSummaryDTO `json:"items"`
	Pagination  PaginationInfo      `json:"pagination"`
	TotalIncome string              `json:"total_income" example:"900.00"`
}

// PaymentDetailDTO is a single payment. Seller-only fields are omitted for buyers.
type PaymentDetailDTO struct {
	UUID          string             `json:"uuid"`
	TransactionID string             `json:"transaction_id"`
	TotalAmount   string             `json:"total_amount" example:"100.00"`
	Currency      string             `json:"currency" example:"usd"`
	Status        string             `json:"status" example:"COMPLETED"`
	FailureReason *string            `json:"failure_reason,omitempty"`
	Ad            *AdDTO             `json:"ad,omitempty"`
	SellerAmount  *string            `json:"seller_amount,omitempty" example:"90.00"`
	AdminFee      *string            `json:"admin_fee,omitempty" example:"10.00"`
	Buyer         *AccountSummaryDTO `json:"buyer,omitempty"`
	CreatedAt     string             `json:"created_at"`
}

// PaymentDetailResponse tells the caller in which capacity they see the payment
type PaymentDetailResponse struct {
	ViewerRole string           `json:"viewer_role" example:"SELLER"`
	Payment    PaymentDetailDTO `json:"payment"`
}

// SellerStatsResponse is the seller dashboard
type SellerStatsResponse struct {
	TotalAds    int64  `json:"total_ads" example:"12"`
	SoldAds     int64  `json:"sold_ads" example:"5"`
	ActiveAds   int64  `json:"active_ads" example:"7"`
	TotalIncome string `json:"total_income" example:"450.00"`
	Currency    string `json:"currency" example:"usd"`
}
