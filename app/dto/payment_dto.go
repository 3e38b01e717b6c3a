package dto

// CreatePaymentIntentRequest charges the buyer for an ad
type CreatePaymentIntentRequest struct {
	AdID  string `json:"adId" validate:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Token string `json:"token" validate:"required,min=3,max=255" example:"pm_card_visa"`
	// IdempotencyKey comes from the Idempotency-Key header
	IdempotencyKey string `json:"-"`
	BuyerID        uint   `json:"-"`
}

// CreatePaymentIntentResponse is the processor's answer for the charge
type CreatePaymentIntentResponse struct {
	Success       bool   `json:"success" example:"true"`
	Status        string `json:"status" example:"succeeded"`
	TransactionID string `json:"transactionId" example:"pi_3MtwBwLkdIwHu7ix28a3tqPa"`
	Amount        string `json:"amount" example:"100.00"`
}

// WebhookRequest carries the raw body exactly as received
type WebhookRequest struct {
	Payload   []byte
	Signature string
}

// WebhookResponse acknowledges an event
type WebhookResponse struct {
	Received bool `json:"received" example:"true"`
}
