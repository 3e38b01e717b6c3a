package services

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Processor event types the settlement flow reacts to
const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
)

// Intent metadata keys carried from intent creation to settlement
const (
	MetadataAdID         = "ad_id"
	MetadataBuyerID      = "buyer_id"
	MetadataTotalAmount  = "total_amount"
	MetadataSellerAmount = "seller_amount"
	MetadataAdminFee     = "admin_fee"
	MetadataCurrency     = "currency"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// ProcessorError is a rejection reported by the payment processor (declined card, invalid token, ...)
type ProcessorError struct {
	Code       string
	Message    string
	StatusCode int
}

func (e *ProcessorError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("processor rejected request (%s): %s", e.Code, e.Message)
	}
	return "processor rejected request: " + e.Message
}

// IntentRequest describes a destination-transfer charge in minor units
type IntentRequest struct {
	Amount               int64
	Currency             string
	PaymentMethodToken   string
	DestinationAccountID string
	ApplicationFee       int64
	Metadata             map[string]string
	IdempotencyKey       string
}

// IntentResult is the processor's answer to an intent request
type IntentResult struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	ClientSecret  string `json:"client_secret,omitempty"`
}

// WebhookIntent is the payment intent embedded in a verified event
type WebhookIntent struct {
	TransactionID string
	Amount        int64
	Currency      string
	Status        string
	Metadata      map[string]string
}

// WebhookEvent is a verified processor event
type WebhookEvent struct {
	ID      string
	Type    string
	Payload []byte
	// Intent is set for payment_intent.* events
	Intent *WebhookIntent
}

// ConnectedAccountRequest describes a seller payout account to open at the processor
type ConnectedAccountRequest struct {
	AccountID   uint
	Email       string
	Country     string
	CompanyName string
	Website     string
}

// ExternalBank is the payout bank account attached to a connected account
type ExternalBank struct {
	ID       string
	BankName string
	Last4    string
	Country  string
	Currency string
}

// ConnectedAccount is the processor-side state of a seller payout account
type ConnectedAccount struct {
	ID               string
	PayoutsEnabled   bool
	DetailsSubmitted bool
	Bank             *ExternalBank
}

// OnboardingLink is a hosted onboarding page for a connected account
type OnboardingLink struct {
	URL       string
	ExpiresAt time.Time
}

// PaymentProcessor is the hosted payment processor used for charges and seller payouts
type PaymentProcessor interface {
	Name() string
	CreateIntent(ctx context.Context, req *IntentRequest) (*IntentResult, error)
	// ConstructEvent verifies signature over the exact raw payload and decodes the event
	ConstructEvent(payload []byte, signature string) (*WebhookEvent, error)
	CreateConnectedAccount(ctx context.Context, req *ConnectedAccountRequest) (string, error)
	CreateOnboardingLink(ctx context.Context, processorAccountID string) (*OnboardingLink, error)
	GetAccount(ctx context.Context, processorAccountID string) (*ConnectedAccount, error)
}
