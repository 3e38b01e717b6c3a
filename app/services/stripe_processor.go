package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

// StripeConfig holds the settings of the stripe processor
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	RefreshURL    string
	ReturnURL     string
	Tolerance     time.Duration
	Timeout       time.Duration
}

// StripeProcessor implements PaymentProcessor on top of stripe connect
type StripeProcessor struct {
	api    *client.API
	config StripeConfig
}

// NewStripeProcessor creates a processor bound to its own API client
func NewStripeProcessor(cfg StripeConfig) (*StripeProcessor, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.New("stripe webhook secret is required")
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = webhook.DefaultTolerance
	}

	return &StripeProcessor{
		api:    client.New(cfg.SecretKey, nil),
		config: cfg,
	}, nil
}

func (p *StripeProcessor) Name() string {
	return "stripe"
}

func (p *StripeProcessor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.config.Timeout > 0 {
		return context.WithTimeout(ctx, p.config.Timeout)
	}
	return context.WithCancel(ctx)
}

// CreateIntent confirms a destination-transfer charge. The platform keeps ApplicationFee.
func (p *StripeProcessor) CreateIntent(ctx context.Context, req *IntentRequest) (*IntentResult, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.Amount),
		Currency:      stripe.String(req.Currency),
		PaymentMethod: stripe.String(req.PaymentMethodToken),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
		TransferData: &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(req.DestinationAccountID),
		},
		ApplicationFeeAmount: stripe.Int64(req.ApplicationFee),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, translateStripeError(err)
	}

	return &IntentResult{
		TransactionID: pi.ID,
		Status:        string(pi.Status),
		Amount:        pi.Amount,
		ClientSecret:  pi.ClientSecret,
	}, nil
}

// ConstructEvent verifies the Stripe-Signature header against the raw body
func (p *StripeProcessor) ConstructEvent(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.config.WebhookSecret, webhook.ConstructEventOptions{
		Tolerance:                p.config.Tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{
		ID:      event.ID,
		Type:    string(event.Type),
		Payload: payload,
	}

	if strings.HasPrefix(out.Type, "payment_intent.") && event.Data != nil {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("failed to decode payment intent of event %s: %w", event.ID, err)
		}
		out.Intent = &WebhookIntent{
			TransactionID: pi.ID,
			Amount:        pi.Amount,
			Currency:      string(pi.Currency),
			Status:        string(pi.Status),
			Metadata:      pi.Metadata,
		}
	}

	return out, nil
}

// CreateConnectedAccount opens an express account able to receive transfers
func (p *StripeProcessor) CreateConnectedAccount(ctx context.Context, req *ConnectedAccountRequest) (string, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	params := &stripe.AccountParams{
		Type:    stripe.String(string(stripe.AccountTypeExpress)),
		Country: stripe.String(req.Country),
		Email:   stripe.String(req.Email),
		Capabilities: &stripe.AccountCapabilitiesParams{
			Transfers: &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
		BusinessProfile: &stripe.AccountBusinessProfileParams{
			Name: stripe.String(req.CompanyName),
		},
	}
	if req.Website != "" {
		params.BusinessProfile.URL = stripe.String(req.Website)
	}

	// cross-border recipients cannot take card payments themselves
	if req.Country == "BD" {
		params.TOSAcceptance = &stripe.AccountTOSAcceptanceParams{
			ServiceAgreement: stripe.String("recipient"),
		}
	} else {
		params.Capabilities.CardPayments = &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)}
	}

	params.Context = ctx
	params.AddMetadata("account_id", strconv.FormatUint(uint64(req.AccountID), 10))

	acct, err := p.api.Accounts.New(params)
	if err != nil {
		return "", translateStripeError(err)
	}
	return acct.ID, nil
}

func (p *StripeProcessor) CreateOnboardingLink(ctx context.Context, processorAccountID string) (*OnboardingLink, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	params := &stripe.AccountLinkParams{
		Account:    stripe.String(processorAccountID),
		RefreshURL: stripe.String(p.config.RefreshURL),
		ReturnURL:  stripe.String(p.config.ReturnURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx

	link, err := p.api.AccountLinks.New(params)
	if err != nil {
		return nil, translateStripeError(err)
	}
	return &OnboardingLink{URL: link.URL, ExpiresAt: time.Unix(link.ExpiresAt, 0).UTC()}, nil
}

func (p *StripeProcessor) GetAccount(ctx context.Context, processorAccountID string) (*ConnectedAccount, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	params := &stripe.AccountParams{}
	params.Context = ctx

	acct, err := p.api.Accounts.GetByID(processorAccountID, params)
	if err != nil {
		return nil, translateStripeError(err)
	}

	out := &ConnectedAccount{
		ID:               acct.ID,
		PayoutsEnabled:   acct.PayoutsEnabled,
		DetailsSubmitted: acct.DetailsSubmitted,
	}
	if acct.ExternalAccounts != nil {
		for _, ext := range acct.ExternalAccounts.Data {
			if ext == nil || ext.BankAccount == nil {
				continue
			}
			out.Bank = &ExternalBank{
				ID:       ext.BankAccount.ID,
				BankName: ext.BankAccount.BankName,
				Last4:    ext.BankAccount.Last4,
				Country:  ext.BankAccount.Country,
				Currency: string(ext.BankAccount.Currency),
			}
			break
		}
	}
	return out, nil
}

// translateStripeError maps API rejections to ProcessorError; transport failures pass through
func translateStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode >= 500 {
			return fmt.Errorf("stripe unavailable: %w", err)
		}
		return &ProcessorError{
			Code:       string(stripeErr.Code),
			Message:    stripeErr.Msg,
			StatusCode: stripeErr.HTTPStatusCode,
		}
	}
	return err
}
