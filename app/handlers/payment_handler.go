package handlers

import (
	"bytes"

	"github.com/amirphl/marketplace-settlement/app/dto"
	"github.com/amirphl/marketplace-settlement/app/middleware"
	businessflow "github.com/amirphl/marketplace-settlement/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

const (
	headerStripeSignature = "Stripe-Signature"
	headerIdempotencyKey  = "Idempotency-Key"
)

// PaymentHandlerInterface defines the contract for payment handlers
type PaymentHandlerInterface interface {
	CreatePaymentIntent(c fiber.Ctx) error
	Webhook(c fiber.Ctx) error
}

// PaymentHandler handles payment-related HTTP requests
type PaymentHandler struct {
	baseHandler
	paymentFlow businessflow.PaymentFlow
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentFlow businessflow.PaymentFlow, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		baseHandler: newBaseHandler(logger),
		paymentFlow: paymentFlow,
	}
}

// CreatePaymentIntent charges the buyer for an ad
// @Summary Create Payment Intent
// @Description Charge the caller for an ad. The seller receives the price minus the platform fee.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Client retry key"
// @Param request body dto.CreatePaymentIntentRequest true "Ad and payment method"
// @Success 200 {object} dto.CreatePaymentIntentResponse "Intent created"
// @Failure 400 {object} dto.APIResponse "Validation error or processor rejection"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Account suspended or unverified"
// @Failure 404 {object} dto.APIResponse "Ad not found"
// @Failure 409 {object} dto.APIResponse "Ad already sold or seller not onboarded"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/payments/create-intent [post]
func (h *PaymentHandler) CreatePaymentIntent(c fiber.Ctx) error {
	var req dto.CreatePaymentIntentRequest
	if handled, err := h.bindJSON(c, &req); handled {
		return err
	}

	account, ok := middleware.GetAccountFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}
	req.BuyerID = account.ID
	req.IdempotencyKey = c.Get(headerIdempotencyKey)

	ctx, cancel := h.requestContext(c, "/api/v1/payments/create-intent")
	defer cancel()

	result, err := h.paymentFlow.CreatePaymentIntent(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.FailureResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// Webhook receives processor events. The signature is checked over the raw body.
// @Summary Payment Webhook
// @Description Processor event delivery. A non-2xx answer makes the processor redeliver.
// @Tags Payments
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Webhook signature"
// @Success 200 {object} dto.WebhookResponse "Event received"
// @Failure 400 {object} dto.APIResponse "Missing or invalid signature"
// @Failure 500 {object} dto.APIResponse "Settlement failed, redeliver later"
// @Router /api/v1/payments/webhook [post]
func (h *PaymentHandler) Webhook(c fiber.Ctx) error {
	req := &dto.WebhookRequest{
		Payload:   bytes.Clone(c.Body()),
		Signature: c.Get(headerStripeSignature),
	}

	ctx, cancel := h.requestContext(c, "/api/v1/payments/webhook")
	defer cancel()

	result, err := h.paymentFlow.HandleWebhook(ctx, req, h.clientMetadata(c))
	if err != nil {
		return h.FailureResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
