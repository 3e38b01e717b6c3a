package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/amirphl/marketplace-settlement/app/dto"
	"github.com/amirphl/marketplace-settlement/app/services"
	"github.com/amirphl/marketplace-settlement/models"
	"github.com/amirphl/marketplace-settlement/repository"
	"github.com/amirphl/marketplace-settlement/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
)

// PaymentFlow handles intent creation and settlement of processor webhooks
type PaymentFlow interface {
	CreatePaymentIntent(ctx context.Context, req *dto.CreatePaymentIntentRequest, metadata *ClientMetadata) (*dto.CreatePaymentIntentResponse, error)
	HandleWebhook(ctx context.Context, req *dto.WebhookRequest, metadata *ClientMetadata) (*dto.WebhookResponse, error)
}

// PaymentSettings are the fee and currency applied to every charge
type PaymentSettings struct {
	FeePercent decimal.Decimal
	Currency   string
}

// PaymentFlowImpl implements the payment business flow
type PaymentFlowImpl struct {
	accountRepo repository.AccountRepository
	adRepo      repository.AdRepository
	paymentRepo repository.PaymentRepository
	eventRepo   repository.ProcessorEventRepository
	auditRepo   repository.AuditLogRepository
	transactor  repository.Transactor
	processor   services.PaymentProcessor
	intentCache services.IntentCache
	notifier    services.NotificationService
	settings    PaymentSettings
	logger      *zap.Logger

	inflight singleflight.Group
}

// NewPaymentFlow creates a new payment flow instance
func NewPaymentFlow(
	accountRepo repository.AccountRepository,
	adRepo repository.AdRepository,
	paymentRepo repository.PaymentRepository,
	eventRepo repository.ProcessorEventRepository,
	auditRepo repository.AuditLogRepository,
	transactor repository.Transactor,
	processor services.PaymentProcessor,
	intentCache services.IntentCache,
	notifier services.NotificationService,
	settings PaymentSettings,
	logger *zap.Logger,
) PaymentFlow {
	if settings.Currency == "" {
		settings.Currency = utils.DefaultCurrency
	}
	return &PaymentFlowImpl{
		accountRepo: accountRepo,
		adRepo:      adRepo,
		paymentRepo: paymentRepo,
		eventRepo:   eventRepo,
		auditRepo:   auditRepo,
		transactor:  transactor,
		processor:   processor,
		intentCache: intentCache,
		notifier:    notifier,
		settings:    settings,
		logger:      logger,
	}
}

var idempotencyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("marketplace-settlement/payment-intent"))

// IntentIdempotencyKey derives the processor idempotency key of one logical purchase attempt
func IntentIdempotencyKey(adID uuid.UUID, buyerID uint, nonce string) string {
	return uuid.NewSHA1(idempotencyNamespace, fmt.Appendf(nil, "%s:%d:%s", adID, buyerID, nonce)).String()
}

// CreatePaymentIntent charges the buyer for an ad with a destination transfer to the seller.
// It never writes a payment row; settlement happens in HandleWebhook.
func (pf *PaymentFlowImpl) CreatePaymentIntent(ctx context.Context, req *dto.CreatePaymentIntentRequest, metadata *ClientMetadata) (*dto.CreatePaymentIntentResponse, error) {
	resp, err := pf.createPaymentIntent(ctx, req)
	if err != nil {
		paymentIntentsTotal.WithLabelValues(intentOutcome(err)).Inc()
		errMsg := err.Error()
		_ = createAuditLog(ctx, pf.auditRepo, &req.BuyerID, models.AuditActionPaymentIntentRejected,
			fmt.Sprintf("Payment intent rejected for ad %s", req.AdID), false, &errMsg, metadata, nil)
		return nil, err
	}

	_ = createAuditLog(ctx, pf.auditRepo, &req.BuyerID, models.AuditActionPaymentIntentCreated,
		fmt.Sprintf("Payment intent %s created for ad %s", resp.TransactionID, req.AdID), true, nil, metadata,
		map[string]any{"transaction_id": resp.TransactionID, "amount": resp.Amount})

	return resp, nil
}

func (pf *PaymentFlowImpl) createPaymentIntent(ctx context.Context, req *dto.CreatePaymentIntentRequest) (*dto.CreatePaymentIntentResponse, error) {
	adID, err := uuid.Parse(req.AdID)
	if err != nil {
		return nil, NewBusinessError(KindInvalidRequest, "INVALID_AD_ID", "invalid ad id", ErrInvalidAdID)
	}

	ad, err := pf.adRepo.ByUUID(ctx, adID)
	if err != nil {
		return nil, internalError("AD_LOOKUP_FAILED", err)
	}
	if ad == nil {
		return nil, NewBusinessError(KindNotFound, "AD_NOT_FOUND", "ad not found", ErrAdNotFound)
	}
	if ad.IsSold {
		return nil, NewBusinessError(KindInvalidState, "AD_ALREADY_SOLD", "ad already sold", ErrAdAlreadySold)
	}
	if ad.SellerID == req.BuyerID {
		return nil, NewBusinessError(KindInvalidRequest, "SELF_PURCHASE", "sellers cannot buy their own ads", ErrSelfPurchase)
	}

	seller, err := pf.accountRepo.ByIDWithProfile(ctx, ad.SellerID)
	if err != nil {
		return nil, internalError("SELLER_LOOKUP_FAILED", err)
	}
	if seller == nil || seller.SellerProfile == nil || !seller.SellerProfile.IsPaymentReady() {
		return nil, NewBusinessError(KindInvalidState, "SELLER_NOT_ONBOARDED", "seller not onboarded", ErrSellerNotReady)
	}

	price, ok := ad.ResolvedPrice()
	if !ok {
		return nil, NewBusinessError(KindInvalidState, "PRICE_NOT_SET", "price not set for this ad", ErrPriceNotSet)
	}
	split, err := ComputeSplit(price, pf.settings.FeePercent)
	if err != nil {
		if errors.Is(err, ErrInvalidPrice) {
			return nil, NewBusinessError(KindInvalidState, "INVALID_AMOUNT", "ad price must be a positive amount", err)
		}
		return nil, internalError("FEE_SPLIT_FAILED", err)
	}

	// Without a client key every retry of the same buyer and ad is one attempt
	key := IntentIdempotencyKey(ad.UUID, req.BuyerID, req.IdempotencyKey)

	if cached, err := pf.intentCache.Get(ctx, key); err != nil {
		pf.logger.Warn("Intent cache read failed", zap.String("idempotency_key", key), zap.Error(err))
	} else if cached != nil {
		paymentIntentsTotal.WithLabelValues(outcomeCached).Inc()
		return toIntentResponse(cached), nil
	}

	intentReq := &services.IntentRequest{
		Amount:               split.TotalMinor,
		Currency:             pf.settings.Currency,
		PaymentMethodToken:   req.Token,
		DestinationAccountID: *seller.SellerProfile.ProcessorAccountID,
		ApplicationFee:       split.FeeMinor,
		Metadata:             intentMetadata(ad.UUID, req.BuyerID, split, pf.settings.Currency),
		IdempotencyKey:       key,
	}

	// Concurrent retries of the same attempt share one processor call
	v, err, _ := pf.inflight.Do(key, func() (any, error) {
		return pf.processor.CreateIntent(ctx, intentReq)
	})
	if err != nil {
		failure := processorFailure("PAYMENT_REJECTED", err)
		if KindOf(failure) == KindInternal {
			pf.logger.Error("Payment processor call failed", zap.String("ad_id", ad.UUID.String()), zap.Uint("buyer_id", req.BuyerID), zap.Error(err))
		}
		return nil, failure
	}
	result := v.(*services.IntentResult)

	if err := pf.intentCache.Set(ctx, key, result); err != nil {
		pf.logger.Warn("Intent cache write failed", zap.String("idempotency_key", key), zap.Error(err))
	}
	paymentIntentsTotal.WithLabelValues(outcomeCreated).Inc()

	return toIntentResponse(result), nil
}

// toIntentResponse reports the amount the processor was asked to charge
func toIntentResponse(result *services.IntentResult) *dto.CreatePaymentIntentResponse {
	return &dto.CreatePaymentIntentResponse{
		Success:       true,
		Status:        result.Status,
		TransactionID: result.TransactionID,
		Amount:        formatAmount(FromMinor(result.Amount)),
	}
}

func intentOutcome(err error) string {
	switch KindOf(err) {
	case KindInternal:
		return outcomeError
	default:
		return outcomeRejected
	}
}

// intentMetadata freezes the sale into the intent so settlement never re-reads the ad price
func intentMetadata(adID uuid.UUID, buyerID uint, split FeeSplit, currency string) map[string]string {
	return map[string]string{
		services.MetadataAdID:         adID.String(),
		services.MetadataBuyerID:      strconv.FormatUint(uint64(buyerID), 10),
		services.MetadataTotalAmount:  strconv.FormatInt(split.TotalMinor, 10),
		services.MetadataSellerAmount: strconv.FormatInt(split.SellerMinor, 10),
		services.MetadataAdminFee:     strconv.FormatInt(split.FeeMinor, 10),
		services.MetadataCurrency:     currency,
	}
}

// saleMetadata is the sale reconstructed from a succeeded intent
type saleMetadata struct {
	AdID     uuid.UUID
	BuyerID  uint
	Split    FeeSplit
	Currency string
}

func parseSaleMetadata(intent *services.WebhookIntent) (*saleMetadata, error) {
	if intent == nil {
		return nil, errors.New("event carries no payment intent")
	}
	md := intent.Metadata

	adID, err := uuid.Parse(md[services.MetadataAdID])
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", services.MetadataAdID, err)
	}
	buyerID, err := strconv.ParseUint(md[services.MetadataBuyerID], 10, 64)
	if err != nil || buyerID == 0 {
		return nil, fmt.Errorf("invalid %s %q", services.MetadataBuyerID, md[services.MetadataBuyerID])
	}

	var split FeeSplit
	for _, f := range []struct {
		key string
		dst *int64
	}{
		{services.MetadataTotalAmount, &split.TotalMinor},
		{services.MetadataSellerAmount, &split.SellerMinor},
		{services.MetadataAdminFee, &split.FeeMinor},
	} {
		n, err := strconv.ParseInt(md[f.key], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", f.key, md[f.key])
		}
		*f.dst = n
	}
	if !split.Valid() {
		return nil, fmt.Errorf("inconsistent amounts: total %d, seller %d, fee %d", split.TotalMinor, split.SellerMinor, split.FeeMinor)
	}

	currency := md[services.MetadataCurrency]
	if currency == "" {
		currency = intent.Currency
	}

	return &saleMetadata{
		AdID:     adID,
		BuyerID:  uint(buyerID),
		Split:    split,
		Currency: currency,
	}, nil
}

// settlement is what finalize did with one event
type settlement struct {
	outcome string
	payment *models.Payment
	ad      *models.Ad
}

// HandleWebhook verifies a processor event and settles succeeded intents exactly once
func (pf *PaymentFlowImpl) HandleWebhook(ctx context.Context, req *dto.WebhookRequest, metadata *ClientMetadata) (*dto.WebhookResponse, error) {
	if req.Signature == "" {
		return nil, NewBusinessError(KindInvalidRequest, "MISSING_SIGNATURE", "missing webhook signature", ErrMissingSignature)
	}

	event, err := pf.processor.ConstructEvent(req.Payload, req.Signature)
	if err != nil {
		paymentWebhookEventsTotal.WithLabelValues("unknown", outcomeInvalid).Inc()
		return nil, NewBusinessError(KindInvalidRequest, "INVALID_WEBHOOK", "invalid webhook payload or signature", fmt.Errorf("%w: %w", ErrInvalidWebhook, err))
	}

	if event.Type != services.EventPaymentIntentSucceeded {
		if err := pf.recordIgnored(ctx, event); err != nil {
			paymentWebhookEventsTotal.WithLabelValues(event.Type, outcomeError).Inc()
			return nil, internalError("WEBHOOK_RECORD_FAILED", err)
		}
		paymentWebhookEventsTotal.WithLabelValues(event.Type, outcomeIgnored).Inc()
		return &dto.WebhookResponse{Received: true}, nil
	}

	var result settlement
	err = pf.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		result, err = pf.finalize(txCtx, event)
		return err
	})
	if err != nil {
		paymentWebhookEventsTotal.WithLabelValues(event.Type, outcomeError).Inc()
		paymentSettlementsTotal.WithLabelValues(outcomeError).Inc()
		pf.logger.Error("Settlement transaction failed", zap.String("event_id", event.ID), zap.Error(err))
		return nil, internalError("SETTLEMENT_FAILED", err)
	}

	paymentWebhookEventsTotal.WithLabelValues(event.Type, result.outcome).Inc()
	pf.afterSettlement(ctx, event, result, metadata)

	return &dto.WebhookResponse{Received: true}, nil
}

func (pf *PaymentFlowImpl) recordIgnored(ctx context.Context, event *services.WebhookEvent) error {
	_, err := pf.eventRepo.Record(ctx, &models.ProcessorEvent{
		Provider:    pf.processor.Name(),
		EventID:     event.ID,
		Type:        event.Type,
		Payload:     datatypes.JSON(event.Payload),
		ProcessedAt: utils.UTCNowPtr(),
	})
	return err
}

// finalize runs inside the settlement transaction. Errors roll everything back, including the event record.
func (pf *PaymentFlowImpl) finalize(ctx context.Context, event *services.WebhookEvent) (settlement, error) {
	inserted, err := pf.eventRepo.Record(ctx, &models.ProcessorEvent{
		Provider: pf.processor.Name(),
		EventID:  event.ID,
		Type:     event.Type,
		Payload:  datatypes.JSON(event.Payload),
	})
	if err != nil {
		return settlement{}, err
	}
	if !inserted {
		return settlement{outcome: outcomeDuplicate}, nil
	}

	now := utils.UTCNow()
	unusable := func(reason string) (settlement, error) {
		pf.logger.Warn("Unusable settlement event", zap.String("event_id", event.ID), zap.String("reason", reason))
		if err := pf.eventRepo.MarkProcessed(ctx, event.ID, now, &reason); err != nil {
			return settlement{}, err
		}
		return settlement{outcome: outcomeInvalid}, nil
	}

	sale, err := parseSaleMetadata(event.Intent)
	if err != nil {
		return unusable(err.Error())
	}

	existing, err := pf.paymentRepo.ByTransactionID(ctx, event.Intent.TransactionID)
	if err != nil {
		return settlement{}, err
	}
	if existing != nil {
		if err := pf.eventRepo.MarkProcessed(ctx, event.ID, now, nil); err != nil {
			return settlement{}, err
		}
		return settlement{outcome: outcomeDuplicate, payment: existing}, nil
	}

	ad, err := pf.adRepo.ByUUID(ctx, sale.AdID)
	if err != nil {
		return settlement{}, err
	}
	if ad == nil {
		return unusable(fmt.Sprintf("ad %s not found", sale.AdID))
	}
	buyer, err := pf.accountRepo.ByID(ctx, sale.BuyerID)
	if err != nil {
		return settlement{}, err
	}
	if buyer == nil {
		return unusable(fmt.Sprintf("buyer %d not found", sale.BuyerID))
	}

	won, err := pf.adRepo.MarkSold(ctx, ad.ID, sale.BuyerID, now)
	if err != nil {
		return settlement{}, err
	}

	payment := &models.Payment{
		TransactionID:    event.Intent.TransactionID,
		TotalAmount:      sale.Split.Total(),
		SellerAmount:     sale.Split.Seller(),
		AdminFee:         sale.Split.Fee(),
		Currency:         sale.Currency,
		Status:           models.PaymentStatusCompleted,
		BuyerID:          sale.BuyerID,
		AdID:             ad.ID,
		ProcessorEventID: event.ID,
	}
	outcome := outcomeSettled
	if !won {
		// The charge went through but another buyer already owns the ad; kept for refund
		payment.Status = models.PaymentStatusFailed
		payment.FailureReason = utils.ToPtr(ErrAdAlreadySold.Error())
		outcome = outcomeConflict
	}

	created, err := pf.paymentRepo.CreateIdempotent(ctx, payment)
	if err != nil {
		return settlement{}, err
	}
	if !created {
		outcome = outcomeDuplicate
	}

	if err := pf.eventRepo.MarkProcessed(ctx, event.ID, now, nil); err != nil {
		return settlement{}, err
	}

	return settlement{outcome: outcome, payment: payment, ad: ad}, nil
}

// afterSettlement audits and notifies once the transaction committed
func (pf *PaymentFlowImpl) afterSettlement(ctx context.Context, event *services.WebhookEvent, result settlement, metadata *ClientMetadata) {
	switch result.outcome {
	case outcomeSettled:
		paymentSettlementsTotal.WithLabelValues(outcomeSettled).Inc()
		p := result.payment
		_ = createAuditLog(ctx, pf.auditRepo, &p.BuyerID, models.AuditActionPaymentSettled,
			fmt.Sprintf("Ad %s sold through %s", result.ad.UUID, p.TransactionID), true, nil, metadata,
			map[string]any{"event_id": event.ID, "total_amount": formatAmount(p.TotalAmount), "admin_fee": formatAmount(p.AdminFee)})

		_ = pf.notifier.Notify(ctx, result.ad.SellerID, services.NotificationAdSold, map[string]any{
			"ad_id":          result.ad.UUID.String(),
			"ad_title":       result.ad.Title,
			"transaction_id": p.TransactionID,
			"seller_amount":  formatAmount(p.SellerAmount),
			"currency":       p.Currency,
		})
	case outcomeConflict:
		paymentSettlementsTotal.WithLabelValues(outcomeConflict).Inc()
		p := result.payment
		errMsg := ErrAdAlreadySold.Error()
		_ = createAuditLog(ctx, pf.auditRepo, &p.BuyerID, models.AuditActionPaymentConflict,
			fmt.Sprintf("Charge %s for ad %s needs a refund", p.TransactionID, result.ad.UUID), false, &errMsg, metadata,
			map[string]any{"event_id": event.ID, "total_amount": formatAmount(p.TotalAmount)})
		pf.logger.Warn("Charge settled for an ad that was already sold",
			zap.String("transaction_id", p.TransactionID),
			zap.String("ad_id", result.ad.UUID.String()),
			zap.Uint("buyer_id", p.BuyerID))
	case outcomeDuplicate:
		paymentSettlementsTotal.WithLabelValues(outcomeDuplicate).Inc()
		pf.logger.Info("Duplicate settlement event acknowledged", zap.String("event_id", event.ID))
	}
}
