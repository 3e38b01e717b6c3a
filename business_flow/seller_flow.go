package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amirphl/marketplace-settlement/app/dto"
	"github.com/amirphl/marketplace-settlement/app/services"
	"github.com/amirphl/marketplace-settlement/models"
	"github.com/amirphl/marketplace-settlement/repository"
	"github.com/amirphl/marketplace-settlement/utils"
	"go.uber.org/zap"
)

// SellerFlow handles seller profiles and payout onboarding
type SellerFlow interface {
	CreateSellerProfile(ctx context.Context, seller *models.Account, req *dto.CreateSellerProfileRequest, metadata *ClientMetadata) (*dto.SellerProfileDTO, error)
	UpdateSellerProfile(ctx context.Context, seller *models.Account, req *dto.UpdateSellerProfileRequest, metadata *ClientMetadata) (*dto.SellerProfileDTO, error)
	GetOnboardingLink(ctx context.Context, seller *models.Account) (*dto.OnboardingLinkResponse, error)
	SyncOnboarding(ctx context.Context, seller *models.Account, metadata *ClientMetadata) (*dto.SyncOnboardingResponse, error)
}

// SellerFlowImpl implements the seller business flow
type SellerFlowImpl struct {
	profileRepo repository.SellerProfileRepository
	auditRepo   repository.AuditLogRepository
	processor   services.PaymentProcessor
	logger      *zap.Logger
}

// NewSellerFlow creates a new seller flow instance
func NewSellerFlow(
	profileRepo repository.SellerProfileRepository,
	auditRepo repository.AuditLogRepository,
	processor services.PaymentProcessor,
	logger *zap.Logger,
) SellerFlow {
	return &SellerFlowImpl{
		profileRepo: profileRepo,
		auditRepo:   auditRepo,
		processor:   processor,
		logger:      logger,
	}
}

// processorFailure maps processor errors: rejections are the caller's fault, the rest is internal
func processorFailure(code string, err error) error {
	var pe *services.ProcessorError
	if errors.As(err, &pe) {
		return NewBusinessError(KindInvalidRequest, code, pe.Message, fmt.Errorf("%w: %w", ErrProcessorRejected, err))
	}
	return internalError(code, fmt.Errorf("%w: %w", ErrProcessorUnavailable, err))
}

// CreateSellerProfile opens the payout account at the processor, then stores the profile.
// A processor failure stores nothing so the seller can retry.
func (sf *SellerFlowImpl) CreateSellerProfile(ctx context.Context, seller *models.Account, req *dto.CreateSellerProfileRequest, metadata *ClientMetadata) (*dto.SellerProfileDTO, error) {
	existing, err := sf.profileRepo.ByAccountID(ctx, seller.ID)
	if err != nil {
		return nil, internalError("PROFILE_LOOKUP_FAILED", err)
	}
	if existing != nil {
		return nil, NewBusinessError(KindInvalidState, "SELLER_PROFILE_EXISTS", "seller profile already exists", ErrSellerProfileExists)
	}

	profile := &models.SellerProfile{
		AccountID:      seller.ID,
		CompanyName:    req.CompanyName,
		CompanyWebsite: req.CompanyWebsite,
		Address:        req.Address,
		City:           req.City,
		State:          req.State,
		Zip:            req.Zip,
		Country:        strings.ToUpper(req.Country),
	}

	accountID, err := sf.processor.CreateConnectedAccount(ctx, &services.ConnectedAccountRequest{
		AccountID:   seller.ID,
		Email:       seller.Email,
		Country:     profile.Country,
		CompanyName: profile.CompanyName,
		Website:     profile.CompanyWebsite,
	})
	if err != nil {
		failure := processorFailure("PAYOUT_ACCOUNT_FAILED", err)
		if KindOf(failure) == KindInternal {
			sf.logger.Error("Payout account creation failed", zap.Uint("account_id", seller.ID), zap.Error(err))
		}
		return nil, failure
	}
	profile.ProcessorAccountID = &accountID

	if err := sf.profileRepo.Save(ctx, profile); err != nil {
		// The processor account exists without a profile and has to be removed by hand
		sf.logger.Error("Seller profile creation failed, payout account orphaned",
			zap.Uint("account_id", seller.ID),
			zap.String("processor_account_id", accountID),
			zap.Error(err))
		return nil, internalError("PROFILE_CREATE_FAILED", err)
	}

	_ = createAuditLog(ctx, sf.auditRepo, &seller.ID, models.AuditActionSellerProfileCreated,
		fmt.Sprintf("Seller profile created with payout account %s", utils.DerefString(profile.ProcessorAccountID)), true, nil, metadata, nil)

	out := ToSellerProfileDTO(profile)
	return &out, nil
}

// UpdateSellerProfile patches company and address fields of a payment-ready seller
func (sf *SellerFlowImpl) UpdateSellerProfile(ctx context.Context, seller *models.Account, req *dto.UpdateSellerProfileRequest, metadata *ClientMetadata) (*dto.SellerProfileDTO, error) {
	profile, err := sf.profileRepo.ByAccountID(ctx, seller.ID)
	if err != nil {
		return nil, internalError("PROFILE_LOOKUP_FAILED", err)
	}
	if profile == nil {
		return nil, NewBusinessError(KindForbidden, "SELLER_PROFILE_MISSING", "seller profile not found", ErrSellerProfileMissing)
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&profile.CompanyName, req.CompanyName)
	apply(&profile.CompanyWebsite, req.CompanyWebsite)
	apply(&profile.Address, req.Address)
	apply(&profile.City, req.City)
	apply(&profile.State, req.State)
	apply(&profile.Zip, req.Zip)

	// Save would also write the preloaded bank association
	bank := profile.SellerBank
	profile.SellerBank = nil
	err = sf.profileRepo.Update(ctx, profile)
	profile.SellerBank = bank
	if err != nil {
		return nil, internalError("PROFILE_UPDATE_FAILED", err)
	}

	_ = createAuditLog(ctx, sf.auditRepo, &seller.ID, models.AuditActionSellerProfileUpdated,
		"Seller profile updated", true, nil, metadata, nil)

	out := ToSellerProfileDTO(profile)
	return &out, nil
}

func (sf *SellerFlowImpl) profileWithPayoutAccount(ctx context.Context, sellerID uint) (*models.SellerProfile, error) {
	profile, err := sf.profileRepo.ByAccountID(ctx, sellerID)
	if err != nil {
		return nil, internalError("PROFILE_LOOKUP_FAILED", err)
	}
	if profile == nil {
		return nil, NewBusinessError(KindForbidden, "SELLER_PROFILE_MISSING", "seller profile not found", ErrSellerProfileMissing)
	}
	if !profile.HasProcessorAccount() {
		return nil, NewBusinessError(KindInvalidState, "PAYOUT_ACCOUNT_MISSING", "seller has no payout account", ErrProcessorAccountMissing)
	}
	return profile, nil
}

// GetOnboardingLink returns a hosted page where the seller completes payout onboarding
func (sf *SellerFlowImpl) GetOnboardingLink(ctx context.Context, seller *models.Account) (*dto.OnboardingLinkResponse, error) {
	profile, err := sf.profileWithPayoutAccount(ctx, seller.ID)
	if err != nil {
		return nil, err
	}

	link, err := sf.processor.CreateOnboardingLink(ctx, *profile.ProcessorAccountID)
	if err != nil {
		return nil, processorFailure("ONBOARDING_LINK_FAILED", err)
	}

	resp := &dto.OnboardingLinkResponse{URL: link.URL}
	if !link.ExpiresAt.IsZero() {
		resp.ExpiresAt = utils.FormatRFC3339(&link.ExpiresAt)
	}
	return resp, nil
}

// SyncOnboarding pulls the payout account state and records the bank once payouts are enabled
func (sf *SellerFlowImpl) SyncOnboarding(ctx context.Context, seller *models.Account, metadata *ClientMetadata) (*dto.SyncOnboardingResponse, error) {
	profile, err := sf.profileWithPayoutAccount(ctx, seller.ID)
	if err != nil {
		return nil, err
	}

	acct, err := sf.processor.GetAccount(ctx, *profile.ProcessorAccountID)
	if err != nil {
		return nil, processorFailure("PAYOUT_ACCOUNT_SYNC_FAILED", err)
	}

	if acct.PayoutsEnabled && acct.Bank != nil {
		bank := &models.SellerBank{
			SellerProfileID:   profile.ID,
			ExternalAccountID: acct.Bank.ID,
			BankName:          acct.Bank.BankName,
			Last4:             acct.Bank.Last4,
			Country:           acct.Bank.Country,
			Currency:          acct.Bank.Currency,
		}
		if err := sf.profileRepo.UpsertBank(ctx, bank); err != nil {
			return nil, internalError("BANK_UPSERT_FAILED", err)
		}
		profile.SellerBank = bank

		_ = createAuditLog(ctx, sf.auditRepo, &seller.ID, models.AuditActionSellerOnboardingSync,
			fmt.Sprintf("Payout bank ending %s linked", bank.Last4), true, nil, metadata, nil)
	}

	return &dto.SyncOnboardingResponse{
		PayoutsEnabled:   acct.PayoutsEnabled,
		DetailsSubmitted: acct.DetailsSubmitted,
		Profile:          ToSellerProfileDTO(profile),
	}, nil
}
