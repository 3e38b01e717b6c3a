package handlers

import (
	"github.com/amirphl/marketplace-settlement/app/dto"
	"github.com/amirphl/marketplace-settlement/app/middleware"
	businessflow "github.com/amirphl/marketplace-settlement/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// SellerHandlerInterface defines the contract for seller profile handlers
type SellerHandlerInterface interface {
	CreateSellerProfile(c fiber.Ctx) error
	UpdateSellerProfile(c fiber.Ctx) error
	GetOnboardingLink(c fiber.Ctx) error
	SyncOnboarding(c fiber.Ctx) error
}

// SellerHandler handles seller profile and payout onboarding requests
type SellerHandler struct {
	baseHandler
	sellerFlow businessflow.SellerFlow
}

// NewSellerHandler creates a new seller handler
func NewSellerHandler(sellerFlow businessflow.SellerFlow, logger *zap.Logger) *SellerHandler {
	return &SellerHandler{
		baseHandler: newBaseHandler(logger),
		sellerFlow:  sellerFlow,
	}
}

// CreateSellerProfile opens the seller profile and its payout account
// @Summary Create Seller Profile
// @Tags Sellers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSellerProfileRequest true "Company and address"
// @Success 201 {object} dto.APIResponse{data=dto.SellerProfileDTO} "Profile created"
// @Failure 400 {object} dto.APIResponse "Validation error or processor rejection"
// @Failure 403 {object} dto.APIResponse "Not a verified seller"
// @Failure 409 {object} dto.APIResponse "Profile already exists"
// @Router /api/v1/users/seller-profile [post]
func (h *SellerHandler) CreateSellerProfile(c fiber.Ctx) error {
	var req dto.CreateSellerProfileRequest
	if handled, err := h.bindJSON(c, &req); handled {
		return err
	}
	account, ok := middleware.GetAccountFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}

	ctx, cancel := h.requestContext(c, "/api/v1/users/seller-profile")
	defer cancel()

	result, err := h.sellerFlow.CreateSellerProfile(ctx, account, &req, h.clientMetadata(c))
	if err != nil {
		return h.FailureResponse(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Seller profile created successfully", result)
}

// UpdateSellerProfile patches company and address fields
// @Summary Update Seller Profile
// @Tags Sellers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateSellerProfileRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.SellerProfileDTO} "Profile updated"
// @Failure 403 {object} dto.APIResponse "Seller onboarding incomplete"
// @Router /api/v1/users/seller-profile [patch]
func (h *SellerHandler) UpdateSellerProfile(c fiber.Ctx) error {
	var req dto.UpdateSellerProfileRequest
	if handled, err := h.bindJSON(c, &req); handled {
		return err
	}
	account, ok := middleware.GetAccountFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}

	ctx, cancel := h.requestContext(c, "/api/v1/users/seller-profile")
	defer cancel()

	result, err := h.sellerFlow.UpdateSellerProfile(ctx, account, &req, h.clientMetadata(c))
	if err != nil {
		return h.FailureResponse(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Seller profile updated successfully", result)
}

// GetOnboardingLink returns the hosted payout onboarding page
// @Summary Get Onboarding Link
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.OnboardingLinkResponse "Onboarding link"
// @Failure 403 {object} dto.APIResponse "Not a seller or no profile"
// @Failure 409 {object} dto.APIResponse "No payout account"
// @Router /api/v1/payments/onboarding-link [get]
func (h *SellerHandler) GetOnboardingLink(c fiber.Ctx) error {
	account, ok := middleware.GetAccountFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}

	ctx, cancel := h.requestContext(c, "/api/v1/payments/onboarding-link")
	defer cancel()

	result, err := h.sellerFlow.GetOnboardingLink(ctx, account)
	if err != nil {
		return h.FailureResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// SyncOnboarding records the payout bank once the processor enabled payouts
// @Summary Sync Onboarding
// @Tags Sellers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SyncOnboardingResponse} "Onboarding state"
// @Failure 403 {object} dto.APIResponse "Not a seller or no profile"
// @Router /api/v1/users/seller-profile/sync [post]
func (h *SellerHandler) SyncOnboarding(c fiber.Ctx) error {
	account, ok := middleware.GetAccountFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}

	ctx, cancel := h.requestContext(c, "/api/v1/users/seller-profile/sync")
	defer cancel()

	result, err := h.sellerFlow.SyncOnboarding(ctx, account, h.clientMetadata(c))
	if err != nil {
		return h.FailureResponse(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Onboarding state synchronized", result)
}
