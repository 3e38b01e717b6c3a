package handlers

import (
	"github.com/amirphl/marketplace-settlement/app/dto"
	"github.com/amirphl/marketplace-settlement/app/middleware"
	businessflow "github.com/amirphl/marketplace-settlement/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// AdHandlerInterface defines the contract for ad handlers
type AdHandlerInterface interface {
	CreateAd(c fiber.Ctx) error
	UpdateAdPrice(c fiber.Ctx) error
	ListMyAds(c fiber.Ctx) error
	GetAd(c fiber.Ctx) error
}

// AdHandler handles ad listing requests
type AdHandler struct {
	baseHandler
	adFlow businessflow.AdFlow
}

// NewAdHandler creates a new ad handler
func NewAdHandler(adFlow businessflow.AdFlow, logger *zap.Logger) *AdHandler {
	return &AdHandler{
		baseHandler: newBaseHandler(logger),
		adFlow:      adFlow,
	}
}

// CreateAd lists a new ad
// @Summary Create Ad
// @Tags Ads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateAdRequest true "Ad data"
// @Success 201 {object} dto.APIResponse{data=dto.AdDTO} "Ad created"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid price"
// @Failure 403 {object} dto.APIResponse "Seller onboarding incomplete"
// @Router /api/v1/ads [post]
func (h *AdHandler) CreateAd(c fiber.Ctx) error {
	var req dto.CreateAdRequest
	if handled, err := h.bindJSON(c, &req); handled {
		return err
	}
	account, ok := middleware.GetAccountFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}

	ctx, cancel := h.requestContext(c, "/api/v1/ads")
	defer cancel()

	result, err := h.adFlow.CreateAd(ctx, account, &req, h.clientMetadata(c))
	if err != nil {
		return h.FailureResponse(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Ad created successfully", result)
}

// UpdateAdPrice reprices an unsold ad
// @Summary Update Ad Price
// @Tags Ads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param adId path string true "Ad UUID"
// @Param request body dto.UpdateAdPriceRequest true "New price"
// @Success 200 {object} dto.APIResponse{data=dto.AdDTO} "Ad repriced"
// @Failure 403 {object} dto.APIResponse "Ad belongs to another seller"
// @Failure 404 {object} dto.APIResponse "Ad not found"
// @Failure 409 {object} dto.APIResponse "Ad already sold"
// @Router /api/v1/ads/{adId}/price [patch]
func (h *AdHandler) UpdateAdPrice(c fiber.Ctx) error {
	var req dto.UpdateAdPriceRequest
	if handled, err := h.bindJSON(c, &req); handled {
		return err
	}
	account, ok := middleware.GetAccountFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}

	ctx, cancel := h.requestContext(c, "/api/v1/ads/:adId/price")
	defer cancel()

	result, err := h.adFlow.UpdateAdPrice(ctx, account, c.Params("adId"), &req, h.clientMetadata(c))
	if err != nil {
		return h.FailureResponse(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Ad price updated successfully", result)
}

// ListMyAds lists the caller's ads
// @Summary List My Ads
// @Tags Ads
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.AdListResponse} "Ads"
// @Router /api/v1/ads/mine [get]
func (h *AdHandler) ListMyAds(c fiber.Ctx) error {
	var page dto.PaginationRequest
	if handled, err := h.bindQuery(c, &page); handled {
		return err
	}
	account, ok := middleware.GetAccountFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}

	ctx, cancel := h.requestContext(c, "/api/v1/ads/mine")
	defer cancel()

	result, err := h.adFlow.ListSellerAds(ctx, account.ID, page)
	if err != nil {
		return h.FailureResponse(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Ads retrieved successfully", result)
}

// GetAd shows a public ad
// @Summary Get Ad
// @Tags Ads
// @Produce json
// @Param adId path string true "Ad UUID"
// @Success 200 {object} dto.APIResponse{data=dto.AdDTO} "Ad"
// @Failure 404 {object} dto.APIResponse "Ad not found"
// @Router /api/v1/ads/{adId} [get]
func (h *AdHandler) GetAd(c fiber.Ctx) error {
	ctx, cancel := h.requestContext(c, "/api/v1/ads/:adId")
	defer cancel()

	result, err := h.adFlow.GetAd(ctx, c.Params("adId"))
	if err != nil {
		return h.FailureResponse(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Ad retrieved successfully", result)
}
