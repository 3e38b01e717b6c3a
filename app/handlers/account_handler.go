package handlers

import (
	"github.com/amirphl/marketplace-settlement/app/dto"
	"github.com/amirphl/marketplace-settlement/app/middleware"
	businessflow "github.com/amirphl/marketplace-settlement/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// AccountHandlerInterface defines the contract for buyer and seller views
type AccountHandlerInterface interface {
	GetMe(c fiber.Ctx) error
	ListPurchases(c fiber.Ctx) error
	ListEarnings(c fiber.Ctx) error
	GetPayment(c fiber.Ctx) error
	GetSellerStats(c fiber.Ctx) error
}

// AccountHandler serves the caller's own account data
type AccountHandler struct {
	baseHandler
	accountFlow businessflow.AccountFlow
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountFlow businessflow.AccountFlow, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		baseHandler: newBaseHandler(logger),
		accountFlow: accountFlow,
	}
}

// GetMe returns the caller's account
// @Summary Get Me
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.AccountDTO} "Account"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/users/me [get]
func (h *AccountHandler) GetMe(c fiber.Ctx) error {
	account, ok := middleware.GetAccountFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}

	result, err := h.accountFlow.GetMe(c.Context(), account)
	if err != nil {
		return h.FailureResponse(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Account retrieved successfully", result)
}

// ListPurchases lists the caller's payments as a buyer
// @Summary List Purchases
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.PaymentListResponse} "Purchases"
// @Router /api/v1/users/me/purchases [get]
func (h *AccountHandler) ListPurchases(c fiber.Ctx) error {
	var page dto.PaginationRequest
	if handled, err := h.bindQuery(c, &page); handled {
		return err
	}
	account, ok := middleware.GetAccountFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}

	ctx, cancel := h.requestContext(c, "/api/v1/users/me/purchases")
	defer cancel()

	result, err := h.accountFlow.ListPurchases(ctx, account.ID, page)
	if err != nil {
		return h.FailureResponse(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Purchases retrieved successfully", result)
}

// ListEarnings lists completed sales of the caller's ads
// @Summary List Earnings
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.EarningsResponse} "Earnings"
// @Failure 403 {object} dto.APIResponse "Not a seller"
// @Router /api/v1/users/me/earnings [get]
func (h *AccountHandler) ListEarnings(c fiber.Ctx) error {
	var page dto.PaginationRequest
	if handled, err := h.bindQuery(c, &page); handled {
		return err
	}
	account, ok := middleware.GetAccountFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}

	ctx, cancel := h.requestContext(c, "/api/v1/users/me/earnings")
	defer cancel()

	result, err := h.accountFlow.ListEarnings(ctx, account.ID, page)
	if err != nil {
		return h.FailureResponse(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Earnings retrieved successfully", result)
}

// GetPayment shows one payment to its buyer or seller
// @Summary Get Payment
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param paymentId path string true "Payment UUID"
// @Success 200 {object} dto.APIResponse{data=dto.PaymentDetailResponse} "Payment"
// @Failure 404 {object} dto.APIResponse "Payment not found"
// @Router /api/v1/users/payments/{paymentId} [get]
func (h *AccountHandler) GetPayment(c fiber.Ctx) error {
	account, ok := middleware.GetAccountFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}

	ctx, cancel := h.requestContext(c, "/api/v1/users/payments/:paymentId")
	defer cancel()

	result, err := h.accountFlow.GetPayment(ctx, account, c.Params("paymentId"))
	if err != nil {
		return h.FailureResponse(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Payment retrieved successfully", result)
}

// GetSellerStats returns the seller dashboard
// @Summary Get Seller Stats
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SellerStatsResponse} "Stats"
// @Failure 403 {object} dto.APIResponse "Not a seller"
// @Router /api/v1/users/seller-stats [get]
func (h *AccountHandler) GetSellerStats(c fiber.Ctx) error {
	account, ok := middleware.GetAccountFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}

	ctx, cancel := h.requestContext(c, "/api/v1/users/seller-stats")
	defer cancel()

	result, err := h.accountFlow.GetSellerStats(ctx, account.ID)
	if err != nil {
		return h.FailureResponse(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Seller stats retrieved successfully", result)
}
