package handlers

import (
	"fmt"
	"strconv"

	"github.com/amirphl/marketplace-settlement/app/dto"
	"github.com/amirphl/marketplace-settlement/app/middleware"
	businessflow "github.com/amirphl/marketplace-settlement/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// AdminHandlerInterface defines the contract for admin handlers
type AdminHandlerInterface interface {
	SetSuspension(c fiber.Ctx) error
	SetVerification(c fiber.Ctx) error
	ExportPayments(c fiber.Ctx) error
}

// AdminHandler handles moderation and reporting requests
type AdminHandler struct {
	baseHandler
	adminFlow businessflow.AdminFlow
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminFlow businessflow.AdminFlow, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		baseHandler: newBaseHandler(logger),
		adminFlow:   adminFlow,
	}
}

func (h *AdminHandler) accountIDParam(c fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("accountId"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// SetSuspension suspends or reinstates an account
// @Summary Set Account Suspension
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param accountId path int true "Account ID"
// @Param request body dto.SetSuspensionRequest true "Suspension state"
// @Success 200 {object} dto.APIResponse{data=dto.AccountDTO} "Account updated"
// @Failure 400 {object} dto.APIResponse "Missing reason"
// @Failure 403 {object} dto.APIResponse "Not an admin or target is an admin"
// @Failure 404 {object} dto.APIResponse "Account not found"
// @Router /api/v1/admin/accounts/{accountId}/suspension [patch]
func (h *AdminHandler) SetSuspension(c fiber.Ctx) error {
	accountID, ok := h.accountIDParam(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid account id", "INVALID_ACCOUNT_ID", nil)
	}
	var req dto.SetSuspensionRequest
	if handled, err := h.bindJSON(c, &req); handled {
		return err
	}
	admin, ok := middleware.GetAccountFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}

	ctx, cancel := h.requestContext(c, "/api/v1/admin/accounts/:accountId/suspension")
	defer cancel()

	result, err := h.adminFlow.SetSuspension(ctx, admin, accountID, &req, h.clientMetadata(c))
	if err != nil {
		return h.FailureResponse(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Account suspension updated", result)
}

// SetVerification marks an account verified or unverified
// @Summary Set Account Verification
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param accountId path int true "Account ID"
// @Param request body dto.SetVerificationRequest true "Verification state"
// @Success 200 {object} dto.APIResponse{data=dto.AccountDTO} "Account updated"
// @Failure 404 {object} dto.APIResponse "Account not found"
// @Router /api/v1/admin/accounts/{accountId}/verification [patch]
func (h *AdminHandler) SetVerification(c fiber.Ctx) error {
	accountID, ok := h.accountIDParam(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid account id", "INVALID_ACCOUNT_ID", nil)
	}
	var req dto.SetVerificationRequest
	if handled, err := h.bindJSON(c, &req); handled {
		return err
	}
	admin, ok := middleware.GetAccountFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}

	ctx, cancel := h.requestContext(c, "/api/v1/admin/accounts/:accountId/verification")
	defer cancel()

	result, err := h.adminFlow.SetVerification(ctx, admin, accountID, &req, h.clientMetadata(c))
	if err != nil {
		return h.FailureResponse(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Account verification updated", result)
}

// ExportPayments downloads payments as an xlsx workbook
// @Summary Export Payments
// @Tags Admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param status query string false "PENDING, COMPLETED or FAILED"
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Success 200 {file} file "Workbook"
// @Failure 400 {object} dto.APIResponse "Invalid filter"
// @Router /api/v1/admin/payments/export [get]
func (h *AdminHandler) ExportPayments(c fiber.Ctx) error {
	var req dto.ExportPaymentsRequest
	if handled, err := h.bindQuery(c, &req); handled {
		return err
	}

	ctx, cancel := h.requestContext(c, "/api/v1/admin/payments/export")
	defer cancel()

	file, err := h.adminFlow.ExportPayments(ctx, &req)
	if err != nil {
		return h.FailureResponse(c, err)
	}

	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Filename))
	return c.Status(fiber.StatusOK).Send(file.Content)
}
