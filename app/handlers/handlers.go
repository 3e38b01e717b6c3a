// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/marketplace-settlement/app/dto"
	"github.com/amirphl/marketplace-settlement/app/middleware"
	businessflow "github.com/amirphl/marketplace-settlement/business_flow"
	"github.com/amirphl/marketplace-settlement/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "len":
		return err.Field() + " must be exactly " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "uuid":
		return err.Field() + " must be a valid UUID"
	case "url":
		return err.Field() + " must be a valid URL"
	case "alpha":
		return err.Field() + " must contain only letters"
	case "datetime":
		return err.Field() + " must be a date in format " + err.Param()
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

// baseHandler holds what every handler shares: validation, error rendering, request context
type baseHandler struct {
	validator *validator.Validate
	logger    *zap.Logger
}

func newBaseHandler(logger *zap.Logger) baseHandler {
	return baseHandler{validator: validator.New(), logger: logger}
}

func (h *baseHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *baseHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// FailureResponse renders a business flow error
func (h *baseHandler) FailureResponse(c fiber.Ctx, err error) error {
	return middleware.RespondError(c, h.logger, err)
}

// validate runs the struct validator and renders the field messages on failure.
// A nil return with handled=true means the response is already written.
func (h *baseHandler) validate(c fiber.Ctx, req any) (handled bool, err error) {
	verr := h.validator.Struct(req)
	if verr == nil {
		return false, nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(verr, &fieldErrors) {
		return true, h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", verr.Error())
	}
	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, getValidationErrorMessage(fe))
	}
	return true, h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", messages)
}

// bindJSON decodes and validates the body into req
func (h *baseHandler) bindJSON(c fiber.Ctx, req any) (handled bool, err error) {
	if err := c.Bind().JSON(req); err != nil {
		return true, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	return h.validate(c, req)
}

// bindQuery decodes and validates query parameters into req
func (h *baseHandler) bindQuery(c fiber.Ctx, req any) (handled bool, err error) {
	if err := c.Bind().Query(req); err != nil {
		return true, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	return h.validate(c, req)
}

// clientMetadata collects the caller's network identity for audit logs
func (h *baseHandler) clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get(fiber.HeaderUserAgent))
	metadata.SetRequestID(middleware.RequestID(c))
	return metadata
}

// requestContext bounds a flow call with the default timeout and carries request-scoped values
func (h *baseHandler) requestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(c.Context(), utils.DefaultRequestTimeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, middleware.RequestID(c))
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	return ctx, cancel
}

// unauthenticated answers requests that reached a handler without a guarded account
func (h *baseHandler) unauthenticated(c fiber.Ctx) error {
	return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
}
