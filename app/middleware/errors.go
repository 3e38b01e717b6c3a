package middleware

import (
	"errors"

	"github.com/amirphl/marketplace-settlement/app/dto"
	businessflow "github.com/amirphl/marketplace-settlement/business_flow"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"go.uber.org/zap"
)

// RespondError renders a business error with the status of its kind.
// Internal errors are logged in full and answered with a generic message.
func RespondError(c fiber.Ctx, logger *zap.Logger, err error) error {
	kind := businessflow.KindOf(err)

	code, message := "INTERNAL_ERROR", "Internal server error"
	var be *businessflow.BusinessError
	if errors.As(err, &be) && kind != businessflow.KindInternal {
		code, message = be.Code, be.Message
	} else if kind != businessflow.KindInternal {
		code, message = kind.String(), err.Error()
	}

	if kind == businessflow.KindInternal {
		if be != nil {
			code = be.Code
		}
		logger.Error("Request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("request_id", RequestID(c)),
			zap.String("code", code),
			zap.Error(err))
	}

	return c.Status(kind.HTTPStatus()).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error:   dto.ErrorDetail{Code: code},
	})
}

// RequestID is the id assigned by the requestid middleware
func RequestID(c fiber.Ctx) string {
	if id := requestid.FromContext(c); id != "" {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}
