// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"errors"
	"strings"

	"github.com/amirphl/marketplace-settlement/app/dto"
	"github.com/amirphl/marketplace-settlement/app/services"
	businessflow "github.com/amirphl/marketplace-settlement/business_flow"
	"github.com/amirphl/marketplace-settlement/models"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

const (
	localAccountID   = "account_id"
	localAccount     = "account"
	localTokenClaims = "token_claims"
	localAccessToken = "access_token"
)

// AuthMiddleware validates bearer tokens and runs the eligibility guard chain
type AuthMiddleware struct {
	tokenService services.TokenService
	guard        businessflow.EligibilityGuard
	logger       *zap.Logger
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokenService services.TokenService, guard businessflow.EligibilityGuard, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
		guard:        guard,
		logger:       logger,
	}
}

func unauthorized(c fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error:   dto.ErrorDetail{Code: code},
	})
}

// Authenticate validates the JWT and its revocation state. The token only identifies the account.
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return unauthorized(c, "MISSING_AUTHORIZATION_HEADER", "Authorization header is required")
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return unauthorized(c, "INVALID_AUTHORIZATION_FORMAT", "Invalid authorization header format. Expected 'Bearer <token>'")
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			return unauthorized(c, "MISSING_ACCESS_TOKEN", "Access token is required")
		}

		claims, err := m.tokenService.ValidateToken(c.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTokenExpired):
				return unauthorized(c, "TOKEN_EXPIRED", "Access token has expired")
			case errors.Is(err, services.ErrTokenRevoked):
				return unauthorized(c, "TOKEN_REVOKED", "Access token has been revoked")
			default:
				return unauthorized(c, "TOKEN_INVALID", "Invalid access token")
			}
		}
		if claims.TokenType != services.TokenTypeAccess {
			return unauthorized(c, "TOKEN_INVALID", "Invalid access token")
		}

		c.Locals(localAccountID, claims.AccountID)
		c.Locals(localTokenClaims, claims)
		c.Locals(localAccessToken, token)

		return c.Next()
	}
}

// RequireEligibility re-reads the account and evaluates the guard chain for req.
// The fresh account is stored for the handler.
func (m *AuthMiddleware) RequireEligibility(req businessflow.GuardRequirement) fiber.Handler {
	return func(c fiber.Ctx) error {
		accountID, ok := GetAccountIDFromContext(c)
		if !ok {
			return unauthorized(c, "AUTHENTICATION_REQUIRED", "Authentication required")
		}

		account, err := m.guard.Authorize(c.Context(), accountID, req)
		if err != nil {
			return RespondError(c, m.logger, err)
		}

		c.Locals(localAccount, account)
		return c.Next()
	}
}

// GetAccountIDFromContext extracts the authenticated account id
func GetAccountIDFromContext(c fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(localAccountID).(uint)
	return id, ok && id != 0
}

// GetAccountFromContext returns the account loaded by RequireEligibility
func GetAccountFromContext(c fiber.Ctx) (*models.Account, bool) {
	account, ok := c.Locals(localAccount).(*models.Account)
	return account, ok && account != nil
}

// GetAccessTokenFromContext returns the raw bearer token of the request
func GetAccessTokenFromContext(c fiber.Ctx) (string, bool) {
	token, ok := c.Locals(localAccessToken).(string)
	return token, ok
}

// GetTokenClaimsFromContext extracts token claims from the request context
func GetTokenClaimsFromContext(c fiber.Ctx) (*services.TokenClaims, bool) {
	claims, ok := c.Locals(localTokenClaims).(*services.TokenClaims)
	return claims, ok
}
