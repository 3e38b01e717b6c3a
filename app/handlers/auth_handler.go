package handlers

import (
	"github.com/amirphl/marketplace-settlement/app/dto"
	"github.com/amirphl/marketplace-settlement/app/middleware"
	businessflow "github.com/amirphl/marketplace-settlement/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// AuthHandlerInterface defines the contract for authentication handlers
type AuthHandlerInterface interface {
	Register(c fiber.Ctx) error
	Login(c fiber.Ctx) error
	RefreshToken(c fiber.Ctx) error
	Logout(c fiber.Ctx) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	baseHandler
	authFlow businessflow.AuthFlow
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authFlow businessflow.AuthFlow, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(logger),
		authFlow:    authFlow,
	}
}

// Register handles account registration
// @Summary Register
// @Description Register a buyer or seller account and receive a token pair
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration data"
// @Success 201 {object} dto.APIResponse{data=dto.AuthResponse} "Account registered"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Email already exists"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var req dto.RegisterRequest
	if handled, err := h.bindJSON(c, &req); handled {
		return err
	}

	ctx, cancel := h.requestContext(c, "/api/v1/auth/register")
	defer cancel()

	result, err := h.authFlow.Register(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.FailureResponse(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Account registered successfully", result)
}

// Login handles password login
// @Summary Login
// @Description Authenticate with email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Login successful"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Incorrect email or password"
// @Failure 403 {object} dto.APIResponse "Account suspended"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req dto.LoginRequest
	if handled, err := h.bindJSON(c, &req); handled {
		return err
	}

	ctx, cancel := h.requestContext(c, "/api/v1/auth/login")
	defer cancel()

	result, err := h.authFlow.Login(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.FailureResponse(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Login successful", result)
}

// RefreshToken rotates a refresh token
// @Summary Refresh Token
// @Description Exchange a refresh token for a new token pair
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Token refreshed"
// @Failure 401 {object} dto.APIResponse "Invalid or expired refresh token"
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if handled, err := h.bindJSON(c, &req); handled {
		return err
	}

	ctx, cancel := h.requestContext(c, "/api/v1/auth/refresh")
	defer cancel()

	result, err := h.authFlow.RefreshToken(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.FailureResponse(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Token refreshed successfully", result)
}

// Logout revokes the caller's tokens
// @Summary Logout
// @Description Revoke the access token and optionally the refresh token
// @Tags Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.LogoutRequest false "Refresh token to revoke"
// @Success 200 {object} dto.APIResponse "Logged out"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	var req dto.LogoutRequest
	if len(c.Body()) > 0 {
		if handled, err := h.bindJSON(c, &req); handled {
			return err
		}
	}

	token, ok := middleware.GetAccessTokenFromContext(c)
	if !ok {
		return h.unauthenticated(c)
	}
	req.AccessToken = token

	ctx, cancel := h.requestContext(c, "/api/v1/auth/logout")
	defer cancel()

	if err := h.authFlow.Logout(ctx, &req, h.clientMetadata(c)); err != nil {
		return h.FailureResponse(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Logged out successfully", nil)
}
