package businessflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/marketplace-settlement/app/dto"
	"github.com/amirphl/marketplace-settlement/app/services"
	"github.com/amirphl/marketplace-settlement/models"
	"github.com/amirphl/marketplace-settlement/repository"
	"github.com/amirphl/marketplace-settlement/utils"
	"golang.org/x/crypto/bcrypt"
)

// AuthFlow handles registration, login and token lifecycle
type AuthFlow interface {
	Register(ctx context.Context, req *dto.RegisterRequest, metadata *ClientMetadata) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.AuthResponse, error)
	Logout(ctx context.Context, req *dto.LogoutRequest, metadata *ClientMetadata) error
}

// AuthSettings tune password hashing and new accounts
type AuthSettings struct {
	BcryptCost     int
	AccessTokenTTL time.Duration
	// AutoVerify marks new accounts verified at registration
	AutoVerify bool
}

// AuthFlowImpl implements the auth business flow
type AuthFlowImpl struct {
	accountRepo  repository.AccountRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.TokenService
	settings     AuthSettings
}

// NewAuthFlow creates a new auth flow instance
func NewAuthFlow(
	accountRepo repository.AccountRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	settings AuthSettings,
) AuthFlow {
	if settings.BcryptCost == 0 {
		settings.BcryptCost = bcrypt.DefaultCost
	}
	if settings.AccessTokenTTL == 0 {
		settings.AccessTokenTTL = utils.AccessTokenTTL
	}
	return &AuthFlowImpl{
		accountRepo:  accountRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
		settings:     settings,
	}
}

// Register creates a buyer or seller account and signs it in
func (af *AuthFlowImpl) Register(ctx context.Context, req *dto.RegisterRequest, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	role := models.AccountRole(req.Role)
	if role != models.AccountRoleBuyer && role != models.AccountRoleSeller {
		return nil, NewBusinessError(KindInvalidRequest, "INVALID_ROLE", "role must be BUYER or SELLER", ErrInvalidRole)
	}

	email := utils.NormalizeEmail(req.Email)
	existing, err := af.accountRepo.ByEmail(ctx, email)
	if err != nil {
		return nil, internalError("ACCOUNT_LOOKUP_FAILED", err)
	}
	if existing != nil {
		return nil, NewBusinessError(KindInvalidState, "EMAIL_ALREADY_EXISTS", "email already exists", ErrEmailAlreadyExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), af.settings.BcryptCost)
	if err != nil {
		return nil, internalError("PASSWORD_HASH_FAILED", err)
	}

	account := &models.Account{
		Email:        email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         role,
		IsVerified:   af.settings.AutoVerify,
	}
	if err := af.accountRepo.Save(ctx, account); err != nil {
		return nil, internalError("ACCOUNT_CREATE_FAILED", err)
	}

	_ = createAuditLog(ctx, af.auditRepo, &account.ID, models.AuditActionRegistered,
		fmt.Sprintf("Account registered as %s", role), true, nil, metadata, nil)

	return af.issueTokens(account)
}

// Login verifies the password and issues a token pair
func (af *AuthFlowImpl) Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	account, err := af.accountRepo.ByEmail(ctx, utils.NormalizeEmail(req.Email))
	if err != nil {
		return nil, internalError("ACCOUNT_LOOKUP_FAILED", err)
	}

	fail := func(err error) (*dto.AuthResponse, error) {
		var accountID *uint
		if account != nil {
			accountID = &account.ID
		}
		errMsg := err.Error()
		_ = createAuditLog(ctx, af.auditRepo, accountID, models.AuditActionLoginFailed,
			fmt.Sprintf("Login failed for %s", req.Email), false, &errMsg, metadata, nil)
		return nil, err
	}

	if account == nil {
		return fail(NewBusinessError(KindUnauthorized, "INVALID_CREDENTIALS", "incorrect email or password", ErrIncorrectPassword))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return fail(NewBusinessError(KindUnauthorized, "INVALID_CREDENTIALS", "incorrect email or password", ErrIncorrectPassword))
	}
	if err := EvaluateChecks(account, CheckNotSuspended); err != nil {
		return fail(err)
	}

	now := utils.UTCNow()
	if err := af.accountRepo.TouchLastLogin(ctx, account.ID, now); err != nil {
		return nil, internalError("LOGIN_UPDATE_FAILED", err)
	}
	account.LastLoginAt = &now

	_ = createAuditLog(ctx, af.auditRepo, &account.ID, models.AuditActionLoginSuccess,
		"User logged in successfully", true, nil, metadata, nil)

	return af.issueTokens(account)
}

// RefreshToken rotates a refresh token. The old one is revoked.
func (af *AuthFlowImpl) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	claims, err := af.tokenService.ValidateToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError(KindUnauthorized, "INVALID_REFRESH_TOKEN", "invalid or expired refresh token", err)
	}

	account, err := af.accountRepo.ByIDWithProfile(ctx, claims.AccountID)
	if err != nil {
		return nil, internalError("ACCOUNT_LOOKUP_FAILED", err)
	}
	if err := EvaluateChecks(account, CheckNotSuspended); err != nil {
		return nil, err
	}

	access, refresh, err := af.tokenService.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, services.ErrTokenRevoked) || errors.Is(err, services.ErrTokenInvalid) || errors.Is(err, services.ErrTokenExpired) {
			return nil, NewBusinessError(KindUnauthorized, "INVALID_REFRESH_TOKEN", "invalid or expired refresh token", err)
		}
		return nil, internalError("TOKEN_REFRESH_FAILED", err)
	}

	return &dto.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(af.settings.AccessTokenTTL.Seconds()),
		Account:      ToAccountDTO(account),
	}, nil
}

// Logout revokes the access token and, when given, the refresh token
func (af *AuthFlowImpl) Logout(ctx context.Context, req *dto.LogoutRequest, metadata *ClientMetadata) error {
	claims, err := af.tokenService.ValidateToken(ctx, req.AccessToken)
	if err != nil {
		return NewBusinessError(KindUnauthorized, "INVALID_TOKEN", "invalid or expired token", err)
	}

	if err := af.tokenService.RevokeToken(ctx, req.AccessToken); err != nil {
		return internalError("TOKEN_REVOKE_FAILED", err)
	}
	if req.RefreshToken != "" {
		if err := af.tokenService.RevokeToken(ctx, req.RefreshToken); err != nil {
			return NewBusinessError(KindInvalidRequest, "INVALID_REFRESH_TOKEN", "invalid refresh token", err)
		}
	}

	_ = createAuditLog(ctx, af.auditRepo, &claims.AccountID, models.AuditActionLogout,
		"User logged out", true, nil, metadata, nil)
	return nil
}

func (af *AuthFlowImpl) issueTokens(account *models.Account) (*dto.AuthResponse, error) {
	access, refresh, err := af.tokenService.GenerateTokens(account.ID, account.Role)
	if err != nil {
		return nil, internalError("TOKEN_GENERATION_FAILED", err)
	}
	return &dto.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(af.settings.AccessTokenTTL.Seconds()),
		Account:      ToAccountDTO(account),
	}, nil
}
