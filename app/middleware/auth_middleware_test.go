package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirphl/marketplace-settlement/app/dto"
	"github.com/amirphl/marketplace-settlement/app/services"
	businessflow "github.com/amirphl/marketplace-settlement/business_flow"
	"github.com/amirphl/marketplace-settlement/models"
	"github.com/amirphl/marketplace-settlement/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubGuard evaluates the real chain over in-memory accounts
type stubGuard struct {
	accounts map[uint]*models.Account
	err      error
}

func (g *stubGuard) Authorize(_ context.Context, accountID uint, req businessflow.GuardRequirement) (*models.Account, error) {
	if g.err != nil {
		return nil, g.err
	}
	account := g.accounts[accountID]
	if err := businessflow.EvaluateChecks(account, req.Checks()...); err != nil {
		return nil, err
	}
	return account, nil
}

func newTestTokenService(t *testing.T) services.TokenService {
	t.Helper()
	ts, err := services.NewTokenService(15*time.Minute, time.Hour, "test-issuer", "test-audience", false, "", "",
		"test-secret-key-for-jwt-signing-32-chars", services.NewMemoryRevocationStore())
	require.NoError(t, err)
	return ts
}

func newTestApp(t *testing.T, guard *stubGuard, req businessflow.GuardRequirement) (*fiber.App, services.TokenService) {
	t.Helper()
	ts := newTestTokenService(t)
	m := NewAuthMiddleware(ts, guard, zap.NewNop())

	app := fiber.New()
	app.Get("/protected", m.Authenticate(), m.RequireEligibility(req), func(c fiber.Ctx) error {
		account, ok := GetAccountFromContext(c)
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.JSON(fiber.Map{"id": account.ID})
	})
	return app, ts
}

func doGet(t *testing.T, app *fiber.App, authHeader string) (int, dto.APIResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set(fiber.HeaderAuthorization, authHeader)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body dto.APIResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func errorCode(body dto.APIResponse) string {
	detail, _ := body.Error.(map[string]any)
	code, _ := detail["code"].(string)
	return code
}

func TestAuthenticate(t *testing.T) {
	buyer := &models.Account{ID: 1, Role: models.AccountRoleBuyer, IsVerified: true}
	guard := &stubGuard{accounts: map[uint]*models.Account{1: buyer}}
	app, ts := newTestApp(t, guard, businessflow.GuardRequirement{})

	access, refresh, err := ts.GenerateTokens(1, models.AccountRoleBuyer)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"missing header", "", fiber.StatusUnauthorized, "MISSING_AUTHORIZATION_HEADER"},
		{"wrong scheme", "Basic abc", fiber.StatusUnauthorized, "INVALID_AUTHORIZATION_FORMAT"},
		{"garbage token", "Bearer not-a-jwt", fiber.StatusUnauthorized, "TOKEN_INVALID"},
		{"refresh token as access", "Bearer " + refresh, fiber.StatusUnauthorized, "TOKEN_INVALID"},
		{"valid access token", "Bearer " + access, fiber.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doGet(t, app, tt.header)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantCode != "" {
				assert.False(t, body.Success)
				assert.Equal(t, tt.wantCode, errorCode(body))
			}
		})
	}

	t.Run("revoked token", func(t *testing.T) {
		require.NoError(t, ts.RevokeToken(context.Background(), access))
		status, body := doGet(t, app, "Bearer "+access)
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "TOKEN_REVOKED", errorCode(body))
	})
}

func TestRequireEligibility(t *testing.T) {
	seller := models.AccountRoleSeller
	accounts := map[uint]*models.Account{
		1: {ID: 1, Role: models.AccountRoleBuyer, IsVerified: true},
		2: {ID: 2, Role: models.AccountRoleBuyer, IsVerified: true, IsSuspended: true, SuspensionReason: utils.ToPtr("chargebacks")},
		3: {ID: 3, Role: models.AccountRoleBuyer},
		4: {ID: 4, Role: models.AccountRoleAdmin, IsSuspended: true},
	}

	tests := []struct {
		name       string
		accountID  uint
		req        businessflow.GuardRequirement
		wantStatus int
		wantCode   string
	}{
		{"verified buyer passes", 1, businessflow.GuardRequirement{}, fiber.StatusOK, ""},
		{"suspended is forbidden", 2, businessflow.GuardRequirement{}, fiber.StatusForbidden, "ACCOUNT_SUSPENDED"},
		{"unverified is forbidden", 3, businessflow.GuardRequirement{}, fiber.StatusForbidden, "ACCOUNT_NOT_VERIFIED"},
		{"unverified reads own data", 3, businessflow.IdentityRequirement(), fiber.StatusOK, ""},
		{"buyer on seller route", 1, businessflow.GuardRequirement{Role: &seller}, fiber.StatusForbidden, "ROLE_NOT_ALLOWED"},
		{"admin is exempt", 4, businessflow.SellerBankRequirement(), fiber.StatusOK, ""},
		{"deleted account", 9, businessflow.GuardRequirement{}, fiber.StatusUnauthorized, "UNAUTHENTICATED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, ts := newTestApp(t, &stubGuard{accounts: accounts}, tt.req)
			access, _, err := ts.GenerateTokens(tt.accountID, models.AccountRoleBuyer)
			require.NoError(t, err)

			status, body := doGet(t, app, "Bearer "+access)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(body))
			}
		})
	}

	t.Run("suspension reason is surfaced", func(t *testing.T) {
		app, ts := newTestApp(t, &stubGuard{accounts: accounts}, businessflow.GuardRequirement{})
		access, _, err := ts.GenerateTokens(2, models.AccountRoleBuyer)
		require.NoError(t, err)

		_, body := doGet(t, app, "Bearer "+access)
		assert.Contains(t, body.Message, "chargebacks")
	})

	t.Run("lookup failure hides detail", func(t *testing.T) {
		guard := &stubGuard{err: businessflow.NewBusinessError(businessflow.KindInternal, "ACCOUNT_LOOKUP_FAILED", "db down", errors.New("dial tcp: refused"))}
		app, ts := newTestApp(t, guard, businessflow.GuardRequirement{})
		access, _, err := ts.GenerateTokens(1, models.AccountRoleBuyer)
		require.NoError(t, err)

		status, body := doGet(t, app, "Bearer "+access)
		assert.Equal(t, fiber.StatusInternalServerError, status)
		assert.Equal(t, "Internal server error", body.Message)
		assert.Equal(t, "ACCOUNT_LOOKUP_FAILED", errorCode(body))
	})
}

func TestRespondErrorStatuses(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{businessflow.NewBusinessError(businessflow.KindNotFound, "AD_NOT_FOUND", "ad not found", businessflow.ErrAdNotFound), fiber.StatusNotFound},
		{businessflow.NewBusinessError(businessflow.KindInvalidRequest, "INVALID_PRICE", "bad price", businessflow.ErrInvalidPrice), fiber.StatusBadRequest},
		{businessflow.NewBusinessError(businessflow.KindInvalidState, "AD_ALREADY_SOLD", "sold", businessflow.ErrAdAlreadySold), fiber.StatusConflict},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		app := fiber.New()
		app.Get("/", func(c fiber.Ctx) error { return RespondError(c, zap.NewNop(), tt.err) })

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, tt.wantStatus, resp.StatusCode, tt.err.Error())
		_ = resp.Body.Close()
	}
}
