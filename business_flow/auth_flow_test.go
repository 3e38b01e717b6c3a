package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/marketplace-settlement/app/dto"
	"github.com/amirphl/marketplace-settlement/app/services"
	"github.com/amirphl/marketplace-settlement/models"
	"github.com/amirphl/marketplace-settlement/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthFlow(t *testing.T, f *fixture, autoVerify bool) (AuthFlow, services.TokenService) {
	t.Helper()
	tokens, err := services.NewTokenService(time.Hour, 24*time.Hour, "marketplace", "marketplace-api", false, "", "", "test-secret", nil)
	require.NoError(t, err)
	return NewAuthFlow(f.accounts, f.audits, tokens, AuthSettings{BcryptCost: bcrypt.MinCost, AccessTokenTTL: time.Hour, AutoVerify: autoVerify}), tokens
}

func registerRequest(email, role string) *dto.RegisterRequest {
	return &dto.RegisterRequest{Email: email, Password: "SecurePass123!", Name: "Jane Doe", Role: role}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an unverified account and signs it in", func(t *testing.T) {
		f := newFixture(t)
		flow, tokens := newAuthFlow(t, f, false)

		resp, err := flow.Register(ctx, registerRequest("  Jane@Example.com ", "SELLER"), nil)
		require.NoError(t, err)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, 3600, resp.ExpiresIn)
		assert.Equal(t, "jane@example.com", resp.Account.Email)
		assert.Equal(t, "SELLER", resp.Account.Role)
		assert.False(t, resp.Account.IsVerified)

		claims, err := tokens.ValidateToken(ctx, resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, resp.Account.ID, claims.AccountID)
		assert.Equal(t, services.TokenTypeAccess, claims.TokenType)

		stored, _ := f.accounts.ByEmail(ctx, "jane@example.com")
		require.NotNil(t, stored)
		assert.NotEqual(t, "SecurePass123!", stored.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("SecurePass123!")))
		assert.Contains(t, f.store.auditActions(), models.AuditActionRegistered)
	})

	t.Run("auto verify", func(t *testing.T) {
		f := newFixture(t)
		flow, _ := newAuthFlow(t, f, true)

		resp, err := flow.Register(ctx, registerRequest("buyer@example.com", "BUYER"), nil)
		require.NoError(t, err)
		assert.True(t, resp.Account.IsVerified)
	})

	t.Run("admin cannot be self assigned", func(t *testing.T) {
		f := newFixture(t)
		flow, _ := newAuthFlow(t, f, false)

		_, err := flow.Register(ctx, registerRequest("root@example.com", "ADMIN"), nil)
		assert.ErrorIs(t, err, ErrInvalidRole)
		assert.Equal(t, KindInvalidRequest, KindOf(err))
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newFixture(t)
		flow, _ := newAuthFlow(t, f, false)

		_, err := flow.Register(ctx, registerRequest("dup@example.com", "BUYER"), nil)
		require.NoError(t, err)
		_, err = flow.Register(ctx, registerRequest("DUP@example.com", "SELLER"), nil)
		assert.ErrorIs(t, err, ErrEmailAlreadyExists)
		assert.Equal(t, KindInvalidState, KindOf(err))
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	flow, _ := newAuthFlow(t, f, true)

	_, err := flow.Register(ctx, registerRequest("seller@example.com", "SELLER"), nil)
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := flow.Login(ctx, &dto.LoginRequest{Email: "Seller@example.com", Password: "SecurePass123!"}, nil)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.NotEmpty(t, resp.Account.LastLoginAt)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		_, wrong := flow.Login(ctx, &dto.LoginRequest{Email: "seller@example.com", Password: "nope-nope"}, nil)
		_, unknown := flow.Login(ctx, &dto.LoginRequest{Email: "ghost@example.com", Password: "SecurePass123!"}, nil)

		for _, err := range []error{wrong, unknown} {
			assert.ErrorIs(t, err, ErrIncorrectPassword)
			assert.Equal(t, KindUnauthorized, KindOf(err))
		}
		assert.Equal(t, wrong.Error(), unknown.Error())
		assert.Contains(t, f.store.auditActions(), models.AuditActionLoginFailed)
	})

	t.Run("suspended account", func(t *testing.T) {
		account, _ := f.accounts.ByEmail(ctx, "seller@example.com")
		require.NoError(t, f.accounts.UpdateSuspension(ctx, account.ID, true, utils.ToPtr("fraud")))
		t.Cleanup(func() { _ = f.accounts.UpdateSuspension(ctx, account.ID, false, nil) })

		_, err := flow.Login(ctx, &dto.LoginRequest{Email: "seller@example.com", Password: "SecurePass123!"}, nil)
		assert.ErrorIs(t, err, ErrAccountSuspended)
		assert.Equal(t, KindForbidden, KindOf(err))
	})
}

func TestRefreshAndLogout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	flow, tokens := newAuthFlow(t, f, true)

	registered, err := flow.Register(ctx, registerRequest("buyer@example.com", "BUYER"), nil)
	require.NoError(t, err)

	refreshed, err := flow.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: registered.RefreshToken}, nil)
	require.NoError(t, err)
	assert.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)

	_, err = flow.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: registered.RefreshToken}, nil)
	assert.Equal(t, KindUnauthorized, KindOf(err), "a rotated refresh token cannot be reused")

	require.NoError(t, flow.Logout(ctx, &dto.LogoutRequest{AccessToken: refreshed.AccessToken, RefreshToken: refreshed.RefreshToken}, nil))

	_, err = tokens.ValidateToken(ctx, refreshed.AccessToken)
	assert.ErrorIs(t, err, services.ErrTokenRevoked)
	_, err = flow.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: refreshed.RefreshToken}, nil)
	assert.Equal(t, KindUnauthorized, KindOf(err))

	err = flow.Logout(ctx, &dto.LogoutRequest{AccessToken: refreshed.AccessToken}, nil)
	assert.Equal(t, KindUnauthorized, KindOf(err))
	assert.Contains(t, f.store.auditActions(), models.AuditActionLogout)
}

func TestRefreshRejectsSuspendedAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	flow, _ := newAuthFlow(t, f, true)

	registered, err := flow.Register(ctx, registerRequest("seller@example.com", "SELLER"), nil)
	require.NoError(t, err)
	require.NoError(t, f.accounts.UpdateSuspension(ctx, registered.Account.ID, true, utils.ToPtr("chargebacks")))

	_, err = flow.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: registered.RefreshToken}, nil)
	assert.ErrorIs(t, err, ErrAccountSuspended)
}
