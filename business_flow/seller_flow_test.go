package businessflow

import (
	"context"
	"errors"
	"testing"

	"github.com/amirphl/marketplace-settlement/app/dto"
	"github.com/amirphl/marketplace-settlement/app/services"
	"github.com/amirphl/marketplace-settlement/models"
	"github.com/amirphl/marketplace-settlement/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func (f *fixture) sellerFlow() SellerFlow {
	return NewSellerFlow(f.profiles, f.audits, f.processor, zap.NewNop())
}

func profileRequest() *dto.CreateSellerProfileRequest {
	return &dto.CreateSellerProfileRequest{
		CompanyName: "Shazan Tech Ltd",
		Address:     "123 Business Avenue",
		City:        "Dhaka",
		State:       "Dhaka Division",
		Zip:         "1212",
		Country:     "bd",
	}
}

func TestCreateSellerProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("opens the payout account", func(t *testing.T) {
		f := newFixture(t)
		seller := f.account(models.AccountRoleSeller)

		profile, err := f.sellerFlow().CreateSellerProfile(ctx, seller, profileRequest(), nil)
		require.NoError(t, err)
		assert.Equal(t, "BD", profile.Country)
		require.NotNil(t, profile.ProcessorAccountID)
		assert.Equal(t, "acct_test_1", *profile.ProcessorAccountID)
		assert.False(t, profile.PaymentReady, "no bank until onboarding completes")

		stored, _ := f.profiles.ByAccountID(ctx, seller.ID)
		require.NotNil(t, stored)
		assert.True(t, stored.HasProcessorAccount())
		assert.Contains(t, f.store.auditActions(), models.AuditActionSellerProfileCreated)
	})

	t.Run("only once", func(t *testing.T) {
		f := newFixture(t)
		seller := f.account(models.AccountRoleSeller)
		_, err := f.sellerFlow().CreateSellerProfile(ctx, seller, profileRequest(), nil)
		require.NoError(t, err)

		_, err = f.sellerFlow().CreateSellerProfile(ctx, seller, profileRequest(), nil)
		assert.ErrorIs(t, err, ErrSellerProfileExists)
		assert.Equal(t, KindInvalidState, KindOf(err))
	})

	t.Run("processor rejection stores nothing", func(t *testing.T) {
		f := newFixture(t)
		f.processor.connectedAccountErr = &services.ProcessorError{Code: "invalid_country", Message: "Country BD is not supported."}
		seller := f.account(models.AccountRoleSeller)

		_, err := f.sellerFlow().CreateSellerProfile(ctx, seller, profileRequest(), nil)
		assert.ErrorIs(t, err, ErrProcessorRejected)
		assert.Equal(t, KindInvalidRequest, KindOf(err))

		stored, _ := f.profiles.ByAccountID(ctx, seller.ID)
		assert.Nil(t, stored)
	})

	t.Run("store failure logs the orphaned payout account", func(t *testing.T) {
		f := newFixture(t)
		f.store.failProfileSave = errors.New("connection refused")
		core, logs := observer.New(zap.ErrorLevel)
		flow := NewSellerFlow(f.profiles, f.audits, f.processor, zap.New(core))
		seller := f.account(models.AccountRoleSeller)

		_, err := flow.CreateSellerProfile(ctx, seller, profileRequest(), nil)
		assert.Equal(t, KindInternal, KindOf(err))

		entries := logs.FilterField(zap.String("processor_account_id", "acct_test_1")).All()
		require.Len(t, entries, 1)
		assert.Equal(t, zap.ErrorLevel, entries[0].Level)
	})
}

func TestUpdateSellerProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seller := f.readySeller()

	profile, err := f.sellerFlow().UpdateSellerProfile(ctx, seller, &dto.UpdateSellerProfileRequest{
		City:        utils.ToPtr("Chicago"),
		CompanyName: utils.ToPtr("Acme Two"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Chicago", profile.City)
	assert.Equal(t, "Acme Two", profile.CompanyName)
	assert.Equal(t, "1 Main St", profile.Address)
	assert.True(t, profile.PaymentReady)

	stranger := f.account(models.AccountRoleSeller)
	_, err = f.sellerFlow().UpdateSellerProfile(ctx, stranger, &dto.UpdateSellerProfileRequest{City: utils.ToPtr("X")}, nil)
	assert.ErrorIs(t, err, ErrSellerProfileMissing)
}

func TestSellerOnboarding(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seller := f.account(models.AccountRoleSeller)
	flow := f.sellerFlow()

	_, err := flow.GetOnboardingLink(ctx, seller)
	assert.ErrorIs(t, err, ErrSellerProfileMissing)

	_, err = flow.CreateSellerProfile(ctx, seller, profileRequest(), nil)
	require.NoError(t, err)

	link, err := flow.GetOnboardingLink(ctx, seller)
	require.NoError(t, err)
	assert.Contains(t, link.URL, "acct_test_1")

	pending, err := flow.SyncOnboarding(ctx, seller, nil)
	require.NoError(t, err)
	assert.False(t, pending.PayoutsEnabled)
	assert.False(t, pending.Profile.PaymentReady)

	f.processor.account = &services.ConnectedAccount{
		ID:               "acct_test_1",
		PayoutsEnabled:   true,
		DetailsSubmitted: true,
		Bank:             &services.ExternalBank{ID: "ba_123", BankName: "STRIPE TEST BANK", Last4: "6789", Country: "BD", Currency: "bdt"},
	}
	synced, err := flow.SyncOnboarding(ctx, seller, nil)
	require.NoError(t, err)
	assert.True(t, synced.PayoutsEnabled)
	assert.True(t, synced.Profile.PaymentReady)
	require.NotNil(t, synced.Profile.Bank)
	assert.Equal(t, "6789", synced.Profile.Bank.Last4)

	account, _ := f.accounts.ByIDWithProfile(ctx, seller.ID)
	assert.NoError(t, EvaluateChecks(account, SellerBankRequirement().Checks()...))
}
