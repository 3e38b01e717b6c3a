package businessflow

import (
	"context"
	"testing"

	"github.com/amirphl/marketplace-settlement/app/dto"
	"github.com/amirphl/marketplace-settlement/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// payment stores a settled or failed sale of ad to buyer
func (f *fixture) payment(ad *models.Ad, buyerID uint, total string, status models.PaymentStatus) *models.Payment {
	split, err := ComputeSplit(decimal.RequireFromString(total), decimal.NewFromInt(10))
	if err != nil {
		panic(err)
	}
	p := &models.Payment{
		TransactionID: "pi_" + uuid.NewString()[:8],
		TotalAmount:   split.Total(),
		SellerAmount:  split.Seller(),
		AdminFee:      split.Fee(),
		Currency:      "usd",
		Status:        status,
		BuyerID:       buyerID,
		AdID:          ad.ID,
	}
	_ = f.payments.Save(context.Background(), p)
	return p
}

func TestAccountFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	flow := NewAccountFlow(f.ads, f.payments, "usd")

	seller := f.readySeller()
	buyer := f.account(models.AccountRoleBuyer)
	stranger := f.account(models.AccountRoleBuyer)

	sold := f.ad(seller.ID, "100.00")
	_, _ = f.ads.MarkSold(ctx, sold.ID, buyer.ID, sold.CreatedAt)
	other := f.ad(seller.ID, "20.00")
	f.ad(seller.ID, "5.00")

	settled := f.payment(sold, buyer.ID, "100.00", models.PaymentStatusCompleted)
	failed := f.payment(other, buyer.ID, "20.00", models.PaymentStatusFailed)

	t.Run("purchases include failed payments without the split", func(t *testing.T) {
		list, err := flow.ListPurchases(ctx, buyer.ID, dto.PaginationRequest{})
		require.NoError(t, err)
		require.Len(t, list.Items, 2)
		assert.Equal(t, int64(2), list.Pagination.Total)
		for _, item := range list.Items {
			assert.Nil(t, item.SellerAmount)
		}
	})

	t.Run("earnings count completed sales only", func(t *testing.T) {
		earnings, err := flow.ListEarnings(ctx, seller.ID, dto.PaginationRequest{})
		require.NoError(t, err)
		require.Len(t, earnings.Items, 1)
		assert.Equal(t, settled.UUID.String(), earnings.Items[0].UUID)
		require.NotNil(t, earnings.Items[0].SellerAmount)
		assert.Equal(t, "90.00", *earnings.Items[0].SellerAmount)
		assert.Equal(t, "90.00", earnings.TotalIncome)
	})

	t.Run("payment detail by viewer", func(t *testing.T) {
		asBuyer, err := flow.GetPayment(ctx, buyer, settled.UUID.String())
		require.NoError(t, err)
		assert.Equal(t, "BUYER", asBuyer.ViewerRole)
		assert.Nil(t, asBuyer.Payment.SellerAmount)
		assert.Nil(t, asBuyer.Payment.AdminFee)
		assert.Equal(t, "100.00", asBuyer.Payment.TotalAmount)

		asSeller, err := flow.GetPayment(ctx, seller, settled.UUID.String())
		require.NoError(t, err)
		assert.Equal(t, "SELLER", asSeller.ViewerRole)
		assert.Equal(t, "90.00", *asSeller.Payment.SellerAmount)
		assert.Equal(t, "10.00", *asSeller.Payment.AdminFee)
		require.NotNil(t, asSeller.Payment.Buyer)
		assert.Equal(t, buyer.ID, asSeller.Payment.Buyer.ID)

		asAdmin, err := flow.GetPayment(ctx, f.account(models.AccountRoleAdmin), failed.UUID.String())
		require.NoError(t, err)
		assert.Equal(t, "ADMIN", asAdmin.ViewerRole)

		_, err = flow.GetPayment(ctx, stranger, settled.UUID.String())
		assert.ErrorIs(t, err, ErrPaymentNotFound)
		_, err = flow.GetPayment(ctx, buyer, uuid.NewString())
		assert.ErrorIs(t, err, ErrPaymentNotFound)
		_, err = flow.GetPayment(ctx, buyer, "x")
		assert.ErrorIs(t, err, ErrInvalidPaymentID)
	})

	t.Run("seller stats", func(t *testing.T) {
		stats, err := flow.GetSellerStats(ctx, seller.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.TotalAds)
		assert.Equal(t, int64(1), stats.SoldAds)
		assert.Equal(t, int64(2), stats.ActiveAds)
		assert.Equal(t, "90.00", stats.TotalIncome)
		assert.Equal(t, "usd", stats.Currency)
	})

	t.Run("me", func(t *testing.T) {
		withProfile, _ := f.accounts.ByIDWithProfile(ctx, seller.ID)
		me, err := flow.GetMe(ctx, withProfile)
		require.NoError(t, err)
		require.NotNil(t, me.SellerProfile)
		assert.True(t, me.SellerProfile.PaymentReady)
	})
}
