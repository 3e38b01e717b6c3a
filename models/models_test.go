package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAdResolvedPrice(t *testing.T) {
	price := decimal.RequireFromString("100.00")
	release := decimal.RequireFromString("80.50")
	zero := decimal.Zero

	tests := []struct {
		name   string
		ad     Ad
		want   string
		wantOK bool
	}{
		{name: "price wins", ad: Ad{Price: &price, ReleasePrice: &release}, want: "100", wantOK: true},
		{name: "falls back to release price", ad: Ad{ReleasePrice: &release}, want: "80.5", wantOK: true},
		{name: "zero price falls back to release price", ad: Ad{Price: &zero, ReleasePrice: &release}, want: "80.5", wantOK: true},
		{name: "zero prices are unset", ad: Ad{Price: &zero, ReleasePrice: &zero}, want: "0", wantOK: false},
		{name: "no price at all", ad: Ad{}, want: "0", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.ad.ResolvedPrice()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestSellerProfileIsPaymentReady(t *testing.T) {
	acct := "acct_123"
	empty := ""

	assert.False(t, (&SellerProfile{}).IsPaymentReady())
	assert.False(t, (&SellerProfile{ProcessorAccountID: &acct}).IsPaymentReady())
	assert.False(t, (&SellerProfile{ProcessorAccountID: &empty, SellerBank: &SellerBank{}}).IsPaymentReady())
	assert.False(t, (&SellerProfile{SellerBank: &SellerBank{}}).IsPaymentReady())
	assert.True(t, (&SellerProfile{ProcessorAccountID: &acct, SellerBank: &SellerBank{}}).IsPaymentReady())
}

func TestAccountRole(t *testing.T) {
	assert.True(t, AccountRoleBuyer.Valid())
	assert.True(t, AccountRoleSeller.Valid())
	assert.True(t, AccountRoleAdmin.Valid())
	assert.False(t, AccountRole("OWNER").Valid())

	assert.True(t, (&Account{Role: AccountRoleAdmin}).IsAdmin())
	assert.False(t, (&Account{Role: AccountRoleSeller}).IsAdmin())
}

func TestAuditLogFlags(t *testing.T) {
	failed := false
	assert.True(t, (&AuditLog{Success: &failed}).IsFailed())
	assert.False(t, (&AuditLog{}).IsFailed())
	assert.True(t, (&AuditLog{Action: AuditActionAccountSuspended}).IsSecurityEvent())
	assert.False(t, (&AuditLog{Action: AuditActionAdCreated}).IsSecurityEvent())
}
