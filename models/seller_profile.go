package models

import (
	"time"
)

// SellerProfile holds a seller's company data and payout routing
type SellerProfile struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	AccountID uint `gorm:"not null;uniqueIndex:uk_seller_profiles_account_id" json:"account_id"`

	CompanyName    string `gorm:"size:255;not null" json:"company_name"`
	CompanyWebsite string `gorm:"size:255" json:"company_website"`
	Address        string `gorm:"size:255;not null" json:"address"`
	City           string `gorm:"size:100;not null" json:"city"`
	State          string `gorm:"size:100;not null" json:"state"`
	Zip            string `gorm:"size:20;not null" json:"zip"`
	Country        string `gorm:"type:char(2);not null" json:"country"`

	// External payout account at the payment processor
	ProcessorAccountID *string `gorm:"size:255;uniqueIndex:uk_seller_profiles_processor_account_id" json:"processor_account_id,omitempty"`

	SellerBank *SellerBank `gorm:"foreignKey:SellerProfileID;references:ID" json:"seller_bank,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SellerProfile) TableName() string {
	return "seller_profiles"
}

// HasProcessorAccount reports whether a payout account was created for the seller
func (p *SellerProfile) HasProcessorAccount() bool {
	return p.ProcessorAccountID != nil && *p.ProcessorAccountID != ""
}

// IsPaymentReady reports whether payments may be routed to this seller
func (p *SellerProfile) IsPaymentReady() bool {
	return p.HasProcessorAccount() && p.SellerBank != nil
}

// SellerBank is the bank account linked to a seller's payout account
type SellerBank struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	SellerProfileID   uint   `gorm:"not null;uniqueIndex:uk_seller_banks_seller_profile_id" json:"seller_profile_id"`
	ExternalAccountID string `gorm:"size:255;not null" json:"external_account_id"`
	BankName          string `gorm:"size:255" json:"bank_name"`
	Last4             string `gorm:"size:4" json:"last4"`
	Country           string `gorm:"type:char(2)" json:"country"`
	Currency          string `gorm:"size:3" json:"currency"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SellerBank) TableName() string {
	return "seller_banks"
}
