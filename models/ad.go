package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ad is a listing owned by a seller
type Ad struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UUID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_ads_uuid" json:"uuid"`
	SellerID uint      `gorm:"not null;index:idx_ads_seller_id" json:"seller_id"`
	Seller   *Account  `gorm:"foreignKey:SellerID;references:ID" json:"seller,omitempty"`

	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Images      pq.StringArray `gorm:"type:text[]" json:"images"`

	Price        *decimal.Decimal `gorm:"type:numeric(12,2)" json:"price,omitempty"`
	ReleasePrice *decimal.Decimal `gorm:"type:numeric(12,2)" json:"release_price,omitempty"`

	// IsSold only ever moves from false to true
	IsSold  bool       `gorm:"not null;default:false;index:idx_ads_is_sold" json:"is_sold"`
	BuyerID *uint      `gorm:"index:idx_ads_buyer_id" json:"buyer_id,omitempty"`
	SoldAt  *time.Time `json:"sold_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_ads_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Ad) TableName() string {
	return "ads"
}

// BeforeCreate ensures UUID is set
func (a *Ad) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == uuid.Nil {
		a.UUID = uuid.New()
	}
	return nil
}

// ResolvedPrice returns the price, falling back to the release price.
// A zero price counts as unset.
func (a *Ad) ResolvedPrice() (decimal.Decimal, bool) {
	if a.Price != nil && !a.Price.IsZero() {
		return *a.Price, true
	}
	if a.ReleasePrice != nil && !a.ReleasePrice.IsZero() {
		return *a.ReleasePrice, true
	}
	return decimal.Zero, false
}

// AdFilter represents filter criteria for ad queries
type AdFilter struct {
	ID       *uint
	UUID     *uuid.UUID
	SellerID *uint
	BuyerID  *uint
	IsSold   *bool
}
