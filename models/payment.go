package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentStatus represents the settlement state of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Payment is one settled processor transaction for an ad
type Payment struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_payments_uuid" json:"uuid"`

	// Processor transaction (payment intent) id
	TransactionID string `gorm:"size:255;not null;uniqueIndex:uk_payments_transaction_id" json:"transaction_id"`

	TotalAmount  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	SellerAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"seller_amount"`
	AdminFee     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"admin_fee"`
	Currency     string          `gorm:"size:3;not null" json:"currency"`

	Status        PaymentStatus `gorm:"type:varchar(16);not null;index:idx_payments_status" json:"status"`
	FailureReason *string       `gorm:"type:text" json:"failure_reason,omitempty"`

	BuyerID uint     `gorm:"not null;index:idx_payments_buyer_id" json:"buyer_id"`
	Buyer   *Account `gorm:"foreignKey:BuyerID;references:ID" json:"buyer,omitempty"`
	AdID    uint     `gorm:"not null;index:idx_payments_ad_id" json:"ad_id"`
	Ad      *Ad      `gorm:"foreignKey:AdID;references:ID" json:"ad,omitempty"`

	ProcessorEventID string `gorm:"size:255" json:"processor_event_id"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_payments_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// BeforeCreate ensures UUID is set
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	return nil
}

// IsCompleted reports whether the payment settled a sale
func (p *Payment) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}

// PaymentFilter represents filter criteria for payment queries
type PaymentFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	TransactionID *string
	BuyerID       *uint
	SellerID      *uint
	AdID          *uint
	Status        *PaymentStatus
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
