// Package models contains domain entities and business models for the marketplace settlement system
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountRole is the marketplace role of an account
type AccountRole string

const (
	AccountRoleBuyer  AccountRole = "BUYER"
	AccountRoleSeller AccountRole = "SELLER"
	AccountRoleAdmin  AccountRole = "ADMIN"
)

// Valid reports whether r is a known role
func (r AccountRole) Valid() bool {
	switch r {
	case AccountRoleBuyer, AccountRoleSeller, AccountRoleAdmin:
		return true
	}
	return false
}

type Account struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:uk_accounts_uuid" json:"uuid"`
	Email        string      `gorm:"size:255;not null;uniqueIndex:uk_accounts_email" json:"email"`
	PasswordHash string      `gorm:"size:255;not null" json:"-"`
	Name         string      `gorm:"size:255;not null" json:"name"`
	Role         AccountRole `gorm:"type:varchar(16);not null;default:'BUYER';index:idx_accounts_role" json:"role"`

	IsVerified       bool    `gorm:"not null;default:false" json:"is_verified"`
	IsSuspended      bool    `gorm:"not null;default:false;index:idx_accounts_is_suspended" json:"is_suspended"`
	SuspensionReason *string `gorm:"type:text" json:"suspension_reason,omitempty"`

	SellerProfile *SellerProfile `gorm:"foreignKey:AccountID;references:ID" json:"seller_profile,omitempty"`

	CreatedAt   time.Time  `gorm:"autoCreateTime;index:idx_accounts_created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func (Account) TableName() string {
	return "accounts"
}

// BeforeCreate ensures UUID is set
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == uuid.Nil {
		a.UUID = uuid.New()
	}
	return nil
}

// IsAdmin reports whether the account is exempt from state and ownership checks
func (a *Account) IsAdmin() bool {
	return a.Role == AccountRoleAdmin
}

// AccountFilter represents filter criteria for account queries
type AccountFilter struct {
	ID          *uint
	UUID        *uuid.UUID
	Email       *string
	Role        *AccountRole
	IsVerified  *bool
	IsSuspended *bool
}
