package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditLog struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AccountID    *uint          `gorm:"index:idx_audit_account_id" json:"account_id,omitempty"`
	Action       string         `gorm:"size:64;not null;index:idx_audit_action" json:"action"`
	Description  *string        `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string        `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent    *string        `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string        `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	Success      *bool          `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage *string        `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionRegistered            = "account_registered"
	AuditActionLoginSuccess          = "login_success"
	AuditActionLoginFailed           = "login_failed"
	AuditActionLogout                = "logout"
	AuditActionAccountSuspended      = "account_suspended"
	AuditActionAccountUnsuspended    = "account_unsuspended"
	AuditActionAccountVerified       = "account_verified"
	AuditActionAccountUnverified     = "account_unverified"
	AuditActionSellerProfileCreated  = "seller_profile_created"
	AuditActionSellerProfileUpdated  = "seller_profile_updated"
	AuditActionSellerOnboardingSync  = "seller_onboarding_synced"
	AuditActionAdCreated             = "ad_created"
	AuditActionAdPriceUpdated        = "ad_price_updated"
	AuditActionPaymentIntentCreated  = "payment_intent_created"
	AuditActionPaymentIntentRejected = "payment_intent_rejected"
	AuditActionPaymentSettled        = "payment_settled"
	AuditActionPaymentConflict       = "payment_conflict"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	AccountID     *uint
	Action        *string
	Success       *bool
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}

func (a *AuditLog) IsSecurityEvent() bool {
	securityActions := map[string]bool{
		AuditActionLoginSuccess:       true,
		AuditActionLoginFailed:        true,
		AuditActionAccountSuspended:   true,
		AuditActionAccountUnsuspended: true,
		AuditActionAccountVerified:    true,
	}
	return securityActions[a.Action]
}
