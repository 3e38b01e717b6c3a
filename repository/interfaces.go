// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/marketplace-settlement/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	Save(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
}

// Transactor gives a unit of work all-or-nothing semantics.
// Repositories called with the ctx passed to fn join the transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(context.Context) error) error
}

// AccountRepository defines operations for accounts
type AccountRepository interface {
	Repository[models.Account, models.AccountFilter]
	// ByIDWithProfile loads the account with its seller profile and bank record
	ByIDWithProfile(ctx context.Context, id uint) (*models.Account, error)
	ByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdateSuspension(ctx context.Context, id uint, suspended bool, reason *string) error
	UpdateVerification(ctx context.Context, id uint, verified bool) error
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
}

// SellerProfileRepository defines operations for seller profiles and their bank records
type SellerProfileRepository interface {
	Repository[models.SellerProfile, struct{}]
	ByAccountID(ctx context.Context, accountID uint) (*models.SellerProfile, error)
	// UpsertBank creates or replaces the bank record of a profile
	UpsertBank(ctx context.Context, bank *models.SellerBank) error
}

// AdRepository defines operations for ads
type AdRepository interface {
	Repository[models.Ad, models.AdFilter]
	ByUUID(ctx context.Context, id uuid.UUID) (*models.Ad, error)
	ListBySeller(ctx context.Context, sellerID uint, limit, offset int) ([]*models.Ad, error)
	CountBySeller(ctx context.Context, sellerID uint, sold *bool) (int64, error)
	// MarkSold flips is_sold to true for buyerID; false means the ad was already sold
	MarkSold(ctx context.Context, adID, buyerID uint, at time.Time) (bool, error)
	UpdatePrice(ctx context.Context, adID uint, price decimal.Decimal) error
}

// PaymentRepository defines operations for payments
type PaymentRepository interface {
	Repository[models.Payment, models.PaymentFilter]
	ByUUID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
	// CreateIdempotent inserts p unless a row with the same transaction id exists
	CreateIdempotent(ctx context.Context, p *models.Payment) (bool, error)
	ListByFilter(ctx context.Context, filter models.PaymentFilter, limit, offset int) ([]*models.Payment, error)
	CountByFilter(ctx context.Context, filter models.PaymentFilter) (int64, error)
	SumSellerAmount(ctx context.Context, sellerID uint) (decimal.Decimal, error)
}

// ProcessorEventRepository defines operations for verified webhook events
type ProcessorEventRepository interface {
	// Record stores ev unless its event id was seen before
	Record(ctx context.Context, ev *models.ProcessorEvent) (bool, error)
	MarkProcessed(ctx context.Context, eventID string, at time.Time, processingErr *string) error
	ByEventID(ctx context.Context, eventID string) (*models.ProcessorEvent, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Save(ctx context.Context, entity *models.AuditLog) error
}
