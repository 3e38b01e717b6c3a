package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/marketplace-settlement/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentRepositoryImpl implements PaymentRepository interface
type PaymentRepositoryImpl struct {
	*BaseRepository[models.Payment, models.PaymentFilter]
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &PaymentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Payment, models.PaymentFilter](db),
	}
}

func (r *PaymentRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	db := r.getDB(ctx)
	var payment models.Payment
	err := db.Preload("Ad").Preload("Buyer").Where("uuid = ?", id).Last(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepositoryImpl) ByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	db := r.getDB(ctx)
	var payment models.Payment
	err := db.Where("transaction_id = ?", transactionID).Last(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepositoryImpl) CreateIdempotent(ctx context.Context, p *models.Payment) (bool, error) {
	db := r.getDB(ctx)
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_id"}},
		DoNothing: true,
	}).Create(p)
	if res.Error != nil {
		return false, fmt.Errorf("failed to create payment %s: %w", p.TransactionID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *PaymentRepositoryImpl) applyFilter(db *gorm.DB, filter models.PaymentFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("payments.id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("payments.uuid = ?", *filter.UUID)
	}
	if filter.TransactionID != nil {
		db = db.Where("payments.transaction_id = ?", *filter.TransactionID)
	}
	if filter.BuyerID != nil {
		db = db.Where("payments.buyer_id = ?", *filter.BuyerID)
	}
	if filter.AdID != nil {
		db = db.Where("payments.ad_id = ?", *filter.AdID)
	}
	if filter.SellerID != nil {
		db = db.Joins("JOIN ads ON ads.id = payments.ad_id").Where("ads.seller_id = ?", *filter.SellerID)
	}
	if filter.Status != nil {
		db = db.Where("payments.status = ?", *filter.Status)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("payments.created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("payments.created_at <= ?", *filter.CreatedBefore)
	}
	return db
}

func (r *PaymentRepositoryImpl) ListByFilter(ctx context.Context, filter models.PaymentFilter, limit, offset int) ([]*models.Payment, error) {
	db := r.getDB(ctx)
	var payments []*models.Payment

	query := r.applyFilter(db.Model(&models.Payment{}), filter).
		Preload("Ad").
		Preload("Buyer").
		Order("payments.created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (r *PaymentRepositoryImpl) CountByFilter(ctx context.Context, filter models.PaymentFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.Payment{}), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}
	return count, nil
}

func (r *PaymentRepositoryImpl) SumSellerAmount(ctx context.Context, sellerID uint) (decimal.Decimal, error) {
	db := r.getDB(ctx)
	var result struct {
		Total decimal.NullDecimal
	}
	err := db.Model(&models.Payment{}).
		Select("SUM(payments.seller_amount) AS total").
		Joins("JOIN ads ON ads.id = payments.ad_id").
		Where("ads.seller_id = ? AND payments.status = ?", sellerID, models.PaymentStatusCompleted).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum seller income: %w", err)
	}
	if !result.Total.Valid {
		return decimal.Zero, nil
	}
	return result.Total.Decimal, nil
}
