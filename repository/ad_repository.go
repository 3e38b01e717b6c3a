package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/marketplace-settlement/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AdRepositoryImpl implements AdRepository interface
type AdRepositoryImpl struct {
	*BaseRepository[models.Ad, models.AdFilter]
}

// NewAdRepository creates a new ad repository
func NewAdRepository(db *gorm.DB) AdRepository {
	return &AdRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Ad, models.AdFilter](db),
	}
}

func (r *AdRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.Ad, error) {
	db := r.getDB(ctx)
	var ad models.Ad
	err := db.Where("uuid = ?", id).Last(&ad).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ad, nil
}

func (r *AdRepositoryImpl) ListBySeller(ctx context.Context, sellerID uint, limit, offset int) ([]*models.Ad, error) {
	db := r.getDB(ctx)
	var ads []*models.Ad

	query := db.Where("seller_id = ?", sellerID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&ads).Error; err != nil {
		return nil, err
	}
	return ads, nil
}

func (r *AdRepositoryImpl) CountBySeller(ctx context.Context, sellerID uint, sold *bool) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Ad{}).Where("seller_id = ?", sellerID)
	if sold != nil {
		query = query.Where("is_sold = ?", *sold)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// MarkSold is conditional on is_sold = false, so concurrent settlements of one ad
// serialize on the row lock and only the first one wins.
func (r *AdRepositoryImpl) MarkSold(ctx context.Context, adID, buyerID uint, at time.Time) (bool, error) {
	db := r.getDB(ctx)
	res := db.Model(&models.Ad{}).
		Where("id = ? AND is_sold = ?", adID, false).
		Updates(map[string]any{
			"is_sold":  true,
			"buyer_id": buyerID,
			"sold_at":  at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark ad %d sold: %w", adID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *AdRepositoryImpl) UpdatePrice(ctx context.Context, adID uint, price decimal.Decimal) error {
	db := r.getDB(ctx)
	res := db.Model(&models.Ad{}).Where("id = ?", adID).Update("price", price)
	if res.Error != nil {
		return fmt.Errorf("failed to update price of ad %d: %w", adID, res.Error)
	}
	return nil
}
