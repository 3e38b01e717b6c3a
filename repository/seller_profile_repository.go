package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/marketplace-settlement/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SellerProfileRepositoryImpl implements SellerProfileRepository interface
type SellerProfileRepositoryImpl struct {
	*BaseRepository[models.SellerProfile, struct{}]
}

// NewSellerProfileRepository creates a new seller profile repository
func NewSellerProfileRepository(db *gorm.DB) SellerProfileRepository {
	return &SellerProfileRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SellerProfile, struct{}](db),
	}
}

func (r *SellerProfileRepositoryImpl) ByAccountID(ctx context.Context, accountID uint) (*models.SellerProfile, error) {
	db := r.getDB(ctx)
	var profile models.SellerProfile
	err := db.Preload("SellerBank").Where("account_id = ?", accountID).Last(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *SellerProfileRepositoryImpl) UpsertBank(ctx context.Context, bank *models.SellerBank) error {
	db := r.getDB(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "seller_profile_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"external_account_id", "bank_name", "last4", "country", "currency", "updated_at"}),
	}).Create(bank).Error
	if err != nil {
		return fmt.Errorf("failed to upsert bank for profile %d: %w", bank.SellerProfileID, err)
	}
	return nil
}
