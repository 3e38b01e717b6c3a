package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/marketplace-settlement/models"
	"gorm.io/gorm"
)

// AccountRepositoryImpl implements AccountRepository interface
type AccountRepositoryImpl struct {
	*BaseRepository[models.Account, models.AccountFilter]
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &AccountRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Account, models.AccountFilter](db),
	}
}

func (r *AccountRepositoryImpl) ByIDWithProfile(ctx context.Context, id uint) (*models.Account, error) {
	db := r.getDB(ctx)
	var account models.Account
	err := db.Preload("SellerProfile").Preload("SellerProfile.SellerBank").First(&account, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load account %d: %w", id, err)
	}
	return &account, nil
}

func (r *AccountRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.Account, error) {
	db := r.getDB(ctx)
	var account models.Account
	err := db.Where("email = ?", email).Last(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepositoryImpl) UpdateSuspension(ctx context.Context, id uint, suspended bool, reason *string) error {
	db := r.getDB(ctx)
	if !suspended {
		reason = nil
	}
	res := db.Model(&models.Account{}).Where("id = ?", id).Updates(map[string]any{
		"is_suspended":      suspended,
		"suspension_reason": reason,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update suspension for account %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *AccountRepositoryImpl) UpdateVerification(ctx context.Context, id uint, verified bool) error {
	db := r.getDB(ctx)
	res := db.Model(&models.Account{}).Where("id = ?", id).Update("is_verified", verified)
	if res.Error != nil {
		return fmt.Errorf("failed to update verification for account %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *AccountRepositoryImpl) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	db := r.getDB(ctx)
	return db.Model(&models.Account{}).Where("id = ?", id).Update("last_login_at", at).Error
}
