package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/marketplace-settlement/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProcessorEventRepositoryImpl implements ProcessorEventRepository interface
type ProcessorEventRepositoryImpl struct {
	*BaseRepository[models.ProcessorEvent, struct{}]
}

// NewProcessorEventRepository creates a new processor event repository
func NewProcessorEventRepository(db *gorm.DB) ProcessorEventRepository {
	return &ProcessorEventRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ProcessorEvent, struct{}](db),
	}
}

func (r *ProcessorEventRepositoryImpl) Record(ctx context.Context, ev *models.ProcessorEvent) (bool, error) {
	db := r.getDB(ctx)
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(ev)
	if res.Error != nil {
		return false, fmt.Errorf("failed to record event %s: %w", ev.EventID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *ProcessorEventRepositoryImpl) MarkProcessed(ctx context.Context, eventID string, at time.Time, processingErr *string) error {
	db := r.getDB(ctx)
	return db.Model(&models.ProcessorEvent{}).
		Where("event_id = ?", eventID).
		Updates(map[string]any{
			"processed_at":     at,
			"processing_error": processingErr,
		}).Error
}

func (r *ProcessorEventRepositoryImpl) ByEventID(ctx context.Context, eventID string) (*models.ProcessorEvent, error) {
	db := r.getDB(ctx)
	var ev models.ProcessorEvent
	err := db.Where("event_id = ?", eventID).Last(&ev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ev, nil
}
