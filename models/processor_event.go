package models

import (
	"time"

	"gorm.io/datatypes"
)

// ProcessorEvent stores each verified webhook event once, keyed by the processor's event id
type ProcessorEvent struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Provider        string         `gorm:"type:varchar(20);not null;index" json:"provider"`
	EventID         string         `gorm:"size:255;not null;uniqueIndex:uk_processor_events_event_id" json:"event_id"`
	Type            string         `gorm:"size:100;not null;index" json:"type"`
	Payload         datatypes.JSON `gorm:"type:jsonb;not null" json:"payload"`
	ProcessedAt     *time.Time     `json:"processed_at,omitempty"`
	ProcessingError *string        `gorm:"type:text" json:"processing_error,omitempty"`
	CreatedAt       time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ProcessorEvent) TableName() string {
	return "processor_events"
}
