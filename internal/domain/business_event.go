package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const EventSubmitted = "SUBMITTED"

// BusinessEvent is an append-only audit row for a listing.
type BusinessEvent struct {
	EventID    uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	BusinessID uint           `gorm:"column:business_id;not null;index" json:"business_id"`
	ListingID  string         `gorm:"column:listing_id;type:varchar(64);not null" json:"listing_id"`
	EventType  string         `gorm:"column:event_type;type:varchar(30);not null" json:"event_type"`
	EventData  datatypes.JSON `gorm:"column:event_data;not null" json:"event_data"`
	ActorID    *uint          `gorm:"column:actor_id" json:"actor_id"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (BusinessEvent) TableName() string {
	return "business_events"
}

func (e *BusinessEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
