package events

import (
	"context"
	"encoding/json"
	"time"
)

// Bus publishes domain events. Implementations must be safe for concurrent use.
type Bus interface {
	Publish(ctx context.Context, subject string, data []byte, msgID string) error
	Drain() error
}

// BusinessSubmitted is emitted after a listing has been stored for review.
type BusinessSubmitted struct {
	ListingID       string    `json:"listing_id"`
	BusinessName    string    `json:"business_name"`
	TransactionType string    `json:"transaction_type"`
	OwnerID         uint      `json:"owner_id"`
	ImageCount      int       `json:"image_count"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// PublishJSON marshals v and publishes it with msgID as the dedup id.
func PublishJSON(ctx context.Context, bus Bus, subject, msgID string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return bus.Publish(ctx, subject, data, msgID)
}

// Nop drops every event; used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, []byte, string) error { return nil }
func (Nop) Drain() error                                          { return nil }
