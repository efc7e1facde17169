package repository

import (
	"context"
	"encoding/json"

	"github.com/safesuite/provisioning/internal/domain/model"
)

// BillingEventRepository is the durable store of received billing events.
// The unique provider event ID is what makes at-least-once delivery safe.
type BillingEventRepository interface {
	// SaveEvent inserts a new event record, silently ignoring duplicates.
	SaveEvent(ctx context.Context, eventID, eventType, customerEmail string, data json.RawMessage) error

	// GetEvent returns the stored event, or nil if it was never seen.
	GetEvent(ctx context.Context, eventID string) (*model.BillingEvent, error)

	// MarkProcessed transitions the event to completed.
	MarkProcessed(ctx context.Context, eventID string) error

	// MarkFailed records the processing error on the event.
	MarkFailed(ctx context.Context, eventID string, procErr error) error
}
