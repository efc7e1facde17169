package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/safesuite/provisioning/internal/domain/model"
	"github.com/safesuite/provisioning/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type billingEventRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewBillingEventRepository creates a new billing event repository
func NewBillingEventRepository(db *gorm.DB, logger *zap.Logger) repository.BillingEventRepository {
	return &billingEventRepository{
		db:     db,
		logger: logger,
	}
}

// SaveEvent saves a new billing event, ignoring duplicates by provider event ID
func (r *billingEventRepository) SaveEvent(ctx context.Context, eventID, eventType, customerEmail string, data json.RawMessage) error {
	var eventData map[string]interface{}
	if err := json.Unmarshal(data, &eventData); err != nil {
		r.logger.Warn("Failed to parse event payload",
			zap.String("event_id", eventID),
			zap.Error(err))
	}

	var providerCreatedAt *time.Time
	if created, ok := eventData["created"].(float64); ok {
		t := time.Unix(int64(created), 0)
		providerCreatedAt = &t
	}

	event := &model.BillingEvent{
		ProviderEventID:   eventID,
		EventType:         eventType,
		CustomerEmail:     customerEmail,
		Status:            model.EventStatusPending,
		Data:              model.JSONB(eventData),
		ProviderCreatedAt: providerCreatedAt,
	}

	// Duplicate deliveries hit the unique provider_event_id index.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event).Error

	if err != nil {
		r.logger.Error("Failed to save billing event",
			zap.String("event_id", eventID),
			zap.String("event_type", eventType),
			zap.Error(err))
		return fmt.Errorf("failed to save billing event: %w", err)
	}

	return nil
}

// GetEvent retrieves a billing event by provider event ID
func (r *billingEventRepository) GetEvent(ctx context.Context, eventID string) (*model.BillingEvent, error) {
	var event model.BillingEvent

	err := r.db.WithContext(ctx).
		Where("provider_event_id = ?", eventID).
		First(&event).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get billing event",
			zap.String("event_id", eventID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get billing event: %w", err)
	}

	return &event, nil
}

// MarkProcessed marks a billing event as completed
func (r *billingEventRepository) MarkProcessed(ctx context.Context, eventID string) error {
	now := time.Now()

	result := r.db.WithContext(ctx).
		Model(&model.BillingEvent{}).
		Where("provider_event_id = ?", eventID).
		Updates(map[string]interface{}{
			"status":       model.EventStatusCompleted,
			"processed_at": &now,
		})

	if result.Error != nil {
		r.logger.Error("Failed to mark billing event as processed",
			zap.String("event_id", eventID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to mark billing event as processed: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("billing event not found: %s", eventID)
	}

	return nil
}

// MarkFailed records the processing error on a billing event
func (r *billingEventRepository) MarkFailed(ctx context.Context, eventID string, procErr error) error {
	errorMsg := procErr.Error()

	result := r.db.WithContext(ctx).
		Model(&model.BillingEvent{}).
		Where("provider_event_id = ?", eventID).
		Updates(map[string]interface{}{
			"status":     model.EventStatusFailed,
			"last_error": &errorMsg,
		})

	if result.Error != nil {
		r.logger.Error("Failed to mark billing event as failed",
			zap.String("event_id", eventID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to mark billing event as failed: %w", result.Error)
	}

	return nil
}
