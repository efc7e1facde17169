package model

import (
	"database/sql/driver"
	"time"
)

// EventStatus represents the processing status of a billing event.
type EventStatus string

const (
	EventStatusPending   EventStatus = "pending"
	EventStatusCompleted EventStatus = "completed"
	EventStatusFailed    EventStatus = "failed"
)

// Scan implements sql.Scanner interface
func (s *EventStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = EventStatus(v)
	case []byte:
		*s = EventStatus(v)
	default:
		*s = EventStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (s EventStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// BillingEvent is the durable record of one billing-provider webhook event.
// The unique provider event ID makes redelivered events detectable: inserts
// use ON CONFLICT DO NOTHING and an event whose status is already completed
// is acknowledged without side effects.
type BillingEvent struct {
	ID                int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	ProviderEventID   string      `gorm:"unique;not null;size:255;index" json:"provider_event_id"`
	EventType         string      `gorm:"not null;size:100;index" json:"event_type"`
	CustomerEmail     string      `gorm:"size:255;index" json:"customer_email"`
	Status            EventStatus `gorm:"size:20;default:'pending';index" json:"status"`
	ProcessedAt       *time.Time  `json:"processed_at,omitempty"`
	Data              JSONB       `gorm:"type:jsonb;not null" json:"data"`
	LastError         *string     `json:"last_error,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	ProviderCreatedAt *time.Time  `json:"provider_created_at,omitempty"`
}

// TableName specifies the table name for GORM
func (BillingEvent) TableName() string {
	return "billing_events"
}
