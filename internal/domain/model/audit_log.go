package model

import (
	"time"
)

// Audit action kinds recorded by this service.
const (
	AuditActionGrant       = "grant"
	AuditActionRevoke      = "revoke"
	AuditActionSync        = "entitlement_sync"
	AuditActionSendAlert   = "send_alert"
	AuditActionReprovision = "reprovision"
)

// ActorSystem identifies entries written by the webhook flow rather than an
// operator.
const ActorSystem = "system"

// AuditLog is an append-only record of an administrative or system action.
// Entries are never updated or deleted.
type AuditLog struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Actor       string    `gorm:"not null;size:255" json:"actor"`
	Action      string    `gorm:"not null;size:100;index:idx_audit_log_action_email" json:"action"`
	TargetEmail string    `gorm:"not null;size:255;index:idx_audit_log_action_email" json:"target_email"`
	Details     JSONB     `gorm:"type:jsonb;default:'{}'" json:"details"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for GORM
func (AuditLog) TableName() string {
	return "audit_log"
}
