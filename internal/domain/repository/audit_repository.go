package repository

import (
	"context"

	"github.com/safesuite/provisioning/internal/domain/model"
)

// AuditLogFilters narrows an audit log query. Zero values mean "no filter".
type AuditLogFilters struct {
	Action      string
	TargetEmail string
	Limit       int
	Offset      int
}

// AuditLogRepository stores append-only audit entries.
type AuditLogRepository interface {
	// Record appends one entry. Entries are never updated or deleted.
	Record(ctx context.Context, entry *model.AuditLog) error

	// List returns entries matching the filters, newest first.
	List(ctx context.Context, filters AuditLogFilters) ([]model.AuditLog, error)

	// Count returns the number of entries matching the filters.
	Count(ctx context.Context, filters AuditLogFilters) (int64, error)
}
