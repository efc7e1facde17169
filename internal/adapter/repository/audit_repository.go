package repository

import (
	"context"
	"fmt"

	"github.com/safesuite/provisioning/internal/domain/model"
	"github.com/safesuite/provisioning/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type auditLogRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB, logger *zap.Logger) repository.AuditLogRepository {
	return &auditLogRepository{
		db:     db,
		logger: logger,
	}
}

// Record appends one audit entry
func (r *auditLogRepository) Record(ctx context.Context, entry *model.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		r.logger.Error("Failed to record audit entry",
			zap.String("action", entry.Action),
			zap.String("target_email", entry.TargetEmail),
			zap.Error(err))
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	return nil
}

// List returns audit entries matching the filters, newest first
func (r *auditLogRepository) List(ctx context.Context, filters repository.AuditLogFilters) ([]model.AuditLog, error) {
	var entries []model.AuditLog

	query := r.applyFilters(r.db.WithContext(ctx), filters).
		Order("created_at DESC, id DESC")

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&entries).Error; err != nil {
		r.logger.Error("Failed to list audit entries", zap.Error(err))
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	return entries, nil
}

// Count returns the number of audit entries matching the filters
func (r *auditLogRepository) Count(ctx context.Context, filters repository.AuditLogFilters) (int64, error) {
	var count int64

	err := r.applyFilters(r.db.WithContext(ctx).Model(&model.AuditLog{}), filters).
		Count(&count).Error
	if err != nil {
		r.logger.Error("Failed to count audit entries", zap.Error(err))
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	return count, nil
}

func (r *auditLogRepository) applyFilters(query *gorm.DB, filters repository.AuditLogFilters) *gorm.DB {
	if filters.Action != "" {
		query = query.Where("action = ?", filters.Action)
	}
	if filters.TargetEmail != "" {
		query = query.Where("target_email = ?", filters.TargetEmail)
	}
	return query
}
