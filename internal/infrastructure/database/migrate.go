package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/safesuite/provisioning/internal/domain/model"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := createExtensions(db); err != nil {
		logger.Error("Failed to create extensions", zap.Error(err))
		return err
	}

	err := db.AutoMigrate(
		&model.BillingEvent{},
		&model.AuditLog{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomIndexes creates partial indexes that GORM doesn't handle
// automatically.
func createCustomIndexes(db *gorm.DB) error {
	// Events still awaiting processing or needing operator attention.
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_billing_events_unprocessed ON billing_events (created_at) WHERE status IN ('pending', 'failed')`).Error; err != nil {
		return err
	}

	// The audit surface is queried by customer and by action, newest first.
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_audit_log_target_email ON audit_log (target_email, created_at DESC)`).Error; err != nil {
		return err
	}

	return nil
}

// createExtensions creates required PostgreSQL extensions
func createExtensions(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return err
	}
	return nil
}
