package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/safesuite/provisioning/internal/adapter/repository"
	domainRepo "github.com/safesuite/provisioning/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	Audit  domainRepo.AuditLogRepository
	Events domainRepo.BillingEventRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Audit:  repository.NewAuditLogRepository(db, logger),
		Events: repository.NewBillingEventRepository(db, logger),
	}
}
