package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/safesuite/provisioning/internal/domain/entity"
	"github.com/safesuite/provisioning/internal/domain/model"
	"github.com/safesuite/provisioning/internal/domain/provider"
	"github.com/safesuite/provisioning/internal/domain/repository"
)

// RemediationService is the operator-facing recovery path for customers left
// in an inconsistent state by an escalated provisioning failure. It assumes
// the operator has confirmed payment out of band; both operations are
// idempotent and reuse the same provisioning client as the webhook flow.
type RemediationService struct {
	provisioner provider.EntitlementProvisioner
	syncService *SyncService
	auditRepo   repository.AuditLogRepository
	logger      *zap.Logger
}

// NewRemediationService creates a new remediation service
func NewRemediationService(provisioner provider.EntitlementProvisioner, syncService *SyncService, auditRepo repository.AuditLogRepository, logger *zap.Logger) *RemediationService {
	return &RemediationService{
		provisioner: provisioner,
		syncService: syncService,
		auditRepo:   auditRepo,
		logger:      logger,
	}
}

// CheckStatus queries every app for the customer's current record, in
// parallel. Per-app check failures are reported in the result, not returned.
func (s *RemediationService) CheckStatus(ctx context.Context, email string) []entity.AppStatus {
	apps := entity.AllApps()
	statuses := make([]entity.AppStatus, len(apps))

	var wg sync.WaitGroup
	for i, app := range apps {
		wg.Add(1)
		go func(i int, app entity.App) {
			defer wg.Done()
			statuses[i] = s.provisioner.CheckStatus(ctx, app, email)
		}(i, app)
	}
	wg.Wait()

	return statuses
}

// Reprovision re-grants the selected apps for the customer. Revokes are
// never issued from this path.
func (s *RemediationService) Reprovision(ctx context.Context, operator, email string, apps []entity.App) entity.SyncResult {
	desired := entity.NewEntitlementSet(apps...)

	s.logger.Info("Manual reprovision requested",
		zap.String("operator", operator),
		zap.String("email", email),
		zap.Strings("apps", desired.Strings()))

	result := s.syncService.Sync(ctx, operator, email, desired, entity.EntitlementSet{})

	entry := &model.AuditLog{
		Actor:       operator,
		Action:      model.AuditActionReprovision,
		TargetEmail: email,
		Details: model.JSONB{
			"apps":    desired.Strings(),
			"success": result.Success(),
		},
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		s.logger.Error("Failed to write reprovision audit entry",
			zap.String("email", email),
			zap.Error(err))
	}

	return result
}
