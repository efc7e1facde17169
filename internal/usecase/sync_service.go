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

// SyncService reconciles a customer's remote app access with a desired
// entitlement set. Apps are provisioned independently: one app's failure
// never blocks or rolls back another app's call.
type SyncService struct {
	provisioner provider.EntitlementProvisioner
	auditRepo   repository.AuditLogRepository
	logger      *zap.Logger
}

// NewSyncService creates a new sync service
func NewSyncService(provisioner provider.EntitlementProvisioner, auditRepo repository.AuditLogRepository, logger *zap.Logger) *SyncService {
	return &SyncService{
		provisioner: provisioner,
		auditRepo:   auditRepo,
		logger:      logger,
	}
}

// Sync computes the grant and revoke sets from the previous and desired
// entitlements and fans the calls out in parallel, one goroutine per app per
// direction. For a fresh signup pass an empty previous set. The returned
// result aggregates every per-app outcome.
func (s *SyncService) Sync(ctx context.Context, actor, email string, desired, previous entity.EntitlementSet) entity.SyncResult {
	toGrant := desired.Difference(previous)
	toRevoke := previous.Difference(desired)

	s.logger.Info("Syncing entitlements",
		zap.String("email", email),
		zap.Strings("grant", toGrant.Strings()),
		zap.Strings("revoke", toRevoke.Strings()))

	resultCh := make(chan entity.AppProvisionResult, toGrant.Len()+toRevoke.Len())

	var wg sync.WaitGroup
	for _, app := range toGrant.Apps() {
		wg.Add(1)
		go func(app entity.App) {
			defer wg.Done()
			resultCh <- s.provisioner.Grant(ctx, app, email)
		}(app)
	}
	for _, app := range toRevoke.Apps() {
		wg.Add(1)
		go func(app entity.App) {
			defer wg.Done()
			resultCh <- s.provisioner.Revoke(ctx, app, email)
		}(app)
	}

	wg.Wait()
	close(resultCh)

	result := entity.SyncResult{
		Email:   email,
		Granted: toGrant,
		Revoked: toRevoke,
	}
	for res := range resultCh {
		result.Results = append(result.Results, res)
	}

	s.audit(ctx, actor, result)

	return result
}

// audit writes one entry per provisioning call plus one for the overall sync.
// Audit failures are logged but never fail the sync itself.
func (s *SyncService) audit(ctx context.Context, actor string, result entity.SyncResult) {
	for _, res := range result.Results {
		action := model.AuditActionGrant
		if res.Action == entity.ActionRevoke {
			action = model.AuditActionRevoke
		}

		details := model.JSONB{
			"app":      string(res.App),
			"success":  res.Success,
			"attempts": res.Attempts,
		}
		if res.Error != "" {
			details["error"] = res.Error
		}
		if res.Note != "" {
			details["note"] = res.Note
		}

		s.record(ctx, &model.AuditLog{
			Actor:       actor,
			Action:      action,
			TargetEmail: result.Email,
			Details:     details,
		})
	}

	s.record(ctx, &model.AuditLog{
		Actor:       actor,
		Action:      model.AuditActionSync,
		TargetEmail: result.Email,
		Details: model.JSONB{
			"granted": result.Granted.Strings(),
			"revoked": result.Revoked.Strings(),
			"success": result.Success(),
		},
	})
}

func (s *SyncService) record(ctx context.Context, entry *model.AuditLog) {
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		s.logger.Error("Failed to write audit entry",
			zap.String("action", entry.Action),
			zap.String("target_email", entry.TargetEmail),
			zap.Error(err))
	}
}
