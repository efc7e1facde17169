package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/safesuite/provisioning/internal/domain/entity"
	"github.com/safesuite/provisioning/internal/domain/model"
	"github.com/safesuite/provisioning/internal/domain/repository"
)

// AlertNotifier delivers a provisioning failure alert to a human.
type AlertNotifier interface {
	SendAlert(ctx context.Context, alert *entity.ProvisioningFailureAlert) error
}

// EscalationService turns exhausted-retry provisioning failures into operator
// alerts. A paying customer with no access and nobody notified is the
// worst-case outcome this service exists to prevent, so a failure of the
// notification channel itself is logged at the highest severity and captured
// by the error-tracking sink rather than swallowed.
type EscalationService struct {
	notifier     AlertNotifier
	auditRepo    repository.AuditLogRepository
	adminBaseURL string
	logger       *zap.Logger
}

// NewEscalationService creates a new escalation service
func NewEscalationService(notifier AlertNotifier, auditRepo repository.AuditLogRepository, adminBaseURL string, logger *zap.Logger) *EscalationService {
	return &EscalationService{
		notifier:     notifier,
		auditRepo:    auditRepo,
		adminBaseURL: adminBaseURL,
		logger:       logger,
	}
}

// Escalate builds and delivers exactly one alert for the failed portion of a
// sync. It never returns an error: escalation must not block or reverse the
// successful portion of the sync it reports on.
func (s *EscalationService) Escalate(ctx context.Context, email string, amountCents int64, currency, eventID, eventType string, failed []entity.AppProvisionResult) {
	if len(failed) == 0 {
		return
	}

	alert := &entity.ProvisioningFailureAlert{
		ID:             uuid.New(),
		Email:          email,
		AmountCents:    amountCents,
		Currency:       currency,
		EventID:        eventID,
		EventType:      eventType,
		Failed:         failed,
		RemediationURL: s.remediationURL(email, failed),
		CreatedAt:      time.Now(),
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		scope.SetTag("alert_id", alert.ID.String())
		scope.SetTag("event_id", eventID)
		sentry.CaptureMessage(fmt.Sprintf("provisioning failed for %s: apps %v", email, alert.FailedApps()))
	})

	delivered := true
	if err := s.notifier.SendAlert(ctx, alert); err != nil {
		delivered = false
		// Last line of defense.
		s.logger.Error("Failed to deliver provisioning failure alert",
			zap.String("severity", "critical"),
			zap.String("alert_id", alert.ID.String()),
			zap.String("email", email),
			zap.String("event_id", eventID),
			zap.Any("failed_apps", alert.FailedApps()),
			zap.Error(err))
		sentry.CaptureException(fmt.Errorf("alert delivery failed for %s: %w", email, err))
	} else {
		s.logger.Warn("Provisioning failure escalated",
			zap.String("alert_id", alert.ID.String()),
			zap.String("email", email),
			zap.Any("failed_apps", alert.FailedApps()))
	}

	failedDetails := make([]interface{}, 0, len(failed))
	for _, f := range failed {
		failedDetails = append(failedDetails, map[string]interface{}{
			"app":      string(f.App),
			"attempts": f.Attempts,
			"error":    f.Error,
		})
	}

	entry := &model.AuditLog{
		Actor:       model.ActorSystem,
		Action:      model.AuditActionSendAlert,
		TargetEmail: email,
		Details: model.JSONB{
			"alert_id":        alert.ID.String(),
			"event_id":        eventID,
			"event_type":      eventType,
			"failed_apps":     failedDetails,
			"delivered":       delivered,
			"remediation_url": alert.RemediationURL,
		},
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		s.logger.Error("Failed to write send_alert audit entry",
			zap.String("email", email),
			zap.Error(err))
	}
}

// remediationURL deep-links into the operator console, pre-filled with the
// customer and the failed apps.
func (s *EscalationService) remediationURL(email string, failed []entity.AppProvisionResult) string {
	apps := make([]string, 0, len(failed))
	for _, f := range failed {
		apps = append(apps, string(f.App))
	}

	return fmt.Sprintf("%s/remediate?email=%s&apps=%s",
		strings.TrimRight(s.adminBaseURL, "/"),
		url.QueryEscape(email),
		url.QueryEscape(strings.Join(apps, ",")))
}
