package usecase

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"github.com/safesuite/provisioning/internal/domain/entity"
	"github.com/safesuite/provisioning/internal/domain/model"
	"github.com/safesuite/provisioning/internal/domain/repository"
)

// MockProvisioner is a mock implementation of provider.EntitlementProvisioner
type MockProvisioner struct {
	mock.Mock
}

func (m *MockProvisioner) Grant(ctx context.Context, app entity.App, email string) entity.AppProvisionResult {
	args := m.Called(ctx, app, email)
	return args.Get(0).(entity.AppProvisionResult)
}

func (m *MockProvisioner) Revoke(ctx context.Context, app entity.App, email string) entity.AppProvisionResult {
	args := m.Called(ctx, app, email)
	return args.Get(0).(entity.AppProvisionResult)
}

func (m *MockProvisioner) CheckStatus(ctx context.Context, app entity.App, email string) entity.AppStatus {
	args := m.Called(ctx, app, email)
	return args.Get(0).(entity.AppStatus)
}

// MockAuditRepo is a mock implementation of repository.AuditLogRepository
type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) Record(ctx context.Context, entry *model.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepo) List(ctx context.Context, filters repository.AuditLogFilters) ([]model.AuditLog, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AuditLog), args.Error(1)
}

func (m *MockAuditRepo) Count(ctx context.Context, filters repository.AuditLogFilters) (int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventRepo is a mock implementation of repository.BillingEventRepository
type MockEventRepo struct {
	mock.Mock
}

func (m *MockEventRepo) SaveEvent(ctx context.Context, eventID, eventType, customerEmail string, data json.RawMessage) error {
	args := m.Called(ctx, eventID, eventType, customerEmail, data)
	return args.Error(0)
}

func (m *MockEventRepo) GetEvent(ctx context.Context, eventID string) (*model.BillingEvent, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BillingEvent), args.Error(1)
}

func (m *MockEventRepo) MarkProcessed(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func (m *MockEventRepo) MarkFailed(ctx context.Context, eventID string, procErr error) error {
	args := m.Called(ctx, eventID, procErr)
	return args.Error(0)
}

// MockNotifier is a mock implementation of AlertNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendAlert(ctx context.Context, alert *entity.ProvisioningFailureAlert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

// MockPurchaseNotifier is a mock implementation of PurchaseNotifier
type MockPurchaseNotifier struct {
	mock.Mock
}

func (m *MockPurchaseNotifier) SendPurchaseSummary(ctx context.Context, summary *entity.PurchaseSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

// MockGuard is a mock implementation of DuplicateGuard
type MockGuard struct {
	mock.Mock
}

func (m *MockGuard) Seen(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGuard) Mark(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func grantOK(app entity.App) entity.AppProvisionResult {
	return entity.AppProvisionResult{App: app, Action: entity.ActionGrant, Success: true, Attempts: 1}
}

func revokeOK(app entity.App) entity.AppProvisionResult {
	return entity.AppProvisionResult{App: app, Action: entity.ActionRevoke, Success: true, Attempts: 1}
}

func grantFailed(app entity.App) entity.AppProvisionResult {
	return entity.AppProvisionResult{App: app, Action: entity.ActionGrant, Success: false, Attempts: 3, Error: "safetube responded 502"}
}
