package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/safesuite/provisioning/internal/domain/entity"
	"github.com/safesuite/provisioning/internal/domain/model"
	"github.com/safesuite/provisioning/internal/domain/repository"
	"github.com/safesuite/provisioning/internal/usecase"
)

const testWebhookSecret = "whsec_handler_test"

type testValidator struct {
	validate *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{validate: validator.New()}
	return e
}

// stubProvisioner answers every call successfully.
type stubProvisioner struct {
	granted []entity.App
}

func (s *stubProvisioner) Grant(ctx context.Context, app entity.App, email string) entity.AppProvisionResult {
	s.granted = append(s.granted, app)
	return entity.AppProvisionResult{App: app, Action: entity.ActionGrant, Success: true, Attempts: 1}
}

func (s *stubProvisioner) Revoke(ctx context.Context, app entity.App, email string) entity.AppProvisionResult {
	return entity.AppProvisionResult{App: app, Action: entity.ActionRevoke, Success: true, Attempts: 1}
}

func (s *stubProvisioner) CheckStatus(ctx context.Context, app entity.App, email string) entity.AppStatus {
	return entity.AppStatus{App: app, Found: true, Status: "lifetime"}
}

// stubAuditRepo collects entries in memory.
type stubAuditRepo struct {
	entries []model.AuditLog
	listErr error
}

func (s *stubAuditRepo) Record(ctx context.Context, entry *model.AuditLog) error {
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *stubAuditRepo) List(ctx context.Context, filters repository.AuditLogFilters) ([]model.AuditLog, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.entries, nil
}

func (s *stubAuditRepo) Count(ctx context.Context, filters repository.AuditLogFilters) (int64, error) {
	return int64(len(s.entries)), nil
}

// stubEventRepo treats every event as new.
type stubEventRepo struct {
	saved     []string
	processed []string
}

func (s *stubEventRepo) SaveEvent(ctx context.Context, eventID, eventType, customerEmail string, data json.RawMessage) error {
	s.saved = append(s.saved, eventID)
	return nil
}

func (s *stubEventRepo) GetEvent(ctx context.Context, eventID string) (*model.BillingEvent, error) {
	return nil, nil
}

func (s *stubEventRepo) MarkProcessed(ctx context.Context, eventID string) error {
	s.processed = append(s.processed, eventID)
	return nil
}

func (s *stubEventRepo) MarkFailed(ctx context.Context, eventID string, procErr error) error {
	return nil
}

type stubNotifier struct{}

func (s *stubNotifier) SendAlert(ctx context.Context, alert *entity.ProvisioningFailureAlert) error {
	return nil
}

func newTestDispatcher(events *stubEventRepo) (*usecase.WebhookDispatcher, *stubProvisioner) {
	logger := zap.NewNop()
	provisioner := &stubProvisioner{}
	audit := &stubAuditRepo{}
	syncService := usecase.NewSyncService(provisioner, audit, logger)
	escalation := usecase.NewEscalationService(&stubNotifier{}, audit, "https://admin.safesuite.app", logger)
	dispatcher := usecase.NewWebhookDispatcher(testWebhookSecret, syncService, escalation, events, nil, nil, logger)
	return dispatcher, provisioner
}

func signedPayload(t *testing.T, eventID, eventType string, object map[string]interface{}) (string, string) {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"id":      eventID,
		"type":    eventType,
		"created": time.Now().Unix(),
		"data":    map[string]interface{}{"object": object},
	})
	assert.NoError(t, err)

	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	sig := fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))

	return string(payload), sig
}

func TestWebhookHandler_ValidEvent(t *testing.T) {
	events := &stubEventRepo{}
	dispatcher, provisioner := newTestDispatcher(events)
	handler := NewWebhookHandler(dispatcher, zap.NewNop())

	payload, sig := signedPayload(t, "evt_h1", "checkout.session.completed", map[string]interface{}{
		"customer_email": "a@x.com",
		"metadata":       map[string]interface{}{"apps": "safetunes"},
	})

	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", sig)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, handler.HandleWebhook(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"received":true`)
	assert.Equal(t, []entity.App{entity.AppSafeTunes}, provisioner.granted)
	assert.Equal(t, []string{"evt_h1"}, events.processed)
}

func TestWebhookHandler_BadSignature(t *testing.T) {
	events := &stubEventRepo{}
	dispatcher, provisioner := newTestDispatcher(events)
	handler := NewWebhookHandler(dispatcher, zap.NewNop())

	payload, _ := signedPayload(t, "evt_h2", "checkout.session.completed", map[string]interface{}{
		"customer_email": "a@x.com",
	})

	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, handler.HandleWebhook(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, provisioner.granted)
	assert.Empty(t, events.saved)
}

func TestRemediationHandler_Reprovision(t *testing.T) {
	logger := zap.NewNop()
	provisioner := &stubProvisioner{}
	audit := &stubAuditRepo{}
	syncService := usecase.NewSyncService(provisioner, audit, logger)
	remediation := usecase.NewRemediationService(provisioner, syncService, audit, logger)
	handler := NewRemediationHandler(remediation, logger)

	body := `{"email":"a@x.com","apps":["safetube"]}`

	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reprovision", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("operator_email", "ops@safesuite.app")

	assert.NoError(t, handler.Reprovision(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Equal(t, []entity.App{entity.AppSafeTube}, provisioner.granted)
}

func TestRemediationHandler_ReprovisionRejectsUnknownApp(t *testing.T) {
	logger := zap.NewNop()
	provisioner := &stubProvisioner{}
	audit := &stubAuditRepo{}
	syncService := usecase.NewSyncService(provisioner, audit, logger)
	remediation := usecase.NewRemediationService(provisioner, syncService, audit, logger)
	handler := NewRemediationHandler(remediation, logger)

	body := `{"email":"a@x.com","apps":["frobnicator"]}`

	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reprovision", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("operator_email", "ops@safesuite.app")

	assert.NoError(t, handler.Reprovision(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown app")
	assert.Empty(t, provisioner.granted)
}

func TestRemediationHandler_ReprovisionRequiresOperator(t *testing.T) {
	logger := zap.NewNop()
	provisioner := &stubProvisioner{}
	audit := &stubAuditRepo{}
	syncService := usecase.NewSyncService(provisioner, audit, logger)
	remediation := usecase.NewRemediationService(provisioner, syncService, audit, logger)
	handler := NewRemediationHandler(remediation, logger)

	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reprovision", strings.NewReader(`{"email":"a@x.com","apps":["safetube"]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, handler.Reprovision(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRemediationHandler_CheckStatus(t *testing.T) {
	logger := zap.NewNop()
	provisioner := &stubProvisioner{}
	audit := &stubAuditRepo{}
	syncService := usecase.NewSyncService(provisioner, audit, logger)
	remediation := usecase.NewRemediationService(provisioner, syncService, audit, logger)
	handler := NewRemediationHandler(remediation, logger)

	e := newTestEcho()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/status?email=a%40x.com", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, handler.CheckStatus(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "safetunes")
	assert.Contains(t, rec.Body.String(), "lifetime")
}

func TestRemediationHandler_CheckStatusRequiresEmail(t *testing.T) {
	handler := NewRemediationHandler(nil, zap.NewNop())

	e := newTestEcho()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/status", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, handler.CheckStatus(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuditHandler_List(t *testing.T) {
	audit := &stubAuditRepo{entries: []model.AuditLog{
		{Actor: "system", Action: model.AuditActionGrant, TargetEmail: "a@x.com"},
		{Actor: "ops@safesuite.app", Action: model.AuditActionReprovision, TargetEmail: "a@x.com"},
	}}
	handler := NewAuditHandler(audit, zap.NewNop())

	e := newTestEcho()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit-logs?email=a%40x.com&page=1&limit=20", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, handler.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data       []model.AuditLog      `json:"data"`
		Pagination entity.PaginationMeta `json:"pagination"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, int64(2), resp.Pagination.Total)
	assert.Equal(t, 1, resp.Pagination.CurrentPage)
}
