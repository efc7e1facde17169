package apps

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/safesuite/provisioning/internal/config"
	"github.com/safesuite/provisioning/internal/domain/entity"
	domainErrors "github.com/safesuite/provisioning/internal/domain/errors"
	"github.com/safesuite/provisioning/internal/domain/provider"
	"github.com/safesuite/provisioning/pkg/retry"
)

const defaultTimeout = 10 * time.Second

// Client provisions customer access against the per-app admin endpoints.
// Each call carries its own retry/backoff state; the client itself is
// stateless and safe for concurrent use.
type Client struct {
	http      *resty.Client
	adminKey  string
	endpoints map[entity.App]endpoint
	policy    retry.Policy
	logger    *zap.Logger
}

// NewClient builds a provisioning client from the apps configuration.
func NewClient(cfg *config.AppsConfig, policy retry.Policy, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http:      httpClient,
		adminKey:  cfg.AdminKey,
		endpoints: endpointTable(cfg),
		policy:    policy,
		logger:    logger,
	}
}

// Grant enables lifetime access for the customer in the given app.
func (c *Client) Grant(ctx context.Context, app entity.App, email string) entity.AppProvisionResult {
	ep, ok := c.endpoints[app]
	if !ok {
		return failedResult(app, entity.ActionGrant, 0, domainErrors.ErrUnknownApp.Error())
	}

	switch ep.style {
	case verbSetStatus:
		return c.call(ctx, app, entity.ActionGrant, ep.baseURL+pathSetStatus, email, map[string]string{"status": statusLifetime})
	default:
		return c.call(ctx, app, entity.ActionGrant, ep.baseURL+pathGrant, email, nil)
	}
}

// Revoke disables the customer's access in the given app.
func (c *Client) Revoke(ctx context.Context, app entity.App, email string) entity.AppProvisionResult {
	ep, ok := c.endpoints[app]
	if !ok {
		return failedResult(app, entity.ActionRevoke, 0, domainErrors.ErrUnknownApp.Error())
	}

	switch ep.style {
	case verbSetStatus:
		return c.call(ctx, app, entity.ActionRevoke, ep.baseURL+pathSetStatus, email, map[string]string{"status": statusExpired})
	case verbLifetime:
		return c.call(ctx, app, entity.ActionRevoke, ep.baseURL+pathRevoke, email, nil)
	default:
		// No revoke endpoint exists for this app. Report success so the rest
		// of the sync proceeds, and flag the account for manual handling.
		c.logger.Warn("Revoke requested for app without revoke endpoint",
			zap.String("app", string(app)),
			zap.String("email", email))
		return entity.AppProvisionResult{
			App:     app,
			Action:  entity.ActionRevoke,
			Success: true,
			Note:    "no revoke endpoint; manual handling required",
		}
	}
}

// CheckStatus queries the app for the customer's current record. Status
// checks are operator-driven and not retried.
func (c *Client) CheckStatus(ctx context.Context, app entity.App, email string) entity.AppStatus {
	status := entity.AppStatus{App: app}

	ep, ok := c.endpoints[app]
	if !ok {
		status.Error = domainErrors.ErrUnknownApp.Error()
		return status
	}
	if c.adminKey == "" {
		status.Error = domainErrors.ErrAdminKeyNotConfigured.Error()
		return status
	}

	var body struct {
		Found     bool   `json:"found"`
		Status    string `json:"status"`
		CreatedAt string `json:"created_at"`
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("email", email).
		SetQueryParam("key", c.adminKey).
		SetResult(&body).
		Get(ep.baseURL + pathCheck)

	if err != nil {
		status.Error = err.Error()
		return status
	}
	if resp.IsError() {
		status.Error = fmt.Sprintf("%s responded %d", app, resp.StatusCode())
		return status
	}

	status.Found = body.Found
	status.Status = body.Status
	status.CreatedAt = body.CreatedAt
	return status
}

// call performs one provisioning request with the configured retry budget.
func (c *Client) call(ctx context.Context, app entity.App, action entity.ProvisionAction, url, email string, extra map[string]string) entity.AppProvisionResult {
	// A missing credential is a configuration failure: fail fast, no network.
	if c.adminKey == "" {
		c.logger.Error("Provisioning call refused: admin key not configured",
			zap.String("app", string(app)),
			zap.String("action", string(action)))
		return failedResult(app, action, 0, domainErrors.ErrAdminKeyNotConfigured.Error())
	}

	res := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("email", email).
			SetQueryParam("key", c.adminKey).
			SetQueryParams(extra).
			Get(url)

		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("%s responded %d", app, resp.StatusCode())
		}
		return nil
	})

	if !res.Success() {
		c.logger.Error("Provisioning call failed after retries",
			zap.String("app", string(app)),
			zap.String("action", string(action)),
			zap.String("email", email),
			zap.Int("attempts", res.Attempts),
			zap.Error(res.Err))
		return failedResult(app, action, res.Attempts, res.Err.Error())
	}

	c.logger.Info("Provisioning call succeeded",
		zap.String("app", string(app)),
		zap.String("action", string(action)),
		zap.String("email", email),
		zap.Int("attempts", res.Attempts))

	return entity.AppProvisionResult{
		App:      app,
		Action:   action,
		Success:  true,
		Attempts: res.Attempts,
	}
}

func failedResult(app entity.App, action entity.ProvisionAction, attempts int, msg string) entity.AppProvisionResult {
	return entity.AppProvisionResult{
		App:      app,
		Action:   action,
		Success:  false,
		Attempts: attempts,
		Error:    msg,
	}
}

var _ provider.EntitlementProvisioner = (*Client)(nil)
