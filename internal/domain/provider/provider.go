package provider

import (
	"context"

	"github.com/safesuite/provisioning/internal/domain/entity"
)

// EntitlementProvisioner performs one grant or revoke call against one app's
// admin endpoint. Implementations carry no shared mutable state between
// calls; every call is independent and safe to run concurrently with any
// other.
type EntitlementProvisioner interface {
	// Grant enables lifetime access for the customer in the given app.
	Grant(ctx context.Context, app entity.App, email string) entity.AppProvisionResult

	// Revoke disables the customer's access in the given app. Apps without a
	// revoke endpoint report success with a manual-handling note instead of
	// attempting a call.
	Revoke(ctx context.Context, app entity.App, email string) entity.AppProvisionResult

	// CheckStatus queries the app for the customer's current record.
	CheckStatus(ctx context.Context, app entity.App, email string) entity.AppStatus
}
