package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProvisioningFailureAlert is built when at least one app remains
// unprovisioned after exhausting retries. It is rendered into a notification
// and captured by the error-tracking sink; it is not persisted as its own
// entity.
type ProvisioningFailureAlert struct {
	ID             uuid.UUID
	Email          string
	AmountCents    int64
	Currency       string
	EventID        string
	EventType      string
	Failed         []AppProvisionResult
	RemediationURL string
	CreatedAt      time.Time
}

// Amount renders the charged amount in major units, e.g. "19.99".
func (a *ProvisioningFailureAlert) Amount() string {
	return decimal.NewFromInt(a.AmountCents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

// FailedApps returns the identifiers of the apps that could not be provisioned.
func (a *ProvisioningFailureAlert) FailedApps() []App {
	apps := make([]App, 0, len(a.Failed))
	for _, f := range a.Failed {
		apps = append(apps, f.App)
	}
	return apps
}
