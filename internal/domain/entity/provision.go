package entity

// ProvisionAction distinguishes the two directions of a provisioning call.
type ProvisionAction string

const (
	ActionGrant  ProvisionAction = "grant"
	ActionRevoke ProvisionAction = "revoke"
)

// AppProvisionResult is the outcome of one provisioning call for one app.
// It is created once per call and never mutated afterwards.
type AppProvisionResult struct {
	App      App             `json:"app"`
	Action   ProvisionAction `json:"action"`
	Success  bool            `json:"success"`
	Attempts int             `json:"attempts"`
	Error    string          `json:"error,omitempty"`
	// Note carries operational context for results that succeeded without a
	// remote call, e.g. a revoke against an app with no revoke endpoint.
	Note string `json:"note,omitempty"`
}

// SyncResult aggregates the per-app outcomes of one sync operation.
type SyncResult struct {
	Email   string               `json:"email"`
	Granted EntitlementSet       `json:"-"`
	Revoked EntitlementSet       `json:"-"`
	Results []AppProvisionResult `json:"results"`
}

// Success reports whether every individual provisioning call succeeded.
func (r SyncResult) Success() bool {
	for _, res := range r.Results {
		if !res.Success {
			return false
		}
	}
	return true
}

// FailedResults returns the results for apps that exhausted their retries.
func (r SyncResult) FailedResults() []AppProvisionResult {
	var failed []AppProvisionResult
	for _, res := range r.Results {
		if !res.Success {
			failed = append(failed, res)
		}
	}
	return failed
}
