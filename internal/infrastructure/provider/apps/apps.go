package apps

import (
	"github.com/safesuite/provisioning/internal/config"
	"github.com/safesuite/provisioning/internal/domain/entity"
)

// The three apps grew up independently and expose inconsistent admin verbs:
// SafeTunes has a single set-status endpoint taking a lifetime/expired
// parameter, while SafeTube and SafeReads expose dedicated grant-lifetime
// verbs. SafeReads never shipped a revoke endpoint; revokes there are
// acknowledged as manual-handling no-ops instead of being attempted against
// a nonexistent route.
type verbStyle int

const (
	verbSetStatus verbStyle = iota
	verbLifetime
	verbGrantOnly
)

const (
	pathSetStatus = "/api/admin/set-subscription-status"
	pathGrant     = "/api/admin/grant-lifetime"
	pathRevoke    = "/api/admin/revoke-lifetime"
	pathCheck     = "/api/admin/check-subscription"

	statusLifetime = "lifetime"
	statusExpired  = "expired"
)

type endpoint struct {
	baseURL string
	style   verbStyle
}

// endpointTable binds each app to its base URL and verb style at construction
// time, so call sites never branch on app names.
func endpointTable(cfg *config.AppsConfig) map[entity.App]endpoint {
	return map[entity.App]endpoint{
		entity.AppSafeTunes: {baseURL: cfg.SafeTunes.BaseURL, style: verbSetStatus},
		entity.AppSafeTube:  {baseURL: cfg.SafeTube.BaseURL, style: verbLifetime},
		entity.AppSafeReads: {baseURL: cfg.SafeReads.BaseURL, style: verbGrantOnly},
	}
}
