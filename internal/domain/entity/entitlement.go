package entity

import (
	"sort"
	"strings"
)

// Metadata keys attached to billing events by the checkout flow.
const (
	MetadataKeyApps   = "apps"
	MetadataKeyBundle = "bundle"
	MetadataKeyEmail  = "email"
)

// EntitlementSet is the set of apps a customer is authorized to use.
type EntitlementSet map[App]struct{}

// NewEntitlementSet builds a set from the given apps.
func NewEntitlementSet(apps ...App) EntitlementSet {
	s := make(EntitlementSet, len(apps))
	for _, a := range apps {
		s[a] = struct{}{}
	}
	return s
}

// FullEntitlementSet returns the set of all known apps. This is the
// backward-compatibility default for events predating per-app metadata.
func FullEntitlementSet() EntitlementSet {
	return NewEntitlementSet(AllApps()...)
}

func (s EntitlementSet) Contains(app App) bool {
	_, ok := s[app]
	return ok
}

func (s EntitlementSet) Add(app App) {
	s[app] = struct{}{}
}

func (s EntitlementSet) Len() int {
	return len(s)
}

// Difference returns the apps present in s but not in other.
func (s EntitlementSet) Difference(other EntitlementSet) EntitlementSet {
	diff := make(EntitlementSet)
	for app := range s {
		if !other.Contains(app) {
			diff[app] = struct{}{}
		}
	}
	return diff
}

// Apps returns the members in stable order.
func (s EntitlementSet) Apps() []App {
	apps := make([]App, 0, len(s))
	for app := range s {
		apps = append(apps, app)
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i] < apps[j] })
	return apps
}

// Strings returns the members as plain strings in stable order.
func (s EntitlementSet) Strings() []string {
	apps := s.Apps()
	out := make([]string, len(apps))
	for i, app := range apps {
		out[i] = string(app)
	}
	return out
}

func (s EntitlementSet) String() string {
	return strings.Join(s.Strings(), ",")
}

// ResolveEntitlements computes the desired entitlement set from billing-event
// metadata. An explicit "apps" list is parsed as comma-delimited identifiers
// and intersected with the known apps; unrecognized values are dropped.
// A missing "apps" key is a legacy event shape and resolves to the full set,
// as does a list that filters down to nothing.
func ResolveEntitlements(metadata map[string]string) EntitlementSet {
	raw, ok := metadata[MetadataKeyApps]
	if !ok {
		return FullEntitlementSet()
	}

	set := make(EntitlementSet)
	for _, part := range strings.Split(raw, ",") {
		if app, valid := ParseApp(strings.TrimSpace(part)); valid {
			set.Add(app)
		}
	}

	if set.Len() == 0 {
		return FullEntitlementSet()
	}
	return set
}

// IsBundle reports whether the event metadata marks a bundled purchase.
func IsBundle(metadata map[string]string) bool {
	return strings.EqualFold(metadata[MetadataKeyBundle], "true")
}
