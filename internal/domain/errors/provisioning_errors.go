package errors

import "errors"

var (
	// ErrAdminKeyNotConfigured indicates the shared admin credential is missing;
	// provisioning calls fail fast without touching the network.
	ErrAdminKeyNotConfigured = errors.New("app admin key is not configured")

	// ErrUnknownApp indicates an app identifier outside the known set
	ErrUnknownApp = errors.New("unknown app identifier")

	// ErrMissingCustomerEmail indicates a billing event without a usable customer identity
	ErrMissingCustomerEmail = errors.New("billing event carries no customer email")
)
