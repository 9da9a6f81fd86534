package authz

import "errors"

// Validation failure kinds. All of them resolve to a deny decision inside
// the Authorizer; none propagate past the component boundary.
var (
	// ErrMissingToken indicates no session token was found in the request.
	ErrMissingToken = errors.New("no session token in request")

	// ErrUnknownSession indicates the token has no record in the store.
	ErrUnknownSession = errors.New("unknown session")

	// ErrExpiredSession indicates the session record is past expiration.
	ErrExpiredSession = errors.New("session expired")
)

// Deny reason labels used for logging and metrics.
const (
	ReasonMissingToken     = "missing_token"
	ReasonUnknownSession   = "unknown_session"
	ReasonExpiredSession   = "expired_session"
	ReasonStoreUnavailable = "store_unavailable"
	ReasonInternalFault    = "internal_fault"
)
