package session

import (
	"context"
	"errors"
)

// Common session store errors.
var (
	// ErrSessionNotFound indicates that no record exists for the token.
	// Malformed records are also reported as not found: an undecodable
	// session must never authenticate a caller.
	ErrSessionNotFound = errors.New("session not found")

	// ErrStoreUnavailable indicates a transient failure reaching the store.
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// Store is a read-only view of the external session store.
type Store interface {
	// Get retrieves a session by its token. It returns ErrSessionNotFound
	// when no usable record exists and ErrStoreUnavailable on transport
	// failures. Get never mutates the stored record.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Ping checks store reachability for readiness probes.
	Ping(ctx context.Context) error
}
