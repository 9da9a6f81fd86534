// Package authz implements the session-based request authorization gate.
//
// Given the headers of an inbound request and the resource it targets,
// the Authorizer extracts a session token from the cookie header,
// validates it against the external session store, and produces exactly
// one access decision: an allow carrying the full configured allow-list
// and caller identity, or a deny scoped to the single requested resource.
//
// The component is fail-closed by design. Every failure mode — missing
// token, unknown or expired session, unreachable store, internal fault —
// is absorbed inside Authorize and converted into a deny; no error ever
// escapes to the caller. The specific failure kind is logged and counted
// in metrics but never changes the shape of the returned decision.
//
// The allow-list is derived from static configuration once at
// construction and is immutable afterwards, so concurrent invocations
// share it without locking.
package authz
