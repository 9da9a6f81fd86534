// Package session provides read-only access to the external session store.
//
// The authorizer only ever reads sessions: a lookup never renews, touches,
// or deletes a record. Sessions are created and expired by the surrounding
// system. The Redis-backed Store distinguishes "not found" from "store
// unavailable" via sentinel errors so the authorizer can count deny
// reasons, but both outcomes degrade to a deny upstream.
package session
