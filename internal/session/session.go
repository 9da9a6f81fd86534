package session

import "time"

// Session is a previously established authenticated session, owned by the
// external store.
type Session struct {
	// SessionID is the opaque token identifying the session.
	SessionID string `json:"session_id"`

	// UserID identifies the authenticated principal.
	UserID string `json:"user_id"`

	// Expiration is the absolute expiry timestamp in epoch seconds.
	Expiration int64 `json:"expiration"`
}

// ValidAt reports whether the session is unexpired at t. A session is
// valid only while its expiration is strictly in the future; the exact
// expiration instant is already invalid.
func (s *Session) ValidAt(t time.Time) bool {
	return s.Expiration > t.Unix()
}
