package authz

// Header and cookie constants.
const (
	// HeaderCookie is the Cookie header name.
	HeaderCookie = "Cookie"

	// DefaultCookieName is the default cookie key carrying the session token.
	DefaultCookieName = "session_id"
)

// Policy document constants.
const (
	// PolicyVersion is the policy document version understood by the
	// consuming gateway.
	PolicyVersion = "2012-10-17"

	// ActionInvoke is the action granted or denied by a decision.
	ActionInvoke = "execute-api:Invoke"

	// AnonymousPrincipal is the principal recorded on deny decisions,
	// where no authenticated identity is available.
	AnonymousPrincipal = "user"
)

// ContextKeyUserID is the decision context key carrying the caller's user
// ID to downstream consumers.
const ContextKeyUserID = "user_id"
