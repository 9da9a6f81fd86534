package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avauthz/internal/session"
)

// mockStore is an in-memory session store for testing.
type mockStore struct {
	sessions map[string]*session.Session
	err      error
	panicOn  string
	calls    int
}

func (m *mockStore) Get(_ context.Context, sessionID string) (*session.Session, error) {
	m.calls++
	if m.panicOn == sessionID {
		panic("store blew up")
	}
	if m.err != nil {
		return nil, m.err
	}
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return sess, nil
}

func (m *mockStore) Ping(_ context.Context) error {
	return m.err
}

// testClock returns a fixed time source.
func testClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// newTestAuthorizer builds an authorizer over the given store with a
// fixed clock and unregistered metrics.
func newTestAuthorizer(t *testing.T, store session.Store, now time.Time) Authorizer {
	t.Helper()

	a, err := New(
		&Config{
			AccountID: "123456789012",
			Region:    "eu-west-1",
			Stage:     "prod",
			GatewayID: "gw1",
		},
		store,
		WithClock(testClock(now)),
		WithMetrics(&Metrics{}),
	)
	require.NoError(t, err)
	return a
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		a, err := New(nil, &mockStore{})
		assert.Error(t, err)
		assert.Nil(t, a)
	})

	t.Run("nil store", func(t *testing.T) {
		t.Parallel()

		a, err := New(&Config{}, nil)
		assert.Error(t, err)
		assert.Nil(t, a)
	})
}

func TestAuthorizeAllow(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	store := &mockStore{sessions: map[string]*session.Session{
		"abc123": {SessionID: "abc123", UserID: "u1", Expiration: now.Unix() + 3600},
	}}
	a := newTestAuthorizer(t, store, now)

	decision := a.Authorize(context.Background(), &Request{
		Headers:  map[string]string{"Cookie": "session_id=abc123"},
		Resource: "arn:aws:execute-api:eu-west-1:123456789012:gw1/prod/GET/threads",
	})

	assert.Equal(t, "u1", decision.PrincipalID)
	assert.Equal(t, EffectAllow, decision.Effect)
	assert.Equal(t, []string{
		"arn:aws:execute-api:eu-west-1:123456789012:gw1/prod/*",
	}, decision.Resources)
	assert.Equal(t, map[string]string{"user_id": "u1"}, decision.Context)
}

func TestAuthorizeAllowLowercaseCookieHeader(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	store := &mockStore{sessions: map[string]*session.Session{
		"abc123": {SessionID: "abc123", UserID: "u1", Expiration: now.Unix() + 60},
	}}
	a := newTestAuthorizer(t, store, now)

	decision := a.Authorize(context.Background(), &Request{
		Headers:  map[string]string{"cookie": "session_id=abc123"},
		Resource: "res",
	})

	assert.Equal(t, EffectAllow, decision.Effect)
	assert.Equal(t, "u1", decision.PrincipalID)
}

func TestAuthorizeDeny(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	const resource = "arn:aws:execute-api:eu-west-1:123456789012:gw1/prod/POST/threads"

	// assertDeny checks the deny contract: anonymous principal, deny
	// effect, scope limited to exactly the requested resource, no context.
	assertDeny := func(t *testing.T, decision *Decision) {
		t.Helper()
		assert.Equal(t, AnonymousPrincipal, decision.PrincipalID)
		assert.Equal(t, EffectDeny, decision.Effect)
		assert.Equal(t, []string{resource}, decision.Resources)
		assert.Nil(t, decision.Context)
	}

	t.Run("no cookie header", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		a := newTestAuthorizer(t, store, now)

		decision := a.Authorize(context.Background(), &Request{
			Headers:  map[string]string{"Accept": "*/*"},
			Resource: resource,
		})

		assertDeny(t, decision)
		assert.Zero(t, store.calls, "store must not be consulted without a token")
	})

	t.Run("nil headers", func(t *testing.T) {
		t.Parallel()

		a := newTestAuthorizer(t, &mockStore{}, now)
		assertDeny(t, a.Authorize(context.Background(), &Request{Resource: resource}))
	})

	t.Run("empty cookie header", func(t *testing.T) {
		t.Parallel()

		a := newTestAuthorizer(t, &mockStore{}, now)
		assertDeny(t, a.Authorize(context.Background(), &Request{
			Headers:  map[string]string{"Cookie": ""},
			Resource: resource,
		}))
	})

	t.Run("cookie without session_id key", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		a := newTestAuthorizer(t, store, now)

		assertDeny(t, a.Authorize(context.Background(), &Request{
			Headers:  map[string]string{"Cookie": "foo=bar"},
			Resource: resource,
		}))
		assert.Zero(t, store.calls)
	})

	t.Run("unknown session", func(t *testing.T) {
		t.Parallel()

		a := newTestAuthorizer(t, &mockStore{sessions: map[string]*session.Session{}}, now)
		assertDeny(t, a.Authorize(context.Background(), &Request{
			Headers:  map[string]string{"Cookie": "session_id=nope"},
			Resource: resource,
		}))
	})

	t.Run("expired session", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{sessions: map[string]*session.Session{
			"expired1": {SessionID: "expired1", UserID: "u2", Expiration: now.Unix() - 10},
		}}
		a := newTestAuthorizer(t, store, now)

		assertDeny(t, a.Authorize(context.Background(), &Request{
			Headers:  map[string]string{"Cookie": "session_id=expired1"},
			Resource: resource,
		}))
	})

	t.Run("session expiring exactly now is invalid", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{sessions: map[string]*session.Session{
			"edge": {SessionID: "edge", UserID: "u3", Expiration: now.Unix()},
		}}
		a := newTestAuthorizer(t, store, now)

		assertDeny(t, a.Authorize(context.Background(), &Request{
			Headers:  map[string]string{"Cookie": "session_id=edge"},
			Resource: resource,
		}))
	})

	t.Run("store unavailable", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{err: session.ErrStoreUnavailable}
		a := newTestAuthorizer(t, store, now)

		assertDeny(t, a.Authorize(context.Background(), &Request{
			Headers:  map[string]string{"Cookie": "session_id=xyz"},
			Resource: resource,
		}))
	})

	t.Run("unexpected store error", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{err: errors.New("boom")}
		a := newTestAuthorizer(t, store, now)

		assertDeny(t, a.Authorize(context.Background(), &Request{
			Headers:  map[string]string{"Cookie": "session_id=xyz"},
			Resource: resource,
		}))
	})

	t.Run("panic during lookup degrades to deny", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{panicOn: "kaboom"}
		a := newTestAuthorizer(t, store, now)

		assert.NotPanics(t, func() {
			assertDeny(t, a.Authorize(context.Background(), &Request{
				Headers:  map[string]string{"Cookie": "session_id=kaboom"},
				Resource: resource,
			}))
		})
	})
}

func TestAuthorizeIdempotent(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	store := &mockStore{sessions: map[string]*session.Session{
		"abc123": {SessionID: "abc123", UserID: "u1", Expiration: now.Unix() + 3600},
	}}
	a := newTestAuthorizer(t, store, now)

	req := &Request{
		Headers:  map[string]string{"Cookie": "session_id=abc123"},
		Resource: "res",
	}

	first := a.Authorize(context.Background(), req)
	second := a.Authorize(context.Background(), req)
	assert.Equal(t, first, second)
}

func TestAuthorizeCustomCookieName(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	store := &mockStore{sessions: map[string]*session.Session{
		"tok": {SessionID: "tok", UserID: "u9", Expiration: now.Unix() + 60},
	}}

	a, err := New(
		&Config{
			AccountID:  "acct",
			Region:     "region",
			Stage:      "dev",
			CookieName: "sid",
		},
		store,
		WithClock(testClock(now)),
		WithMetrics(&Metrics{}),
	)
	require.NoError(t, err)

	allowed := a.Authorize(context.Background(), &Request{
		Headers:  map[string]string{"Cookie": "sid=tok"},
		Resource: "res",
	})
	assert.Equal(t, EffectAllow, allowed.Effect)

	// The default key no longer matches.
	denied := a.Authorize(context.Background(), &Request{
		Headers:  map[string]string{"Cookie": "session_id=tok"},
		Resource: "res",
	})
	assert.Equal(t, EffectDeny, denied.Effect)
}

func TestDenyReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{ErrMissingToken, ReasonMissingToken},
		{ErrUnknownSession, ReasonUnknownSession},
		{ErrExpiredSession, ReasonExpiredSession},
		{session.ErrStoreUnavailable, ReasonStoreUnavailable},
		{errors.New("anything else"), ReasonInternalFault},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, denyReason(tt.err))
	}
}
