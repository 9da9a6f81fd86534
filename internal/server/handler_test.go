package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avauthz/internal/authz"
	"github.com/vyrodovalexey/avauthz/internal/config"
	"github.com/vyrodovalexey/avauthz/internal/health"
	"github.com/vyrodovalexey/avauthz/internal/observability"
	"github.com/vyrodovalexey/avauthz/internal/session"
)

// stubStore serves a single fixed session.
type stubStore struct {
	sess *session.Session
	err  error
}

func (s *stubStore) Get(_ context.Context, sessionID string) (*session.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.sess != nil && s.sess.SessionID == sessionID {
		return s.sess, nil
	}
	return nil, session.ErrSessionNotFound
}

func (s *stubStore) Ping(_ context.Context) error {
	return s.err
}

// newTestServer builds a server over a stub store.
func newTestServer(t *testing.T, store session.Store) *Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.Authorizer.AccountID = "123456789012"
	cfg.Authorizer.Region = "eu-west-1"
	cfg.Authorizer.Stage = "prod"
	cfg.Authorizer.GatewayID = "gw1"
	cfg.ApplyDefaults()

	authorizer, err := authz.New(
		&authz.Config{
			AccountID: cfg.Authorizer.AccountID,
			Region:    cfg.Authorizer.Region,
			Stage:     cfg.Authorizer.Stage,
			GatewayID: cfg.Authorizer.GatewayID,
		},
		store,
		authz.WithMetrics(&authz.Metrics{}),
	)
	require.NoError(t, err)

	checker := health.NewChecker("test")
	checker.RegisterCheck("session-store", store.Ping)

	return New(cfg, authorizer, checker, prometheus.NewRegistry(), observability.NopLogger())
}

// doAuthorize posts one authorize payload and decodes the policy.
func doAuthorize(t *testing.T, srv *Server, payload any) (*httptest.ResponseRecorder, *authz.Policy) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/authorize", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		return rec, nil
	}

	var policy authz.Policy
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &policy))
	return rec, &policy
}

func TestHandleAuthorize(t *testing.T) {
	t.Parallel()

	const methodArn = "arn:aws:execute-api:eu-west-1:123456789012:gw1/prod/GET/threads"

	t.Run("valid session allows", func(t *testing.T) {
		t.Parallel()

		store := &stubStore{sess: &session.Session{
			SessionID:  "abc123",
			UserID:     "u1",
			Expiration: time.Now().Unix() + 3600,
		}}
		srv := newTestServer(t, store)

		rec, policy := doAuthorize(t, srv, map[string]any{
			"headers":   map[string]string{"Cookie": "session_id=abc123"},
			"methodArn": methodArn,
		})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u1", policy.PrincipalID)
		require.Len(t, policy.PolicyDocument.Statement, 1)
		assert.Equal(t, "Allow", policy.PolicyDocument.Statement[0].Effect)
		assert.Equal(t, "arn:aws:execute-api:eu-west-1:123456789012:gw1/prod/*",
			policy.PolicyDocument.Statement[0].Resource)
		assert.Equal(t, map[string]string{"user_id": "u1"}, policy.Context)
	})

	t.Run("missing cookie denies", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &stubStore{})

		rec, policy := doAuthorize(t, srv, map[string]any{
			"headers":   map[string]string{},
			"methodArn": methodArn,
		})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, authz.AnonymousPrincipal, policy.PrincipalID)
		require.Len(t, policy.PolicyDocument.Statement, 1)
		assert.Equal(t, "Deny", policy.PolicyDocument.Statement[0].Effect)
		assert.Equal(t, methodArn, policy.PolicyDocument.Statement[0].Resource)
		assert.Nil(t, policy.Context)
	})

	t.Run("store failure denies with 200", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &stubStore{err: errors.New("connection refused")})

		rec, policy := doAuthorize(t, srv, map[string]any{
			"headers":   map[string]string{"Cookie": "session_id=xyz"},
			"methodArn": methodArn,
		})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Deny", policy.PolicyDocument.Statement[0].Effect)
	})

	t.Run("missing methodArn rejects payload", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &stubStore{})

		rec, _ := doAuthorize(t, srv, map[string]any{
			"headers": map[string]string{"Cookie": "session_id=abc"},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body rejects payload", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &stubStore{})

		req := httptest.NewRequest(http.MethodPost, "/v1/authorize", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("live always healthy", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &stubStore{})

		req := httptest.NewRequest(http.MethodGet, "/healthz/live", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("ready reflects store reachability", func(t *testing.T) {
		t.Parallel()

		store := &stubStore{}
		srv := newTestServer(t, store)

		req := httptest.NewRequest(http.MethodGet, "/healthz/ready", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		store.err = session.ErrStoreUnavailable
		rec = httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubStore{})

	t.Run("generates request id", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/healthz/live", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
	})

	t.Run("preserves caller request id", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/healthz/live", nil)
		req.Header.Set(HeaderRequestID, "caller-id-1")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		assert.Equal(t, "caller-id-1", rec.Header().Get(HeaderRequestID))
	})
}
