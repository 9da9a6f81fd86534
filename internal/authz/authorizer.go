package authz

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avauthz/internal/observability"
	"github.com/vyrodovalexey/avauthz/internal/session"
)

// authzTracer is the OTEL tracer used for authorization operations.
var authzTracer = otel.Tracer("avauthz/authz")

// Config configures the authorizer. AccountID, Region, Stage, and
// GatewayID determine the allow-list computed once at construction.
type Config struct {
	// AccountID is the account identifier in granted resource patterns.
	AccountID string

	// Region is the deployment region in granted resource patterns.
	Region string

	// Stage is the deployment stage (e.g. "dev", "prod").
	Stage string

	// GatewayID is the concrete gateway identifier; empty falls back to
	// a wildcard in the gateway position of the allow-list pattern.
	GatewayID string

	// CookieName is the cookie key carrying the session token.
	// Defaults to "session_id".
	CookieName string
}

// Request is one authorization request.
type Request struct {
	// Headers are the raw request headers. Lookup of the cookie header
	// is case-insensitive.
	Headers map[string]string

	// Resource identifies the specific route being invoked, supplied by
	// the calling gateway. Deny decisions are scoped to exactly this
	// resource.
	Resource string
}

// Authorizer evaluates authorization requests.
type Authorizer interface {
	// Authorize evaluates one request and returns exactly one decision.
	// It never returns an error: every failure mode degrades to a deny
	// scoped to the requested resource.
	Authorize(ctx context.Context, req *Request) *Decision
}

// authorizer implements the Authorizer interface.
type authorizer struct {
	cookieName string
	allowList  []string
	store      session.Store
	logger     observability.Logger
	metrics    *Metrics
	now        func() time.Time
}

// Option is a functional option for the authorizer.
type Option func(*authorizer)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(a *authorizer) {
		a.logger = logger
	}
}

// WithMetrics sets the metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(a *authorizer) {
		a.metrics = metrics
	}
}

// WithClock sets the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(a *authorizer) {
		a.now = now
	}
}

// New creates an authorizer. The allow-list is derived from cfg once here
// and shared, immutable, across all subsequent invocations.
func New(cfg *Config, store session.Store, opts ...Option) (Authorizer, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if store == nil {
		return nil, errors.New("session store is required")
	}

	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = DefaultCookieName
	}

	a := &authorizer{
		cookieName: cookieName,
		allowList:  BuildAllowList(cfg.AccountID, cfg.Region, cfg.Stage, cfg.GatewayID),
		store:      store,
		logger:     observability.NopLogger(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.metrics == nil {
		a.metrics = NewMetrics("avauthz")
	}

	return a, nil
}

// Authorize evaluates one request. The evaluation is stateless and
// read-only: the store is never mutated and no state is shared across
// invocations beyond the immutable allow-list.
func (a *authorizer) Authorize(ctx context.Context, req *Request) (decision *Decision) {
	start := time.Now()

	if req == nil {
		req = &Request{}
	}

	ctx, span := authzTracer.Start(ctx, "authz.authorize",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("authz.resource", req.Resource),
		),
	)
	defer span.End()

	// A fault anywhere below must surface as a clean deny, never as a
	// panic in the calling gateway.
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("panic during authorization",
				observability.Any("error", r),
				observability.String("resource", req.Resource),
				observability.String("stack", string(debug.Stack())),
			)
			decision = a.deny(req.Resource, ReasonInternalFault)
		}
		result := "denied"
		if decision.Allowed() {
			result = "allowed"
		}
		a.metrics.RecordEvaluation(result, time.Since(start))
		span.SetAttributes(attribute.Bool("authz.allowed", decision.Allowed()))
	}()

	userID, err := a.validate(ctx, req.Headers)
	if err != nil {
		reason := denyReason(err)
		span.SetAttributes(attribute.String("authz.deny_reason", reason))
		a.logger.Debug("authorization denied",
			observability.String("resource", req.Resource),
			observability.String("reason", reason),
		)
		return a.deny(req.Resource, reason)
	}

	a.logger.Info("authorization allowed",
		observability.String("user_id", userID),
		observability.String("resource", req.Resource),
	)

	return &Decision{
		PrincipalID: userID,
		Effect:      EffectAllow,
		Resources:   a.allowList,
		Context:     map[string]string{ContextKeyUserID: userID},
	}
}

// validate extracts the session token and checks it against the store.
// It returns the user ID on success or one of the validation failure
// kinds; the store is consulted exactly once, with no retry.
func (a *authorizer) validate(ctx context.Context, headers map[string]string) (string, error) {
	cookieHeader := headerValue(headers, HeaderCookie)
	if cookieHeader == "" {
		return "", ErrMissingToken
	}

	token, ok := ParseCookieHeader(cookieHeader)[a.cookieName]
	if !ok || token == "" {
		return "", ErrMissingToken
	}

	sess, err := a.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return "", ErrUnknownSession
		}
		// Store failures degrade to a deny, never to an error.
		return "", err
	}

	if !sess.ValidAt(a.now()) {
		return "", ErrExpiredSession
	}

	return sess.UserID, nil
}

// deny builds a deny decision scoped to exactly the requested resource.
func (a *authorizer) deny(resource, reason string) *Decision {
	a.metrics.RecordDeny(reason)
	return &Decision{
		PrincipalID: AnonymousPrincipal,
		Effect:      EffectDeny,
		Resources:   []string{resource},
	}
}

// denyReason maps a validation failure to its deny reason label.
func denyReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return ReasonMissingToken
	case errors.Is(err, ErrUnknownSession):
		return ReasonUnknownSession
	case errors.Is(err, ErrExpiredSession):
		return ReasonExpiredSession
	case errors.Is(err, session.ErrStoreUnavailable):
		return ReasonStoreUnavailable
	default:
		return ReasonInternalFault
	}
}

// Ensure authorizer implements Authorizer.
var _ Authorizer = (*authorizer)(nil)
