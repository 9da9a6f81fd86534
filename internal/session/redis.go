package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avauthz/internal/observability"
)

// sessionTracer is the OTEL tracer used for session store operations.
var sessionTracer = otel.Tracer("avauthz/session")

// RedisStore is a Redis-backed session store. Session records are JSON
// blobs keyed by "<prefix>:<session_id>".
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	timeout   time.Duration
	logger    observability.Logger
	metrics   *Metrics
}

// RedisStoreOption is a functional option for the Redis store.
type RedisStoreOption func(*RedisStore)

// WithStoreLogger sets the logger.
func WithStoreLogger(logger observability.Logger) RedisStoreOption {
	return func(s *RedisStore) {
		s.logger = logger
	}
}

// WithStoreMetrics sets the metrics.
func WithStoreMetrics(metrics *Metrics) RedisStoreOption {
	return func(s *RedisStore) {
		s.metrics = metrics
	}
}

// WithLookupTimeout bounds a single lookup. Zero disables the per-call
// deadline and defers to the caller's context.
func WithLookupTimeout(timeout time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		s.timeout = timeout
	}
}

// NewRedisStore creates a session store backed by the given Redis client.
func NewRedisStore(client redis.UniversalClient, keyPrefix string, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics("avauthz")
	}
	return s
}

// key builds the Redis key for a session token.
func (s *RedisStore) key(sessionID string) string {
	return s.keyPrefix + ":" + sessionID
}

// Get retrieves and decodes a session record. The lookup is a single GET
// with no retry; transport errors surface as ErrStoreUnavailable and a
// missing or undecodable record as ErrSessionNotFound.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	start := time.Now()

	ctx, span := sessionTracer.Start(ctx, "session.get",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			span.SetAttributes(attribute.String("session.result", "not_found"))
			s.metrics.RecordLookup("not_found", time.Since(start))
			return nil, ErrSessionNotFound
		}
		span.SetStatus(codes.Error, err.Error())
		s.metrics.RecordLookup("error", time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// A record we cannot decode must never authenticate a caller.
		s.logger.Warn("malformed session record",
			observability.Error(err),
		)
		span.SetAttributes(attribute.String("session.result", "malformed"))
		s.metrics.RecordLookup("malformed", time.Since(start))
		return nil, fmt.Errorf("%w: malformed record", ErrSessionNotFound)
	}
	sess.SessionID = sessionID

	span.SetAttributes(attribute.String("session.result", "found"))
	s.metrics.RecordLookup("found", time.Since(start))
	return &sess, nil
}

// Ping checks Redis reachability.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
