package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/vyrodovalexey/avauthz/internal/observability"
)

// BreakerStore wraps a Store with a circuit breaker. When the breaker is
// open, lookups short-circuit to ErrStoreUnavailable without touching the
// underlying store; the authorizer maps that outcome to a deny. There is
// no inline retry: a definitive "not found" is not a store failure and
// never trips the breaker.
type BreakerStore struct {
	store   Store
	cb      *gobreaker.CircuitBreaker
	logger  observability.Logger
	metrics *Metrics
}

// BreakerStoreOption is a functional option for the breaker store.
type BreakerStoreOption func(*BreakerStore)

// WithBreakerLogger sets the logger.
func WithBreakerLogger(logger observability.Logger) BreakerStoreOption {
	return func(b *BreakerStore) {
		b.logger = logger
	}
}

// WithBreakerMetrics sets the metrics.
func WithBreakerMetrics(metrics *Metrics) BreakerStoreOption {
	return func(b *BreakerStore) {
		b.metrics = metrics
	}
}

// NewBreakerStore wraps store with a circuit breaker. minRequests is the
// minimum number of observed requests before the breaker can trip; timeout
// is how long the breaker stays open before probing.
func NewBreakerStore(store Store, minRequests int, timeout time.Duration, opts ...BreakerStoreOption) *BreakerStore {
	b := &BreakerStore{
		store:  store,
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}

	minRequestsU32 := safeIntToUint32(minRequests)

	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "session-store",
		MaxRequests: 1,
		Interval:    timeout,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequestsU32 && failureRatio >= 0.5
		},
		IsSuccessful: func(err error) bool {
			// A missing session is a definitive answer, not a store failure.
			return err == nil || errors.Is(err, ErrSessionNotFound)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			b.logger.Info("session store circuit breaker state change",
				observability.String("name", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
			b.metrics.SetBreakerState(breakerStateValue(to))
		},
	})

	return b
}

// Get performs a breaker-guarded session lookup.
func (b *BreakerStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.store.Get(ctx, sessionID)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			b.metrics.RecordLookup("rejected", 0)
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return nil, err
	}

	sess, ok := result.(*Session)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected lookup result", ErrStoreUnavailable)
	}
	return sess, nil
}

// Ping checks the underlying store directly, bypassing the breaker.
func (b *BreakerStore) Ping(ctx context.Context) error {
	return b.store.Ping(ctx)
}

// State returns the current breaker state.
func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}

// Ensure BreakerStore implements Store.
var _ Store = (*BreakerStore)(nil)

// breakerStateValue maps a gobreaker state to its metric value.
func breakerStateValue(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// safeIntToUint32 converts an int to uint32, clamping negatives to zero.
func safeIntToUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	if n > int(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n) //nolint:gosec // bounds checked above
}
