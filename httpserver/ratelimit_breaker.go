package httpserver

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerConfig configures the circuit breaker in front of a store.
//
// Concepts:
//   - Closed: Normal state, calls reach the store.
//   - Open: Failing state, calls are rejected immediately with gobreaker.ErrOpenState.
//   - Half-Open: Probing state, limited calls test whether the store recovered.
type BreakerConfig struct {
	// Name identifies the breaker in state change callbacks.
	// Default: "ratelimit-store"
	Name string

	// ConsecutiveFailures trips the breaker. Default: 5.
	ConsecutiveFailures uint32

	// Timeout is how long the breaker stays open before probing.
	// Default: 10s
	Timeout time.Duration

	// MaxRequests is the number of probes allowed while half-open.
	// Default: 1
	MaxRequests uint32

	// OnStateChange is invoked when the breaker changes state.
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultBreakerConfig returns the breaker settings used for the Redis store.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:                "ratelimit-store",
		ConsecutiveFailures: 5,
		Timeout:             10 * time.Second,
		MaxRequests:         1,
	}
}

// BreakerStore wraps a RateLimitStore with a circuit breaker, so an
// unreachable backend costs one fast error per request instead of a network
// timeout. RateLimit fails open on those errors.
type BreakerStore struct {
	next RateLimitStore
	cb   *gobreaker.CircuitBreaker[Quota]
}

// NewBreakerStore wraps next. Zero fields in cfg take DefaultBreakerConfig values.
func NewBreakerStore(next RateLimitStore, cfg BreakerConfig) *BreakerStore {
	def := DefaultBreakerConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = def.ConsecutiveFailures
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = def.MaxRequests
	}

	st := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		// A cancelled request says nothing about the store's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: cfg.OnStateChange,
	}

	return &BreakerStore{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[Quota](st),
	}
}

// Take implements RateLimitStore.
func (s *BreakerStore) Take(ctx context.Context, key string) (Quota, error) {
	return s.cb.Execute(func() (Quota, error) {
		return s.next.Take(ctx, key)
	})
}

// State reports the breaker state.
func (s *BreakerStore) State() gobreaker.State {
	return s.cb.State()
}
