// Package probe checks that an HTTP endpoint answers 2xx, retrying
// transient failures with exponential backoff.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	DefaultMaxTries        = 3
	DefaultInitialInterval = 200 * time.Millisecond
	DefaultMaxInterval     = time.Second
	DefaultMaxElapsedTime  = 3 * time.Second
	DefaultAttemptTimeout  = time.Second
)

// Config controls the retry sequence of Check.
type Config struct {
	// MaxTries counts the first attempt. Default: 3
	MaxTries uint

	InitialInterval time.Duration
	MaxInterval     time.Duration

	// MaxElapsedTime bounds the whole sequence. Default: 3s
	MaxElapsedTime time.Duration

	// AttemptTimeout bounds a single request. Default: 1s
	AttemptTimeout time.Duration

	Client     *http.Client
	Classifier Classifier

	// Notify is called before each retry.
	Notify func(err error, next time.Duration)
}

// DefaultConfig returns the settings used by the container healthcheck.
func DefaultConfig() Config {
	return Config{
		MaxTries:        DefaultMaxTries,
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
		MaxElapsedTime:  DefaultMaxElapsedTime,
		AttemptTimeout:  DefaultAttemptTimeout,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxTries == 0 {
		c.MaxTries = def.MaxTries
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = def.InitialInterval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = def.MaxInterval
	}
	if c.MaxElapsedTime <= 0 {
		c.MaxElapsedTime = def.MaxElapsedTime
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = def.AttemptTimeout
	}
	if c.Client == nil {
		c.Client = http.DefaultClient
	}
	if c.Classifier == nil {
		c.Classifier = DefaultClassifier
	}
	return c
}

// StatusError is returned when the endpoint answers a non-2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("probe: unexpected status %d", e.StatusCode)
}

// Check sends GET url until it answers 2xx, a non-retryable failure occurs
// or the retry budget is spent. It returns the status of the successful
// response.
func Check(ctx context.Context, url string, cfg Config) (int, error) {
	cfg = cfg.withDefaults()

	b := &backoff.ExponentialBackOff{
		InitialInterval:     cfg.InitialInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         cfg.MaxInterval,
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(cfg.MaxTries),
		backoff.WithMaxElapsedTime(cfg.MaxElapsedTime),
	}
	if cfg.Notify != nil {
		opts = append(opts, backoff.WithNotify(cfg.Notify))
	}

	return backoff.Retry(ctx, func() (int, error) {
		status, err := attempt(ctx, url, cfg)
		if err == nil {
			return status, nil
		}

		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return 0, err
		}

		var resp *http.Response
		if status != 0 {
			resp = &http.Response{StatusCode: status}
		}
		if !cfg.Classifier(resp, unwrapStatus(err)) {
			return 0, backoff.Permanent(err)
		}
		return 0, err
	}, opts...)
}

func attempt(ctx context.Context, url string, cfg Config) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, backoff.Permanent(fmt.Errorf("probe: build request: %w", err))
	}

	resp, err := cfg.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("probe: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &StatusError{StatusCode: resp.StatusCode}
	}
	return resp.StatusCode, nil
}

// unwrapStatus hides status errors from the classifier, which sees the
// status on the response instead.
func unwrapStatus(err error) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return nil
	}
	return err
}
