package httpserver

import (
	"context"
	"sync"
	"time"
)

// Default fixed-window policy: 100 requests per client per minute.
const (
	DefaultRateLimit       = 100
	DefaultRateLimitWindow = time.Minute
)

// Quota is the outcome of taking one request from a client's window.
type Quota struct {
	// Allowed reports whether this request fits in the window.
	Allowed bool

	// Limit is the number of requests permitted per window.
	Limit int

	// Remaining is the number of requests left in the current window.
	Remaining int

	// Window is the window length.
	Window time.Duration

	// ResetAfter is the time until the current window ends.
	ResetAfter time.Duration
}

func newQuota(limit int, window time.Duration, count int64, resetAfter time.Duration) Quota {
	remaining := int64(limit) - count
	if remaining < 0 {
		remaining = 0
	}
	if resetAfter < 0 {
		resetAfter = 0
	}
	return Quota{
		Allowed:    count <= int64(limit),
		Limit:      limit,
		Remaining:  int(remaining),
		Window:     window,
		ResetAfter: resetAfter,
	}
}

// RateLimitStore counts requests per key in fixed windows.
//
// Take counts one request for key, including rejected ones, and reports the
// resulting quota. Implementations must be safe for concurrent use.
type RateLimitStore interface {
	Take(ctx context.Context, key string) (Quota, error)
}

// MemoryStore is a single-process RateLimitStore.
//
// Windows are kept in a map and swept once per window length, so keys of
// clients that went away do not accumulate.
type MemoryStore struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	windows   map[string]*fixedWindow
	lastSweep time.Time
}

type fixedWindow struct {
	count   int64
	resetAt time.Time
}

// NewMemoryStore creates an in-memory store allowing limit requests per
// window. Non-positive values fall back to DefaultRateLimit and
// DefaultRateLimitWindow.
func NewMemoryStore(limit int, window time.Duration) *MemoryStore {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = DefaultRateLimitWindow
	}
	return &MemoryStore{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: make(map[string]*fixedWindow),
	}
}

// Take implements RateLimitStore.
func (s *MemoryStore) Take(_ context.Context, key string) (Quota, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep(now)

	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &fixedWindow{resetAt: now.Add(s.window)}
		s.windows[key] = w
	}
	w.count++

	return newQuota(s.limit, s.window, w.count, w.resetAt.Sub(now)), nil
}

// sweep drops expired windows. Caller holds s.mu.
func (s *MemoryStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < s.window {
		return
	}
	s.lastSweep = now
	for key, w := range s.windows {
		if !now.Before(w.resetAt) {
			delete(s.windows, key)
		}
	}
}
