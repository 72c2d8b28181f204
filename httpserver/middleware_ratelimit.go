package httpserver

import (
	"math"
	"net/http"
	"net/netip"
	"strconv"
	"time"

	"github.com/kroma-labs/sentinel-service/logging"
	"golang.org/x/time/rate"
)

// Standard rate limit response headers (IETF draft-6).
const (
	HeaderRateLimitPolicy    = "RateLimit-Policy"
	HeaderRateLimitLimit     = "RateLimit-Limit"
	HeaderRateLimitRemaining = "RateLimit-Remaining"
	HeaderRateLimitReset     = "RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	// Store counts requests. If nil, a MemoryStore with the default policy
	// (100 requests per minute) is used.
	Store RateLimitStore

	// KeyFunc extracts the client key from the request.
	// Default: KeyFuncByTrustedProxy(TrustedProxies) when TrustedProxies is
	// set, otherwise KeyFuncByIP().
	KeyFunc KeyFunc

	// TrustedProxies are the peers whose X-Forwarded-For is believed.
	// Ignored when KeyFunc is set.
	TrustedProxies []netip.Prefix

	// Logger receives throttled rate_limit_exceeded and
	// rate_limit_store_error records. If nil, nothing is logged.
	Logger *logging.Logger

	// LogInterval is the minimum gap between two log records of the same kind.
	// Default: 10s
	LogInterval time.Duration
}

// RateLimit returns middleware that enforces a fixed-window request quota
// per client.
//
// Every limited response carries RateLimit-Policy, RateLimit-Limit,
// RateLimit-Remaining and RateLimit-Reset. Requests over the quota get 429,
// Retry-After and {"error":"Too many requests, please try again later."}.
//
// Store errors fail open: the request is served without rate limit headers.
//
// Example:
//
//	limited := httpserver.ForPathPrefix("/api/", httpserver.RateLimit(httpserver.RateLimitConfig{
//	    Store:  httpserver.NewMemoryStore(100, time.Minute),
//	    Logger: logger,
//	}))
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore(DefaultRateLimit, DefaultRateLimitWindow)
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyFuncByIP()
		if len(cfg.TrustedProxies) > 0 {
			cfg.KeyFunc = KeyFuncByTrustedProxy(cfg.TrustedProxies)
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.LogInterval <= 0 {
		cfg.LogInterval = 10 * time.Second
	}

	exceededLog := &rate.Sometimes{First: 1, Interval: cfg.LogInterval}
	storeErrLog := &rate.Sometimes{First: 1, Interval: cfg.LogInterval}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			quota, err := cfg.Store.Take(r.Context(), cfg.KeyFunc(r))
			if err != nil {
				storeErrLog.Do(func() {
					cfg.Logger.Warn("rate_limit_store_error", logging.Meta{"error": err.Error()})
				})
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w.Header(), quota)

			if !quota.Allowed {
				exceededLog.Do(func() {
					cfg.Logger.Warn("rate_limit_exceeded", logging.Meta{
						"method": r.Method,
						"path":   r.URL.Path,
					})
				})
				w.Header().Set(HeaderRetryAfter, strconv.FormatInt(ceilSeconds(quota.ResetAfter), 10))
				WriteError(w, http.StatusTooManyRequests, MsgTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setRateLimitHeaders(h http.Header, q Quota) {
	h.Set(HeaderRateLimitPolicy, strconv.Itoa(q.Limit)+";w="+strconv.FormatInt(ceilSeconds(q.Window), 10))
	h.Set(HeaderRateLimitLimit, strconv.Itoa(q.Limit))
	h.Set(HeaderRateLimitRemaining, strconv.Itoa(q.Remaining))
	h.Set(HeaderRateLimitReset, strconv.FormatInt(ceilSeconds(q.ResetAfter), 10))
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(math.Ceil(d.Seconds()))
}
