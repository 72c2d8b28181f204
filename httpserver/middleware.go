package httpserver

import (
	"net/http"
	"strings"
)

// Middleware is a function that wraps an http.Handler.
//
// Middleware functions are composed together using Chain() to create
// a processing pipeline for HTTP requests.
type Middleware func(http.Handler) http.Handler

// Chain composes multiple middleware into a single middleware.
//
// Middleware are applied in the order provided. The first middleware
// is the outermost (runs first on request, last on response).
//
// Example:
//
//	handler := httpserver.Chain(
//	    httpserver.RequestID(),
//	    httpserver.Instrument(instrumentCfg),
//	    httpserver.Recovery(logger),
//	)(router)
//
// Request flow:
//
//	RequestID -> Instrument -> Recovery -> router -> Recovery -> Instrument -> RequestID
func Chain(middlewares ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		// Apply in reverse order so first middleware is outermost
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// ForPathPrefix applies m only to requests whose URL path starts with prefix.
// Other requests go straight to the next handler.
//
// Example:
//
//	// Only /api/... is rate limited; /health and /metrics are not.
//	handler := httpserver.ForPathPrefix("/api/", httpserver.RateLimit(cfg))(router)
func ForPathPrefix(prefix string, m Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		wrapped := m(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, prefix) {
				wrapped.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
