package httpserver

import "net/http"

// DefaultBodyLimit is the request body cap applied by the service (1 MiB).
const DefaultBodyLimit int64 = 1 << 20

// BodyLimit returns middleware that caps request bodies at limit bytes.
//
// Requests that declare a larger Content-Length are rejected up front with
// 413. Bodies without a declared length are cut off by http.MaxBytesReader
// and the handler sees a *http.MaxBytesError when reading past the limit.
func BodyLimit(limit int64) Middleware {
	if limit <= 0 {
		limit = DefaultBodyLimit
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				WriteError(w, http.StatusRequestEntityTooLarge, MsgEntityTooLarge)
				return
			}
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
