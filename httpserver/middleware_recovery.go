package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kroma-labs/sentinel-service/logging"
)

// Recovery returns middleware that recovers from panics.
//
// When a panic occurs:
//   - The panic is recovered
//   - One unhandled_error record is logged with the panic message
//   - A 500 {"error":"Internal server error"} is returned if nothing was written yet
//
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
//
// Example:
//
//	handler := httpserver.Recovery(logger)(router)
func Recovery(logger *logging.Logger) Middleware {
	if logger == nil {
		logger = logging.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := wrapResponseWriter(w)

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				handleUnhandledError(logger, rw, r, panicError(rec))
			}()

			next.ServeHTTP(rw, r)
		})
	}
}

func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return fmt.Errorf("%v", rec)
}
