package httpserver

import (
	"errors"
	"net/http"

	"github.com/kroma-labs/sentinel-service/logging"
)

// HandlerFunc is an http handler that reports failure by returning an error
// instead of writing the error response itself.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handle adapts fn to an http.Handler. A returned error is logged as
// unhandled_error and answered with 500 {"error":"Internal server error"}
// unless fn already started the response. Errors wrapping ErrResponseWrite
// after the header went out only get a debug response_write_failed record.
//
// Example:
//
//	router.Method(http.MethodGet, "/health", httpserver.Handle(logger, func(w http.ResponseWriter, r *http.Request) error {
//	    return httpserver.WriteJSON(w, http.StatusOK, body)
//	}))
func Handle(logger *logging.Logger, fn HandlerFunc) http.Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := wrapResponseWriter(w)
		if err := fn(rw, r); err != nil {
			handleUnhandledError(logger, rw, r, err)
		}
	})
}

// handleUnhandledError is the single catch-all for handler errors and panics.
// Only the error message is logged; stack traces never leave the process.
func handleUnhandledError(logger *logging.Logger, rw *responseWriter, r *http.Request, err error) {
	meta := logging.Meta{
		"error":  err.Error(),
		"method": r.Method,
		"path":   r.URL.Path,
	}
	if id := RequestIDFromContext(r.Context()); id != "" {
		meta["request_id"] = id
	}
	if rw.Written() && errors.Is(err, ErrResponseWrite) {
		logger.Debug("response_write_failed", meta)
		return
	}
	logger.Error("unhandled_error", meta)

	if !rw.Written() {
		WriteError(rw, http.StatusInternalServerError, MsgInternalError)
	}
}
