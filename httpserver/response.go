package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
)

// Client-facing error messages.
const (
	MsgInternalError    = "Internal server error"
	MsgNotFound         = "Not found"
	MsgMethodNotAllowed = "Method not allowed"
	MsgTooManyRequests  = "Too many requests, please try again later."
	MsgEntityTooLarge   = "Request entity too large"
)

// ErrResponseWrite wraps failures to write a response body after the header
// was sent, typically because the client went away. Handle logs these at
// debug level instead of as unhandled errors.
var ErrResponseWrite = errors.New("httpserver: write response")

// ErrorBody is the only shape clients ever see for failures:
//
//	{"error": "Not found"}
type ErrorBody struct {
	Error string `json:"error"`
}

// WriteJSON encodes v and writes it with the given status code.
//
// The body is encoded before anything is sent, so an encoding error leaves
// the response untouched and is returned to the caller.
//
// Example:
//
//	return httpserver.WriteJSON(w, http.StatusOK, pingResponse{Message: "pong"})
func WriteJSON(w http.ResponseWriter, statusCode int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("httpserver: encode response: %w", err)
	}

	return WriteBody(w, statusCode, "application/json; charset=utf-8", body)
}

// WriteBody sends body with the given status and content type. A failed
// write is returned wrapped in ErrResponseWrite.
func WriteBody(w http.ResponseWriter, statusCode int, contentType string, body []byte) error {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("%w: %w", ErrResponseWrite, err)
	}
	return nil
}

// WriteError writes {"error": message} with the given status code.
//
// Example:
//
//	httpserver.WriteError(w, http.StatusNotFound, httpserver.MsgNotFound)
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	// ErrorBody always encodes; a failed write means the client is gone.
	_ = WriteJSON(w, statusCode, ErrorBody{Error: message})
}

// NotFoundHandler answers 404 {"error":"Not found"}.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, MsgNotFound)
	})
}

// MethodNotAllowedHandler answers 405 {"error":"Method not allowed"}.
func MethodNotAllowedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
	})
}
