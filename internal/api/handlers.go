package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/kroma-labs/sentinel-service/httpserver"
	"github.com/kroma-labs/sentinel-service/metrics"
)

// TimestampFormat is ISO-8601 with millisecond precision.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

type handlers struct {
	registry *metrics.Registry
	region   string
	env      string
	now      func() time.Time
}

// StatusResponse is the body of /health and /ready.
type StatusResponse struct {
	Status string `json:"status"`
	Region string `json:"region,omitempty"`
	TS     string `json:"ts"`
}

// PingResponse is the body of /api/v1/ping.
type PingResponse struct {
	Message string `json:"message"`
	Env     string `json:"env,omitempty"`
	Region  string `json:"region,omitempty"`
}

func (h *handlers) timestamp() string {
	return h.now().UTC().Format(TimestampFormat)
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) error {
	return httpserver.WriteJSON(w, http.StatusOK, StatusResponse{
		Status: "healthy",
		Region: h.region,
		TS:     h.timestamp(),
	})
}

func (h *handlers) ready(w http.ResponseWriter, _ *http.Request) error {
	return httpserver.WriteJSON(w, http.StatusOK, StatusResponse{
		Status: "ready",
		Region: h.region,
		TS:     h.timestamp(),
	})
}

func (h *handlers) ping(w http.ResponseWriter, _ *http.Request) error {
	return httpserver.WriteJSON(w, http.StatusOK, PingResponse{
		Message: "pong",
		Env:     h.env,
		Region:  h.region,
	})
}

func (h *handlers) metrics(w http.ResponseWriter, _ *http.Request) error {
	var buf bytes.Buffer
	if _, err := h.registry.WriteTo(&buf); err != nil {
		return fmt.Errorf("render metrics: %w", err)
	}

	return httpserver.WriteBody(w, http.StatusOK, metrics.ContentType, buf.Bytes())
}
