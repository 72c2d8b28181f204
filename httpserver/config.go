package httpserver

import (
	"net/http"
	"time"

	"github.com/kroma-labs/sentinel-service/logging"
)

// Config holds the server settings. Start from DefaultConfig and override
// fields, or use the With* options.
type Config struct {
	// Addr is the listen address. Default: ":8080"
	Addr string

	// Timeouts passed to http.Server. Zero disables the corresponding limit.
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	// MaxHeaderBytes caps request header size. Default: 1 MiB
	MaxHeaderBytes int

	// ShutdownTimeout is the grace period in-flight requests get once
	// shutdown starts. Connections still open afterwards are closed and
	// Serve returns ErrShutdownTimeout. Default: 10s
	ShutdownTimeout time.Duration

	// Logger receives lifecycle records. Nil disables them.
	Logger *logging.Logger

	// Middleware wraps Handler; the first entry is the outermost.
	Middleware []Middleware

	// Handler is required.
	Handler http.Handler
}

// DefaultConfig returns the settings used when no option overrides them:
// 15s read and write, 10s header read, 60s idle, 10s shutdown grace.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
		ShutdownTimeout:   10 * time.Second,
	}
}
