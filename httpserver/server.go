package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kroma-labs/sentinel-service/logging"
)

var (
	// ErrShutdownTimeout is returned when in-flight requests did not finish
	// within the grace period and the server had to close them forcibly.
	ErrShutdownTimeout = errors.New("httpserver: graceful shutdown timed out")

	errNoHandler = errors.New("httpserver: handler is required (use WithHandler)")
)

// Server wraps http.Server with graceful shutdown, signal handling,
// and lifecycle logging.
//
// Create a Server using New():
//
//	server := httpserver.New(
//	    httpserver.WithAddr(":8080"),
//	    httpserver.WithLogger(logger),
//	    httpserver.WithHandler(router),
//	)
//
//	// Blocks until shutdown signal (SIGTERM, SIGINT) or context cancellation
//	if err := server.ListenAndServe(ctx); err != nil {
//	    os.Exit(1)
//	}
type Server struct {
	httpServer *http.Server
	config     Config
	logger     *logging.Logger
}

// New creates a new Server with the provided options.
//
// At minimum, you must provide a handler using WithHandler().
// If no config is provided, DefaultConfig() is used.
func New(opts ...Option) *Server {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultConfig().ShutdownTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	handler := cfg.Handler
	if handler != nil && len(cfg.Middleware) > 0 {
		handler = Chain(cfg.Middleware...)(handler)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	return &Server{
		httpServer: httpServer,
		config:     cfg,
		logger:     logger,
	}
}

// ListenAndServe binds Addr and serves until shutdown.
//
// The server will shut down gracefully when:
//   - The provided context is cancelled
//   - SIGTERM or SIGINT is received
//
// Returns nil on clean shutdown and ErrShutdownTimeout if in-flight requests
// outlived the grace period.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.config.Handler == nil {
		return errNoHandler
	}

	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("httpserver: listen on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until shutdown. It takes ownership of ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.config.Handler == nil {
		_ = ln.Close()
		return errNoHandler
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(shutdownChan)

	serverErrChan := make(chan error, 1)

	meta := logging.Meta{"addr": ln.Addr().String()}
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		meta["port"] = tcpAddr.Port
	}
	s.logger.Info("server_started", meta)

	go func() {
		// ErrServerClosed is expected during graceful shutdown
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
		close(serverErrChan)
	}()

	var reason string
	select {
	case err, ok := <-serverErrChan:
		if ok && err != nil {
			s.logger.Error("server_error", logging.Meta{"error": err.Error()})
			return fmt.Errorf("httpserver: serve: %w", err)
		}
		// Stopped through Shutdown by another caller.
		return nil
	case sig := <-shutdownChan:
		reason = sig.String()
	case <-ctx.Done():
		reason = "context_cancelled"
	}

	return s.shutdown(ctx, reason)
}

// shutdown drains in-flight requests, then forces the remaining connections
// closed once the grace period is spent.
func (s *Server) shutdown(ctx context.Context, reason string) error {
	timeout := s.config.ShutdownTimeout
	s.logger.Info("graceful_shutdown_started", logging.Meta{
		"reason":     reason,
		"timeout_ms": timeout.Milliseconds(),
	})

	// The parent ctx is usually the one that was just cancelled.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("graceful_shutdown_timeout", logging.Meta{
			"timeout_ms": timeout.Milliseconds(),
			"error":      err.Error(),
		})

		if closeErr := s.httpServer.Close(); closeErr != nil {
			s.logger.Error("server_error", logging.Meta{"error": closeErr.Error()})
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrShutdownTimeout
		}
		return fmt.Errorf("httpserver: shutdown: %w", err)
	}

	s.logger.Info("graceful_shutdown_complete")
	return nil
}

// Shutdown stops the server without waiting for a signal. Serve then
// returns nil.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured listen address.
//
// Note: with ":0" this is not the bound address. Pass your own listener to
// Serve when the port must be known.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
