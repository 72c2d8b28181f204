// Package httpserver provides an HTTP server with graceful shutdown and the
// middleware the service runs every request through.
//
// # Quick Start
//
//	server := httpserver.New(
//	    httpserver.WithAddr(":8080"),
//	    httpserver.WithLogger(logger),
//	    httpserver.WithHandler(router),
//	)
//
//	if err := server.ListenAndServe(ctx); err != nil {
//	    // ErrShutdownTimeout: in-flight requests were cut off
//	}
//
// # Pipeline
//
// Middleware compose with Chain, outermost first:
//
//	handler := httpserver.Chain(
//	    httpserver.SecurityHeaders(),
//	    httpserver.RequestID(),
//	    httpserver.Tracing(tracingCfg),
//	    httpserver.Instrument(instrumentCfg),
//	    httpserver.Recovery(logger),
//	    httpserver.BodyLimit(httpserver.DefaultBodyLimit),
//	    httpserver.ForPathPrefix("/api/", httpserver.RateLimit(rateLimitCfg)),
//	)(router)
//
// # Errors
//
// Handlers written as HandlerFunc return errors instead of writing them.
// Handle and Recovery turn returned errors and panics into
// 500 {"error":"Internal server error"} and one unhandled_error log record.
//
// # Rate Limiting
//
// RateLimit counts requests per client in fixed windows. Pick a store:
//
//	// Single replica
//	store := httpserver.NewMemoryStore(100, time.Minute)
//
//	// Shared across replicas, bypassed quickly when Redis is down
//	store := httpserver.NewBreakerStore(
//	    httpserver.NewRedisStore(rdb, httpserver.RedisStoreConfig{}),
//	    httpserver.DefaultBreakerConfig(),
//	)
package httpserver
