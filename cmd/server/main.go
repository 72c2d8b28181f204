package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kroma-labs/sentinel-service/httpserver"
	"github.com/kroma-labs/sentinel-service/internal/api"
	"github.com/kroma-labs/sentinel-service/internal/config"
	"github.com/kroma-labs/sentinel-service/internal/telemetry"
	"github.com/kroma-labs/sentinel-service/logging"
	"github.com/kroma-labs/sentinel-service/metrics"
	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		// The configured level may be the invalid part.
		fallback, _ := logging.New(logging.Config{Level: "info"})
		fallback.Error("startup_failed", logging.Meta{"error": err.Error()})
		return 1
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Fields: logging.Meta{"service": cfg.App.ServiceName},
	})
	if err != nil {
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		if errors.Is(err, httpserver.ErrShutdownTimeout) {
			return 1
		}
		logger.Error("startup_failed", logging.Meta{"error": err.Error()})
		return 1
	}
	return 0
}

func serve(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	registry := metrics.NewRegistry()
	if err := registry.RegisterProcessMetrics(metrics.ProcessPrefix(cfg.Metrics.Namespace)); err != nil {
		return fmt.Errorf("process metrics: %w", err)
	}

	opts := api.Options{
		Logger:           logger,
		Registry:         registry,
		MetricsNamespace: cfg.Metrics.Namespace,
		ServiceName:      cfg.App.ServiceName,
		Region:           cfg.App.Region,
		Env:              cfg.App.Environment(),
	}

	trusted, err := cfg.RateLimit.TrustedProxyPrefixes()
	if err != nil {
		return err
	}
	opts.TrustedProxies = trusted

	if cfg.Tracing.Enabled {
		tp, shutdown, err := telemetry.Setup(ctx, telemetry.Config{
			ServiceName: cfg.App.ServiceName,
			Environment: cfg.App.Environment(),
			Endpoint:    cfg.Tracing.OTLPEndpoint,
			Insecure:    cfg.Tracing.OTLPInsecure,
		})
		if err != nil {
			return err
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				logger.Warn("tracer_shutdown_failed", logging.Meta{"error": err.Error()})
			}
		}()
		opts.TracerProvider = tp
	}

	if cfg.RateLimit.RedisURL != "" {
		store, closeStore, err := redisRateLimitStore(cfg.RateLimit.RedisURL, logger)
		if err != nil {
			return err
		}
		defer closeStore()
		opts.RateLimitStore = store
	}

	handler, err := api.NewHandler(opts)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	app := httpserver.New(
		httpserver.WithAddr(cfg.Addr()),
		httpserver.WithLogger(logger),
		httpserver.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		httpserver.WithHandler(handler),
	)
	g.Go(func() error { return app.ListenAndServe(gctx) })

	if cfg.Pprof.Addr != "" {
		debug := httpserver.New(
			httpserver.WithAddr(cfg.Pprof.Addr),
			httpserver.WithLogger(logger.With(logging.Meta{"server": "pprof"})),
			httpserver.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
			httpserver.WithHandler(httpserver.PprofHandler(httpserver.PprofConfig{
				Username: cfg.Pprof.Username,
				Password: cfg.Pprof.Password,
			})),
		)
		g.Go(func() error { return debug.ListenAndServe(gctx) })
	}

	return g.Wait()
}

// redisRateLimitStore shares rate limit windows across instances through
// Redis, behind a circuit breaker.
func redisRateLimitStore(url string, logger *logging.Logger) (httpserver.RateLimitStore, func(), error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parse RATE_LIMIT_REDIS_URL: %w", err)
	}
	client := redis.NewClient(redisOpts)

	breakerCfg := httpserver.DefaultBreakerConfig()
	breakerCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		logger.Warn("rate_limit_breaker_state_change", logging.Meta{
			"breaker": name,
			"from":    from.String(),
			"to":      to.String(),
		})
	}

	store := httpserver.NewBreakerStore(
		httpserver.NewRedisStore(client, httpserver.RedisStoreConfig{}),
		breakerCfg,
	)
	return store, func() { _ = client.Close() }, nil
}
