// Command healthcheck probes the local server's /health endpoint and exits
// 0 when it answers 2xx, 1 otherwise. It is meant for container
// HEALTHCHECK directives, where no shell or curl is available.
package main

import (
	"context"
	"os"

	"github.com/kroma-labs/sentinel-service/internal/config"
	"github.com/kroma-labs/sentinel-service/internal/probe"
	"github.com/kroma-labs/sentinel-service/logging"
)

func main() {
	logger, _ := logging.New(logging.Config{Level: "info", Writer: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		logger.Error("healthcheck_failed", logging.Meta{"error": err.Error()})
		os.Exit(1)
	}

	url := "http://127.0.0.1" + cfg.Addr() + "/health"

	status, err := probe.Check(context.Background(), url, probe.DefaultConfig())
	if err != nil {
		logger.Error("healthcheck_failed", logging.Meta{"url": url, "error": err.Error()})
		os.Exit(1)
	}

	logger.Debug("healthcheck_ok", logging.Meta{"url": url, "status": status})
}
