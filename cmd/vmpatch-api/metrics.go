package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alexandremahdhaoui/vmpatch/internal/config"
)

// setupMetricsServer creates an HTTP server for Prometheus metrics.
func setupMetricsServer(cfg *config.Config) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.MetricsServer.Path, promhttp.Handler())

	return &http.Server{ //nolint:exhaustruct
		Addr:              fmt.Sprintf(":%d", cfg.MetricsServer.Port),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
