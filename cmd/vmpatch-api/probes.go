package main

import (
	"fmt"
	"net/http"

	"github.com/alexandremahdhaoui/vmpatch/internal/config"
)

// setupProbesServer creates an HTTP server for health probes (liveness and readiness).
func setupProbesServer(cfg *config.Config) *http.Server {
	mux := http.NewServeMux()

	ok := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}

	mux.HandleFunc(cfg.ProbesServer.LivenessPath, ok)
	mux.HandleFunc(cfg.ProbesServer.ReadinessPath, ok)

	return &http.Server{ //nolint:exhaustruct
		Addr:              fmt.Sprintf(":%d", cfg.ProbesServer.Port),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
