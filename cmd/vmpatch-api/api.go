package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alexandremahdhaoui/vmpatch/internal/config"
	"github.com/alexandremahdhaoui/vmpatch/internal/controller"
	"github.com/alexandremahdhaoui/vmpatch/internal/driver/server"
	"github.com/alexandremahdhaoui/vmpatch/internal/util/tlsutil"
)

// setupAPIServer creates the HTTP server of the vmpatch API. It serves TLS when apiServer.tls is enabled.
func setupAPIServer(ctx context.Context, cfg *config.Config, vmpatch controller.VMPatch) (*http.Server, error) {
	handler, err := server.New(ctx, vmpatch, Version)
	if err != nil {
		return nil, err
	}

	tlsConfig, err := tlsutil.BuildTLSConfig(&cfg.APIServer.TLS)
	if err != nil {
		return nil, err
	}

	return &http.Server{ //nolint:exhaustruct
		Addr:              fmt.Sprintf(":%d", cfg.APIServer.Port),
		Handler:           handler,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: readHeaderTimeout,
	}, nil
}
