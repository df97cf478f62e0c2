/*
Copyright 2024 Alexandre Mahdhaoui

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alexandremahdhaoui/vmpatch/internal/app"
	"github.com/alexandremahdhaoui/vmpatch/internal/config"
	"github.com/alexandremahdhaoui/vmpatch/internal/util/gracefulshutdown"
	"github.com/alexandremahdhaoui/vmpatch/internal/util/httputil"
)

const (
	Name = "vmpatch-api"

	readHeaderTimeout = 5 * time.Second
)

var (
	Version        = "dev" //nolint:gochecknoglobals // set by ldflags
	CommitSHA      = "n/a" //nolint:gochecknoglobals // set by ldflags
	BuildTimestamp = "n/a" //nolint:gochecknoglobals // set by ldflags
)

// ------------------------------------------------- Main ----------------------------------------------------------- //

func main() {
	_, _ = fmt.Fprintf(
		os.Stdout,
		"Starting %s version %s (%s) %s\n",
		Name,
		Version,
		CommitSHA,
		BuildTimestamp,
	)

	gs := gracefulshutdown.New(Name)
	ctx := gs.Context()

	// --------------------------------------------- Config --------------------------------------------------------- //

	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.ErrorContext(ctx, "loading configuration", "error", err.Error())
		gs.Shutdown(1)
	}

	_, flush, err := app.SetupLogging(cfg)
	if err != nil {
		slog.ErrorContext(ctx, "setting up logging", "error", err.Error())
		gs.Shutdown(1)
	}
	defer flush()

	// --------------------------------------------- Controller ----------------------------------------------------- //

	vmpatch, err := app.NewVMPatch(cfg, prometheus.DefaultRegisterer)
	if err != nil {
		slog.ErrorContext(ctx, "creating vmpatch", "error", err.Error())
		gs.Shutdown(1)
	}

	// --------------------------------------------- App ------------------------------------------------------------ //

	apiServer, err := setupAPIServer(ctx, cfg, vmpatch)
	if err != nil {
		slog.ErrorContext(ctx, "creating api server", "error", err.Error())
		gs.Shutdown(1)
	}

	// --------------------------------------------- Run Server ----------------------------------------------------- //

	httputil.Serve(map[string]*http.Server{
		"api":     apiServer,
		"metrics": setupMetricsServer(cfg),
		"probes":  setupProbesServer(cfg),
	}, gs)

	slog.Info("✅ gracefully stopped", "binary", Name)
}
