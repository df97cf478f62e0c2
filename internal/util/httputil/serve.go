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

package httputil

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/alexandremahdhaoui/vmpatch/internal/util/gracefulshutdown"
)

type contextKey string

const (
	serverNameContextKey contextKey = "server_name"

	shutdownTimeout = 1 * time.Minute
)

// ServerName returns the name under which the server handling the request was registered to Serve.
func ServerName(ctx context.Context) string {
	name, _ := ctx.Value(serverNameContextKey).(string)
	return name
}

// Serve serves the given servers and handles graceful shutdown. A server with a TLSConfig serves TLS using the
// certificates of that config.
func Serve(servers map[string]*http.Server, gs *gracefulshutdown.GracefulShutdown) {
	// 1. Run the servers.
	for name, server := range servers {
		ctx := context.WithValue(gs.Context(), serverNameContextKey, name)

		// sets the base context to be the GracefulShutdown's context.
		server.BaseContext = func(_ net.Listener) context.Context {
			return ctx
		}

		gs.Go(name, func() error {
			slog.InfoContext(ctx, "starting server", "server", name, "addr", server.Addr, "tls", server.TLSConfig != nil)

			if err := listenAndServe(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			// The server stopped running without errors: Go initiates a graceful shutdown if none was previously
			// initiated.
			return nil
		})
	}

	// 2. Signal that all Add() calls have been made.
	gs.Ready()

	// 3. Await context is done.
	<-gs.Context().Done()

	// 4. Gracefully shutdown each server.
	for name, server := range servers {
		go func() {
			ctx := context.WithValue(context.Background(), serverNameContextKey, name)

			ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.ErrorContext(ctx, "❌ received error while shutting down server", "server", name, "error", err)

				return
			}

			slog.Info("✅ gracefully shut down server", "server", name)
		}()
	}
}

func listenAndServe(server *http.Server) error {
	if server.TLSConfig != nil {
		// certificates are already loaded into TLSConfig.
		return server.ListenAndServeTLS("", "")
	}

	return server.ListenAndServe()
}
