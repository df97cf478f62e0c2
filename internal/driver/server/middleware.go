// Copyright 2024 Alexandre Mahdhaoui
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/justinas/alice"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClientIPContextKey is the context key for storing the client IP address.
	ClientIPContextKey contextKey = "client_ip"
	// RequestIDContextKey is the context key for storing the request ID.
	RequestIDContextKey contextKey = "request_id"

	// RequestIDHeader carries the request ID. It is generated when the client does not send one.
	RequestIDHeader = "X-Request-ID"
)

// Middlewares returns the chain wrapping the API router.
func Middlewares(router routers.Router) alice.Chain {
	return alice.New(
		RequestIDMiddleware,
		ClientIPMiddleware,
		func(next http.Handler) http.Handler {
			return handlers.CombinedLoggingHandler(accessLogWriter{}, next)
		},
		handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{})),
		OpenAPIValidationMiddleware(router),
	)
}

// ----------------------------------------------------- REQUEST ID ------------------------------------------------- //

// RequestIDMiddleware propagates the X-Request-ID header, generating a UUID when absent.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), RequestIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDContextKey).(string); ok {
		return id
	}

	return ""
}

// ------------------------------------------------------ CLIENT IP ------------------------------------------------- //

// ClientIPMiddleware extracts the client IP from the request and adds it to the context.
func ClientIPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ClientIPContextKey, extractClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractClientIP checks X-Forwarded-For (first entry), then X-Real-IP, then RemoteAddr.
func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}

// GetClientIP retrieves the client IP from the context.
// Returns empty string if not found.
func GetClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ClientIPContextKey).(string); ok {
		return ip
	}

	return ""
}

// ---------------------------------------------------- VALIDATION -------------------------------------------------- //

// OpenAPIValidationMiddleware rejects requests that do not match the OpenAPI document with a 400. Requests for paths
// unknown to the document are passed through.
func OpenAPIValidationMiddleware(router routers.Router) alice.Constructor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    &openapi3filter.Options{AuthenticationFunc: openapi3filter.NoopAuthenticationFunc},
			}

			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				slog.InfoContext(r.Context(), "rejecting invalid request",
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
					"err", err.Error(),
				)

				writeJSON(w, http.StatusBadRequest, failureResponse{
					Status:    statusError,
					Message:   err.Error(),
					ErrorKind: errorKindInvalidRequest,
				})

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------------------------------ LOGGING --------------------------------------------------- //

// accessLogWriter forwards the Apache combined log lines to slog.
type accessLogWriter struct{}

func (accessLogWriter) Write(p []byte) (int, error) {
	slog.Info("access", "line", string(bytes.TrimSpace(p)))
	return len(p), nil
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	slog.Error("recovered from panic", "err", fmt.Sprint(v...))
}
