//go:build unit

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

package httputil_test

import (
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandremahdhaoui/vmpatch/internal/util/certutil"
	"github.com/alexandremahdhaoui/vmpatch/internal/util/gracefulshutdown"
	"github.com/alexandremahdhaoui/vmpatch/internal/util/httputil"
	"github.com/alexandremahdhaoui/vmpatch/internal/util/tlsutil"
)

type exitRecorder struct {
	mu     sync.Mutex
	called bool
	code   int
}

func (e *exitRecorder) exit(code int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Only capture first exit call
	if !e.called {
		e.code = code
		e.called = true
	}
}

func (e *exitRecorder) get() (bool, int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.called, e.code
}

func freeAddr(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	require.NoError(t, l.Close())

	return addr
}

// TestServe verifies the Serve() function with mocked graceful shutdown.
func TestServe(t *testing.T) {
	t.Run("serve handles graceful shutdown", func(t *testing.T) {
		rec := &exitRecorder{}
		gs := gracefulshutdown.NewWithExit("test", rec.exit)

		var name string

		addr := freeAddr(t)
		server := &http.Server{
			Addr: addr,
			Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				name = httputil.ServerName(r.Context())
				w.WriteHeader(http.StatusOK)
			}),
			ReadHeaderTimeout: time.Second,
		}

		go httputil.Serve(map[string]*http.Server{"test-server": server}, gs)

		require.Eventually(t, func() bool {
			resp, err := http.Get("http://" + addr)
			if err != nil {
				return false
			}
			defer resp.Body.Close()

			return resp.StatusCode == http.StatusOK
		}, 2*time.Second, 20*time.Millisecond)

		assert.Equal(t, "test-server", name)

		// Cancel context to trigger shutdown
		gs.CancelFunc()()

		require.Eventually(t, func() bool {
			called, _ := rec.get()
			return called
		}, 2*time.Second, 20*time.Millisecond)

		_, code := rec.get()
		assert.Equal(t, 0, code, "should exit with code 0 on graceful shutdown")
	})

	t.Run("serve handles server startup error", func(t *testing.T) {
		rec := &exitRecorder{}
		gs := gracefulshutdown.NewWithExit("test", rec.exit)

		// Create server that will fail to start (port already in use)
		blocker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer blocker.Close()

		server := &http.Server{
			Addr:              blocker.Listener.Addr().String(),
			Handler:           http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
			ReadHeaderTimeout: time.Second,
		}

		go httputil.Serve(map[string]*http.Server{"test-server": server}, gs)

		require.Eventually(t, func() bool {
			called, _ := rec.get()
			return called
		}, 2*time.Second, 20*time.Millisecond)

		_, code := rec.get()
		assert.Equal(t, 1, code, "should exit with code 1 on error")
	})

	t.Run("serve tls", func(t *testing.T) {
		ca, err := certutil.NewCA()
		require.NoError(t, err)

		files, err := ca.WriteKeyPair(t.TempDir(), "127.0.0.1")
		require.NoError(t, err)

		tlsConfig, err := tlsutil.BuildTLSConfig(&tlsutil.Config{
			Enabled:  true,
			CertPath: files.CertPath,
			KeyPath:  files.KeyPath,
		})
		require.NoError(t, err)

		rec := &exitRecorder{}
		gs := gracefulshutdown.NewWithExit("test", rec.exit)

		addr := freeAddr(t)
		server := &http.Server{
			Addr: addr,
			Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("secure"))
			}),
			TLSConfig:         tlsConfig,
			ReadHeaderTimeout: time.Second,
		}

		go httputil.Serve(map[string]*http.Server{"api": server}, gs)
		defer gs.CancelFunc()()

		client := &http.Client{Transport: &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: ca.Pool(), MinVersion: tls.VersionTLS12},
		}}

		var body []byte

		require.Eventually(t, func() bool {
			resp, err := client.Get("https://" + addr)
			if err != nil {
				return false
			}
			defer resp.Body.Close()

			body, err = io.ReadAll(resp.Body)

			return err == nil
		}, 2*time.Second, 20*time.Millisecond)

		assert.Equal(t, "secure", string(body))
	})
}

func TestServerName(t *testing.T) {
	assert.Empty(t, httputil.ServerName(t.Context()))
}
