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

package gracefulshutdown

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// GracefulShutdown ties the lifetime of the long running goroutines of a binary to SIGTERM and SIGINT.
type GracefulShutdown struct {
	ctx    context.Context
	cancel context.CancelFunc
	name   string

	once      sync.Once
	readyOnce sync.Once
	wg        *sync.WaitGroup

	// ready is closed by Ready(): every WaitGroup.Add() happened before it.
	ready chan struct{}

	exitFunc func(int)
}

// NewWithExit creates a GracefulShutdown that calls exitFunc instead of os.Exit.
func NewWithExit(name string, exitFunc func(int)) *GracefulShutdown {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)

	gs := &GracefulShutdown{
		ctx:      ctx,
		cancel:   cancel,
		name:     name,
		wg:       &sync.WaitGroup{},
		ready:    make(chan struct{}),
		exitFunc: exitFunc,
	}

	// Shutdown is always called at least once when the context is done.
	go func() {
		select {
		case <-gs.ready:
			<-ctx.Done()
		case <-ctx.Done():
			slog.Warn("context cancelled before Ready() was called, proceeding with shutdown anyway",
				"binary", gs.name)
		}

		gs.Shutdown(0)
	}()

	return gs
}

// New creates a GracefulShutdown whose context is cancelled by its CancelFunc, a SIGTERM or a SIGINT.
func New(name string) *GracefulShutdown {
	return NewWithExit(name, os.Exit)
}

// Go runs f in a goroutine tracked by the wait group. Once f returns, a shutdown is initiated with exit code 1 if f
// failed and 0 otherwise.
//
// Go must be called before Ready.
func (s *GracefulShutdown) Go(name string, f func() error) {
	s.wg.Add(1)

	go func() {
		err := f()

		// Done() must precede Shutdown(): Shutdown awaits the wait group.
		s.wg.Done()

		if err != nil {
			slog.ErrorContext(s.ctx, "❌ received error", "goroutine", name, "error", err)
			s.Shutdown(1)

			return
		}

		s.Shutdown(0)
	}()
}

// Shutdown cancels the context, awaits the tracked goroutines and exits. Only the first call has any effect.
func (s *GracefulShutdown) Shutdown(exitCode int) {
	s.once.Do(func() {
		slog.InfoContext(s.ctx, "⌛ gracefully shutting down", "binary", s.name, "exitCode", exitCode)

		s.cancel()
		s.wg.Wait()
		s.exitFunc(exitCode)
	})
}

// Context returns the context of the graceful shutdown.
func (s *GracefulShutdown) Context() context.Context {
	return s.ctx
}

// CancelFunc returns the cancel function of the graceful shutdown.
func (s *GracefulShutdown) CancelFunc() context.CancelFunc {
	return s.cancel
}

// WaitGroup returns the wait group of the graceful shutdown.
func (s *GracefulShutdown) WaitGroup() *sync.WaitGroup {
	return s.wg
}

// Ready signals that all WaitGroup.Add() calls have been made. It is safe to call multiple times.
func (s *GracefulShutdown) Ready() {
	s.readyOnce.Do(func() {
		close(s.ready)
	})
}
