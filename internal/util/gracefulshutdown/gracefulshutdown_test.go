//go:build unit

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

package gracefulshutdown_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandremahdhaoui/vmpatch/internal/util/gracefulshutdown"
)

type exitRecorder struct {
	calls atomic.Int32
	code  atomic.Int32
	done  chan struct{}
}

func newExitRecorder() *exitRecorder {
	return &exitRecorder{done: make(chan struct{})}
}

func (e *exitRecorder) exit(code int) {
	if e.calls.Add(1) == 1 {
		e.code.Store(int32(code))
		close(e.done)
	}
}

func (e *exitRecorder) await(t *testing.T) int {
	t.Helper()

	select {
	case <-e.done:
	case <-time.After(2 * time.Second):
		t.Fatal("exit was not called")
	}

	return int(e.code.Load())
}

func TestNew(t *testing.T) {
	gs := gracefulshutdown.NewWithExit("vmpatch-api", newExitRecorder().exit)
	require.NotNil(t, gs)

	assert.NoError(t, gs.Context().Err(), "context should not be cancelled initially")
	assert.NotNil(t, gs.CancelFunc())
	assert.NotNil(t, gs.WaitGroup())

	gs.CancelFunc()()
	<-gs.Context().Done()
	assert.Error(t, gs.Context().Err())
}

func TestGracefulShutdown_Shutdown(t *testing.T) {
	for _, exitCode := range []int{0, 1} {
		rec := newExitRecorder()
		gs := gracefulshutdown.NewWithExit("test", rec.exit)

		var finished atomic.Bool

		gs.WaitGroup().Add(1)
		go func() {
			defer gs.WaitGroup().Done()

			time.Sleep(10 * time.Millisecond)
			finished.Store(true)
		}()

		gs.Shutdown(exitCode)

		assert.Equal(t, exitCode, rec.await(t))
		assert.True(t, finished.Load(), "shutdown should await the wait group")
		assert.Error(t, gs.Context().Err(), "context should be cancelled")
	}
}

func TestGracefulShutdown_ShutdownIdempotency(t *testing.T) {
	rec := newExitRecorder()
	gs := gracefulshutdown.NewWithExit("test", rec.exit)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gs.Shutdown(i)
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), rec.calls.Load(), "exit should be called exactly once")
}

func TestGracefulShutdown_Go(t *testing.T) {
	t.Run("failure exits with 1", func(t *testing.T) {
		rec := newExitRecorder()
		gs := gracefulshutdown.NewWithExit("test", rec.exit)

		gs.Go("failing", func() error { return assert.AnError })
		gs.Ready()

		assert.Equal(t, 1, rec.await(t))
	})

	t.Run("return exits with 0", func(t *testing.T) {
		rec := newExitRecorder()
		gs := gracefulshutdown.NewWithExit("test", rec.exit)

		gs.Go("done", func() error { return nil })
		gs.Ready()

		assert.Equal(t, 0, rec.await(t))
	})

	t.Run("cancel awaits goroutines", func(t *testing.T) {
		rec := newExitRecorder()
		gs := gracefulshutdown.NewWithExit("test", rec.exit)

		var stopped atomic.Bool

		gs.Go("worker", func() error {
			<-gs.Context().Done()
			time.Sleep(10 * time.Millisecond)
			stopped.Store(true)

			return nil
		})
		gs.Ready()

		gs.CancelFunc()()

		assert.Equal(t, 0, rec.await(t))
		assert.True(t, stopped.Load())
	})
}
