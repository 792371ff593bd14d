//go:build !windows

package ctxutil_test

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	ctxutil "github.com/wetware/cljhost/internal/util/ctx"
)

func TestWithSignals(t *testing.T) {
	t.Run("Parent", func(t *testing.T) {
		parent, cancel := context.WithCancel(context.Background())
		ctx := ctxutil.WithSignals(parent, syscall.SIGUSR1)
		assert.NoError(t, ctx.Err())

		cancel()

		select {
		case <-ctx.Done():
			assert.ErrorIs(t, ctx.Err(), context.Canceled)

			_, ok := ctxutil.Signal(ctx.Err())
			assert.False(t, ok, "should not report a signal")
		case <-time.After(time.Second):
			t.Fatal("should expire with its parent")
		}
	})

	t.Run("Signal", func(t *testing.T) {
		ctx := ctxutil.WithSignals(context.Background(), syscall.SIGUSR2)
		assert.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR2))

		select {
		case <-ctx.Done():
			assert.True(t, errors.Is(ctx.Err(), ctxutil.ErrSignal),
				"should report the signal (got %v)", ctx.Err())
			assert.Contains(t, ctx.Err().Error(), "user defined signal 2")

			sig, ok := ctxutil.Signal(ctx.Err())
			assert.True(t, ok, "should expose the signal")
			assert.Equal(t, syscall.SIGUSR2, sig)
		case <-time.After(time.Second):
			t.Fatal("should expire when signaled")
		}
	})
}
