package ctxutil

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/pkg/errors"
)

// ErrSignal is matched by the error of a context that expired because the
// process received a signal.
var ErrSignal = errors.New("signal received")

// SignalError reports the signal that ended a context.
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	return ErrSignal.Error() + ": " + e.Signal.String()
}

func (e *SignalError) Is(target error) bool { return target == ErrSignal }

// WithLifetime returns a context that expires when the process receives
// SIGINT or SIGTERM.
func WithLifetime(ctx context.Context) context.Context {
	return WithSignals(ctx, syscall.SIGINT, syscall.SIGTERM)
}

// WithSignals returns a context that expires with its parent, or when the
// process receives one of sigs.  In the latter case, Err returns a
// *SignalError.
func WithSignals(ctx context.Context, sigs ...os.Signal) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	sctx := &sigctx{Context: ctx}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)

	go func() {
		defer signal.Stop(ch)

		select {
		case sig := <-ch:
			sctx.setErr(&SignalError{Signal: sig})
			cancel()
		case <-ctx.Done():
		}
	}()

	return sctx
}

type sigctx struct {
	context.Context

	mu  sync.Mutex
	err error
}

func (ctx *sigctx) setErr(err error) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	ctx.err = err
}

func (ctx *sigctx) Err() error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if ctx.err != nil {
		return ctx.err
	}

	return ctx.Context.Err()
}

// Signal returns the signal that ended ctx, if any.
func Signal(err error) (os.Signal, bool) {
	var serr *SignalError
	if errors.As(err, &serr) {
		return serr.Signal, true
	}

	return nil, false
}
