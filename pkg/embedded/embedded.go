// Package embedded drives the embedded mode of a Clojure bridging library
// such as libpython-clj2, in which the host process owns the JVM.
package embedded

import (
	"context"
	"fmt"

	"github.com/wetware/cljhost/pkg/clj"
)

const (
	DefaultNamespace = "libpython-clj2.embedded"
	DefaultInitFn    = "initialize!"
	DefaultREPLFn    = "start-repl!"
)

// Bridge names the entry points of the bridging library.  The zero value
// uses the libpython-clj2 defaults.
type Bridge struct {
	Namespace string
	InitFn    string
	REPLFn    string
}

// Initialize requires the bridge namespace and calls its initialization
// function with no arguments.  It must be called exactly once per VM.
func (b Bridge) Initialize(rt *clj.Runtime) error {
	if err := rt.Require(b.ns()); err != nil {
		return err
	}

	v, err := rt.FindVar(b.ns(), b.initFn())
	if err != nil {
		return err
	}

	if _, err = v.Invoke(); err != nil {
		return fmt.Errorf("%s: %w", v, err)
	}

	rt.Log().WithField("ns", b.ns()).Debug("embedded bridge initialized")
	return nil
}

// StartREPL starts an nREPL server inside the VM.  Options are passed as
// a keyword map, e.g. {"port": 7888} becomes {:port 7888}; empty options
// are passed as nil.
//
// The server call does not return while the server is running.  StartREPL
// blocks until it does, or until ctx expires, in which case it returns
// ctx.Err() and the server keeps running in the VM.
func (b Bridge) StartREPL(ctx context.Context, rt *clj.Runtime, opts map[string]any) error {
	if err := rt.Require(b.ns()); err != nil {
		return err
	}

	v, err := rt.FindVar(b.ns(), b.replFn())
	if err != nil {
		return err
	}

	kw, err := rt.KeywordMap(opts)
	if err != nil {
		return fmt.Errorf("repl options: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := v.Invoke(kw)
		done <- err
	}()

	rt.Log().WithField("fn", v.String()).Info("starting nrepl server")

	select {
	case err = <-done:
		if err != nil {
			return fmt.Errorf("%s: %w", v, err)
		}
		return nil

	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b Bridge) ns() string {
	if b.Namespace == "" {
		return DefaultNamespace
	}

	return b.Namespace
}

func (b Bridge) initFn() string {
	if b.InitFn == "" {
		return DefaultInitFn
	}

	return b.InitFn
}

func (b Bridge) replFn() string {
	if b.REPLFn == "" {
		return DefaultREPLFn
	}

	return b.REPLFn
}
