package embedded_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wetware/cljhost/pkg/clj"
	"github.com/wetware/cljhost/pkg/embedded"
	"github.com/wetware/cljhost/pkg/jvm"
	"github.com/wetware/cljhost/pkg/jvm/sim"
)

func TestBridge_Initialize(t *testing.T) {
	t.Parallel()

	vm, rt := runtime(t)

	require.NoError(t, embedded.Bridge{}.Initialize(rt))
	assert.Equal(t, 1, vm.EmbeddedInitialized())

	err := embedded.Bridge{Namespace: "no.such.bridge"}.Initialize(rt)
	var ex *jvm.Exception
	require.ErrorAs(t, err, &ex, "should fail to require a missing namespace")
	assert.Equal(t, "java.io.FileNotFoundException", ex.Class)
	assert.Equal(t, 1, vm.EmbeddedInitialized())
}

func TestBridge_StartREPL(t *testing.T) {
	t.Parallel()

	vm, rt := runtime(t)
	defer vm.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cherr := make(chan error, 1)
	go func() {
		cherr <- embedded.Bridge{}.StartREPL(ctx, rt, map[string]any{
			"port": 7888,
			"bind": "0.0.0.0",
		})
	}()

	select {
	case opts := <-vm.REPLStarted():
		require.NotNil(t, opts, "should pass options")
		assert.Equal(t, "{:bind 0.0.0.0, :port 7888}", opts.String())
	case <-time.After(time.Second):
		t.Fatal("server was not started")
	}

	select {
	case err := <-cherr:
		t.Fatalf("should block while serving (got %v)", err)
	case <-time.After(10 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-cherr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("should return when the context expires")
	}

	err := embedded.Bridge{}.StartREPL(context.Background(), rt, nil)
	var ex *jvm.Exception
	require.ErrorAs(t, err, &ex, "second server should fail to bind")
	assert.Equal(t, "java.net.BindException", ex.Class)
}

func TestBridge_StartREPL_noOptions(t *testing.T) {
	t.Parallel()

	vm, rt := runtime(t)

	cherr := make(chan error, 1)
	go func() {
		cherr <- embedded.Bridge{}.StartREPL(context.Background(), rt, map[string]any{})
	}()

	select {
	case opts := <-vm.REPLStarted():
		assert.Nil(t, opts, "empty options should be passed as nil")
	case <-time.After(time.Second):
		t.Fatal("server was not started")
	}

	require.NoError(t, vm.Close())

	select {
	case err := <-cherr:
		assert.NoError(t, err, "should return when the server stops")
	case <-time.After(time.Second):
		t.Fatal("should return when the server stops")
	}
}

func runtime(t *testing.T) (*sim.VM, *clj.Runtime) {
	t.Helper()

	vm, err := sim.New()
	require.NoError(t, err)

	rt := clj.New(vm)
	require.NoError(t, rt.Init())

	return vm, rt
}
