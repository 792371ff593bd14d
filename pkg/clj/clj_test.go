package clj_test

import (
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mock_jvm "github.com/wetware/cljhost/internal/mock/pkg/jvm"
	"github.com/wetware/cljhost/pkg/clj"
	"github.com/wetware/cljhost/pkg/jvm"
	"github.com/wetware/cljhost/pkg/jvm/sim"
)

func TestRuntime_Init(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vm := mock_jvm.NewMockVM(ctrl)
	vm.EXPECT().
		CallStatic("clojure/lang/RT", "init", jvm.Descriptor("()V")).
		Return(nil, nil).
		Times(1)

	rt := clj.New(vm)
	assert.False(t, rt.Initialized())

	_, err := rt.FindVar("clojure.core", "str")
	assert.ErrorIs(t, err, clj.ErrNotInitialized, "should not resolve before init")

	require.NoError(t, rt.Init())
	assert.True(t, rt.Initialized())

	assert.ErrorIs(t, rt.Init(), clj.ErrAlreadyInitialized,
		"second init should fail without calling RT.init")
}

func TestRuntime_InitFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	boom := &jvm.Exception{Class: "java.lang.ExceptionInInitializerError"}

	vm := mock_jvm.NewMockVM(ctrl)
	gomock.InOrder(
		vm.EXPECT().CallStatic("clojure/lang/RT", "init", gomock.Any()).Return(nil, boom),
		vm.EXPECT().CallStatic("clojure/lang/RT", "init", gomock.Any()).Return(nil, nil))

	rt := clj.New(vm)
	assert.ErrorIs(t, rt.Init(), boom)
	assert.False(t, rt.Initialized())
	assert.NoError(t, rt.Init(), "failed init should be retryable")
}

func TestRuntime_FindVar(t *testing.T) {
	t.Parallel()

	rt := runtime(t)

	v, err := rt.FindVar("clojure.core", "str")
	require.NoError(t, err)
	assert.Equal(t, "#'clojure.core/str", v.String())

	res, err := v.Invoke("a", "b", 3)
	require.NoError(t, err)
	assert.Equal(t, "ab3", res)

	// the same cell is returned on re-resolution
	again, err := rt.FindVar("clojure.core", "str")
	require.NoError(t, err)
	assert.Equal(t, v.Object().Handle(), again.Object().Handle())

	for _, name := range []string{"", "clojure.core", "/str", "clojure.core/"} {
		_, err = rt.Resolve(name)
		assert.ErrorIs(t, err, clj.ErrSymbolNotFound, "should reject %q", name)
	}

	_, err = rt.FindVar("", "")
	assert.ErrorIs(t, err, clj.ErrSymbolNotFound, "should wrap VM failures")

	var ex *jvm.Exception
	assert.ErrorAs(t, err, &ex, "should preserve the underlying exception")
}

func TestRuntime_Require(t *testing.T) {
	t.Parallel()

	vm, err := sim.New(sim.WithNamespace("a.b.c", sim.Namespace{
		"f": sim.Func(func(args ...any) (any, error) { return "f", nil }),
	}))
	require.NoError(t, err)

	rt := clj.New(vm)
	require.NoError(t, rt.Init())

	f, err := rt.Resolve("a.b.c/f")
	require.NoError(t, err, "resolving an unloaded namespace still interns the var")

	bound, err := f.Bound()
	require.NoError(t, err)
	assert.False(t, bound)

	_, err = f.Invoke()
	assert.Error(t, err, "calling a var before requiring its namespace should fail")

	require.NoError(t, rt.Require("a.b.c"))
	require.NoError(t, rt.Require("a.b.c"), "require should be idempotent")

	res, err := f.Invoke()
	require.NoError(t, err, "existing handle should see the loaded binding")
	assert.Equal(t, "f", res)

	// clojure.core/require is resolved once
	var lookups int
	for _, ev := range vm.Journal() {
		if ev.Method == "var" && ev.Args[0] == "clojure.core" && ev.Args[1] == "require" {
			lookups++
		}
	}
	assert.Equal(t, 1, lookups, "require var should be memoized")

	err = rt.Require("no.such.ns")
	var ex *jvm.Exception
	require.ErrorAs(t, err, &ex)
	assert.Equal(t, "java.io.FileNotFoundException", ex.Class)
}

func TestRuntime_RequireBeforeInit(t *testing.T) {
	t.Parallel()

	vm, err := sim.New()
	require.NoError(t, err)

	rt := clj.New(vm)
	assert.ErrorIs(t, rt.Require("clojure.string"), clj.ErrNotInitialized)

	require.NoError(t, rt.Init())
	assert.Error(t, rt.Require("clojure.string"),
		"namespace is not provided by the simulator")
}

func TestRuntime_Helpers(t *testing.T) {
	t.Parallel()

	rt := runtime(t)

	n, err := rt.LongCast(int32(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	ptr, err := rt.Pointer(0xc0ffee)
	require.NoError(t, err)
	assert.Equal(t, int64(0xc0ffee), ptr.(*sim.Pointer).Address)

	_, err = rt.Pointer(0)
	assert.Error(t, err)

	sym, err := rt.Symbol("x.y")
	require.NoError(t, err)
	assert.Equal(t, "x.y", rt.Object(sym).String())

	cls, err := rt.Object(sym).Class()
	require.NoError(t, err)
	assert.Equal(t, "class clojure.lang.Symbol", cls.String())

	v, err := rt.Resolve("clojure.core/str")
	require.NoError(t, err)

	root, err := v.Deref()
	require.NoError(t, err)
	assert.IsType(t, sim.Func(nil), root)

	assert.Equal(t, "nil", rt.Render(nil))
	assert.Equal(t, "42", rt.Render(int64(42)))
	assert.Equal(t, "#'clojure.core/str", rt.Render(v.Object()))
}

func TestRuntime_Handles(t *testing.T) {
	t.Parallel()

	rt := runtime(t)

	v, err := rt.Resolve("clojure.core/str")
	require.NoError(t, err)

	res, err := rt.Invoke("clojure.core/str", v, " ", rt.Object(v.Object()))
	require.NoError(t, err, "vars and objects should be accepted as arguments")
	assert.Equal(t, "#'clojure.core/str #'clojure.core/str", res)

	m, err := rt.KeywordMap(map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)

	n, err := rt.Invoke("clojure.core/count", rt.Object(m))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = rt.LongCast(rt.Object(m))
	var ex *jvm.Exception
	require.ErrorAs(t, err, &ex, "maps should not cast to long")
	assert.Contains(t, ex.Message, "clojure.lang.PersistentHashMap")
}

func TestRuntime_UnboundVar(t *testing.T) {
	t.Parallel()

	rt := runtime(t)

	v, err := rt.Resolve("no.such.ns/fn")
	require.NoError(t, err, "missing vars are interned unbound")

	bound, err := v.Bound()
	require.NoError(t, err)
	assert.False(t, bound)

	_, err = v.Invoke()
	var ex *jvm.Exception
	require.ErrorAs(t, err, &ex, "should report the java exception")
	assert.Equal(t, "java.lang.IllegalStateException", ex.Class)
	assert.Contains(t, ex.Message, "unbound fn")
	assert.NotErrorIs(t, err, clj.ErrSymbolNotFound)
}

func TestRuntime_LoadFile(t *testing.T) {
	t.Parallel()

	vm, err := sim.New(sim.WithFile("user.clj", "user", sim.Namespace{
		"answer": int64(42),
	}))
	require.NoError(t, err)

	rt := clj.New(vm)
	require.NoError(t, rt.Init())
	require.NoError(t, rt.LoadFile("user.clj"))

	v, err := rt.Resolve("user/answer")
	require.NoError(t, err)

	val, err := v.Deref()
	require.NoError(t, err)
	assert.Equal(t, int64(42), val)

	err = rt.LoadFile("missing.clj")
	var ex *jvm.Exception
	require.True(t, errors.As(err, &ex))
	assert.Equal(t, "java.io.FileNotFoundException", ex.Class)
}

func runtime(t *testing.T) *clj.Runtime {
	t.Helper()

	vm, err := sim.New()
	require.NoError(t, err)

	rt := clj.New(vm)
	require.NoError(t, rt.Init())
	return rt
}
