//go:build jni && cgo

package jni_test

import (
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wetware/cljhost/pkg/jvm"
	"github.com/wetware/cljhost/pkg/jvm/jni"
)

// A process can only ever create one JVM, so all assertions share it.
func TestVM(t *testing.T) {
	if os.Getenv("JAVA_HOME") == "" {
		t.Skip("JAVA_HOME not set")
	}

	vm, err := jni.Launch(jvm.Options{Headless: true})
	require.NoError(t, err)
	defer vm.Close()

	t.Run("Primitive", func(t *testing.T) {
		res, err := vm.CallStatic("java/lang/Math", "max",
			jvm.Method(jvm.Long, jvm.Long, jvm.Long), 3, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(7), res)
	})

	t.Run("String", func(t *testing.T) {
		res, err := vm.CallStatic("java/lang/String", "valueOf",
			jvm.Method(jvm.StringType, jvm.Long), 42)
		require.NoError(t, err)
		assert.Equal(t, "42", res)
	})

	t.Run("Unicode", func(t *testing.T) {
		for _, in := range []string{"nul\x00inside", "emoji \U0001F600"} {
			res, err := vm.CallStatic("java/lang/String", "valueOf",
				jvm.Method(jvm.StringType, jvm.ObjectType), in)
			require.NoError(t, err)
			assert.Equal(t, in, res, "should round-trip %q", in)
		}

		n, err := vm.CallStatic("java/lang/Character", "codePointAt",
			jvm.Method(jvm.Int, jvm.Class("java/lang/CharSequence"), jvm.Int), "\U0001F600", 0)
		require.NoError(t, err)
		assert.Equal(t, int32(0x1F600), n, "should pass supplementary characters")
	})

	t.Run("ArgumentLifetime", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			res, err := vm.CallStatic("java/lang/Thread", "currentThread",
				jvm.Method(jvm.Class("java/lang/Thread")))
			require.NoError(t, err)

			// The handle is only reachable through the argument list.
			name, err := vm.CallStatic("java/util/Objects", "toString",
				jvm.Method(jvm.StringType, jvm.ObjectType), res)
			require.NoError(t, err)
			assert.Contains(t, name, "Thread")

			runtime.GC()
		}
	})

	t.Run("Boxing", func(t *testing.T) {
		res, err := vm.CallStatic("java/util/Objects", "toString",
			jvm.Method(jvm.StringType, jvm.ObjectType), 1.5)
		require.NoError(t, err)
		assert.Equal(t, "1.5", res)

		res, err = vm.CallStatic("java/lang/Long", "valueOf",
			jvm.Method(jvm.Class("java/lang/Long"), jvm.Long), 9)
		require.NoError(t, err)
		assert.Equal(t, int64(9), res, "should unbox java.lang.Long")
	})

	t.Run("Object", func(t *testing.T) {
		res, err := vm.CallStatic("java/lang/Thread", "currentThread",
			jvm.Method(jvm.Class("java/lang/Thread")))
		require.NoError(t, err)

		obj, ok := res.(jvm.Object)
		require.True(t, ok, "should return an object handle")

		daemon, err := vm.Call(obj, "isDaemon", jvm.Method(jvm.Boolean))
		require.NoError(t, err)
		assert.Equal(t, true, daemon, "calling thread should be attached as a daemon")
	})

	t.Run("Exception", func(t *testing.T) {
		_, err := vm.CallStatic("java/lang/Integer", "parseInt",
			jvm.Method(jvm.Int, jvm.StringType), "nope")

		var ex *jvm.Exception
		require.ErrorAs(t, err, &ex)
		assert.Equal(t, "java.lang.NumberFormatException", ex.Class)
		assert.Contains(t, ex.Message, "nope")
	})

	t.Run("NoSuchMethod", func(t *testing.T) {
		_, err := vm.CallStatic("java/lang/Math", "nope", jvm.Method(jvm.Void))
		var ex *jvm.Exception
		require.ErrorAs(t, err, &ex)
		assert.Equal(t, "java.lang.NoSuchMethodError", ex.Class)
	})
}
