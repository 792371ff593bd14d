package jvm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wetware/cljhost/pkg/jvm"
)

func TestObjectMethod(t *testing.T) {
	t.Parallel()

	assert.Equal(t, jvm.Descriptor("()Ljava/lang/Object;"), jvm.ObjectMethod(0))
	assert.Equal(t,
		jvm.Descriptor("(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;"),
		jvm.ObjectMethod(2))

	for n := 0; n < 20; n++ {
		arity, err := jvm.ObjectMethod(n).Arity()
		require.NoError(t, err, "should parse %d-ary descriptor", n)
		assert.Equal(t, n, arity, "should report arity %d", n)
	}
}

func TestMethod(t *testing.T) {
	t.Parallel()

	d := jvm.Method(jvm.Class("clojure.lang.Var"), jvm.StringType, jvm.StringType)
	assert.Equal(t,
		jvm.Descriptor("(Ljava/lang/String;Ljava/lang/String;)Lclojure/lang/Var;"), d)
	assert.Equal(t, jvm.Descriptor("()V"), jvm.Method(jvm.Void))
}

func TestDescriptor_Parse(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		desc   jvm.Descriptor
		params []jvm.Type
		ret    jvm.Type
		fail   bool
	}{
		{desc: "()V", ret: jvm.Void},
		{desc: "(J)Ltech/v3/datatype/ffi/Pointer;",
			params: []jvm.Type{jvm.Long},
			ret:    jvm.Class("tech/v3/datatype/ffi/Pointer")},
		{desc: "([[ILjava/lang/String;Z)[B",
			params: []jvm.Type{"[[I", jvm.StringType, jvm.Boolean},
			ret:    jvm.ArrayOf(jvm.Byte)},
		{desc: "", fail: true},
		{desc: "V", fail: true},
		{desc: "(J", fail: true},
		{desc: "(V)V", fail: true},
		{desc: "(L;)V", fail: true},
		{desc: "(Ljava/lang/String)V", fail: true},
		{desc: "()VV", fail: true},
		{desc: "(Q)V", fail: true},
	} {
		params, ret, err := tt.desc.Parse()
		if tt.fail {
			assert.ErrorIs(t, err, jvm.ErrDescriptor, "should reject %q", tt.desc)
			continue
		}

		require.NoError(t, err, "should parse %q", tt.desc)
		assert.Equal(t, tt.params, params, "params of %q", tt.desc)
		assert.Equal(t, tt.ret, ret, "return type of %q", tt.desc)
	}
}

func TestType(t *testing.T) {
	t.Parallel()

	assert.True(t, jvm.ObjectType.IsReference())
	assert.True(t, jvm.ArrayOf(jvm.Int).IsReference())
	assert.False(t, jvm.Long.IsReference())
	assert.Equal(t, "java/lang/String", jvm.StringType.ClassName())
	assert.Empty(t, jvm.Long.ClassName())

	assert.True(t, jvm.Long.Accepts(42))
	assert.False(t, jvm.Long.Accepts("42"))
	assert.True(t, jvm.Boolean.Accepts(true))
	assert.True(t, jvm.Double.Accepts(1.5))
	assert.True(t, jvm.ObjectType.Accepts(nil))
	assert.True(t, jvm.ObjectType.Accepts("s"))
	assert.True(t, jvm.ObjectType.Accepts(int64(1)))
	assert.False(t, jvm.ObjectType.Accepts(struct{}{}))
}

func TestCheckArgs(t *testing.T) {
	t.Parallel()

	params := []jvm.Type{jvm.StringType, jvm.Long}
	assert.NoError(t, jvm.CheckArgs(params, []any{"a", 1}))
	assert.ErrorIs(t, jvm.CheckArgs(params, []any{"a"}), jvm.ErrSignature)
	assert.ErrorIs(t, jvm.CheckArgs(params, []any{"a", "b"}), jvm.ErrSignature)
}

func TestOptions_VMArgs(t *testing.T) {
	t.Parallel()

	opt := jvm.Options{
		Classpath: []string{"src", "clojure.jar"},
		Headless:  true,
		Flags:     []string{"-Xmx1g"},
	}

	assert.Equal(t, []string{
		"-Djava.class.path=src:clojure.jar",
		"-Djava.awt.headless=true",
		"-Xmx1g",
	}, opt.VMArgs(":"))

	assert.Empty(t, jvm.Options{}.VMArgs(":"))
}

func TestParseException(t *testing.T) {
	t.Parallel()

	e := jvm.ParseException("java.lang.IllegalStateException: Attempting to call unbound fn: #'x.y/f")
	assert.Equal(t, "java.lang.IllegalStateException", e.Class)
	assert.Equal(t, "Attempting to call unbound fn: #'x.y/f", e.Message)
	assert.Equal(t, "java.lang.NullPointerException",
		jvm.ParseException("java.lang.NullPointerException").Error())
}
