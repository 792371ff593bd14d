package clj_test

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mock_jvm "github.com/wetware/cljhost/internal/mock/pkg/jvm"
	"github.com/wetware/cljhost/pkg/clj"
	"github.com/wetware/cljhost/pkg/jvm"
)

func TestFn_Invoke(t *testing.T) {
	t.Parallel()

	for n := 0; n <= clj.MaxArity; n++ {
		ctrl := gomock.NewController(t)

		obj := mock_jvm.NewMockObject(ctrl)
		args := make([]any, n)
		expect := []any{obj, "invoke", jvm.ObjectMethod(n)}
		for i := range args {
			args[i] = int64(i)
			expect = append(expect, int64(i))
		}

		vm := mock_jvm.NewMockVM(ctrl)
		vm.EXPECT().
			Call(expect[0], expect[1], expect[2], expect[3:]...).
			Return(n, nil).
			Times(1)

		res, err := clj.NewFn(vm, obj).Invoke(args...)
		require.NoError(t, err, "should invoke %d-ary overload", n)
		assert.Equal(t, n, res, "should dispatch to arity %d", n)

		ctrl.Finish()
	}
}

func TestFn_InvokeHandles(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	obj := mock_jvm.NewMockObject(ctrl)
	arg := mock_jvm.NewMockObject(ctrl)

	vm := mock_jvm.NewMockVM(ctrl)
	vm.EXPECT().
		Call(obj, "invoke", jvm.ObjectMethod(3), arg, arg, "x").
		Return(nil, nil).
		Times(1)

	rt := clj.New(vm)
	f := clj.NewFn(vm, obj)
	_, err := f.Invoke(clj.NewFn(vm, arg), rt.Object(arg), "x")
	require.NoError(t, err, "wrapped objects should be passed by handle")
}

func TestFn_Arity(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// no calls expected
	vm := mock_jvm.NewMockVM(ctrl)
	f := clj.NewFn(vm, mock_jvm.NewMockObject(ctrl))

	for _, n := range []int{clj.MaxArity + 1, 32, 100} {
		res, err := f.Invoke(make([]any, n)...)
		assert.ErrorIs(t, err, clj.ErrArity, "should reject %d arguments", n)
		assert.Nil(t, res)

		var ae *clj.ArityError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, n, ae.Got)
	}
}

func TestFn_Apply(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	obj := mock_jvm.NewMockObject(ctrl)
	vm := mock_jvm.NewMockVM(ctrl)
	vm.EXPECT().
		Call(obj, "invoke", jvm.ObjectMethod(1), "x").
		Return("ok", nil).
		Times(2)

	f := clj.NewFn(vm, obj)

	for _, n := range []int{0, 1, 5, clj.MaxArity, clj.MaxArity + 1} {
		_, err := f.Apply(make([]any, n), clj.Kwargs{"port": 7888})
		assert.ErrorIs(t, err, clj.ErrKeywordArgs,
			"should reject keyword args with %d positional args", n)
	}

	res, err := f.Apply([]any{"x"}, nil)
	require.NoError(t, err, "nil kwargs should be accepted")
	assert.Equal(t, "ok", res)

	res, err = f.Apply([]any{"x"}, clj.Kwargs{})
	require.NoError(t, err, "empty kwargs should be accepted")
	assert.Equal(t, "ok", res)
}
