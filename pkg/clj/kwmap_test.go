package clj

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wetware/cljhost/pkg/jvm/sim"
)

func TestKeywordMap(t *testing.T) {
	t.Parallel()

	vm, err := sim.New()
	require.NoError(t, err)

	rt := New(vm)
	require.NoError(t, rt.Init())

	m := map[string]any{"a": 1, "b": 2}

	forward, err := rt.assocKeywords([]string{"a", "b"}, m)
	require.NoError(t, err)

	reverse, err := rt.assocKeywords([]string{"b", "a"}, m)
	require.NoError(t, err)

	fm, rm := forward.(*sim.Map), reverse.(*sim.Map)
	assert.NotSame(t, fm, rm)
	assert.Equal(t, fm.Keys(), rm.Keys(), "should contain the same keys")
	for _, k := range fm.Keys() {
		fv, _ := fm.Get(k)
		rv, _ := rm.Get(k)
		assert.Equal(t, fv, rv, "should map %v to the same value", k)
	}

	assert.Equal(t, "{:a 1, :b 2}", rt.Render(forward))

	sorted, err := rt.KeywordMap(m)
	require.NoError(t, err)
	assert.Equal(t, "{:a 1, :b 2}", rt.Render(sorted))
}

func TestKeywordMap_empty(t *testing.T) {
	t.Parallel()

	vm, err := sim.New()
	require.NoError(t, err)

	rt := New(vm)
	require.NoError(t, rt.Init())

	obj, err := rt.KeywordMap(nil)
	require.NoError(t, err)
	assert.Nil(t, obj, "empty map should fold to nil")
	assert.Empty(t, vm.Journal()[1:], "should not touch the VM")
}
