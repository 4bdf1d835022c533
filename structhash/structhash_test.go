package structhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalSortsObjectKeys(t *testing.T) {
	out, err := Marshal(map[string]any{"b": 1, "a": 2})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1}`, string(out))
}

func TestMarshalIsOrderIndependent(t *testing.T) {
	a, err := Marshal(map[string]any{"x": 1, "y": []any{1, 2, 3}})
	require.NoError(t, err)
	b, err := Marshal(map[string]any{"y": []any{1, 2, 3}, "x": 1})
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestSumIsDeterministic(t *testing.T) {
	h1, err := Sum(map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	h2, err := Sum(map[string]any{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestStableParamsKeyReorderInvariant(t *testing.T) {
	k1 := StableParamsKey(map[string]any{"min": 3, "max": 5})
	k2 := StableParamsKey(map[string]any{"max": 5, "min": 3})
	assert.Equal(t, k1, k2)
}

func TestCanonicalTargetIDFormat(t *testing.T) {
	id, err := CanonicalTargetID(1, 1, map[string]any{"dimension": "numeric.min", "canonPath": "/properties/a"})
	require.NoError(t, err)
	assert.Regexp(t, `^cov:1:1:[0-9a-f]{64}$`, id)
}
