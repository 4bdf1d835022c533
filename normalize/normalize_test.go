package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDetectsDialect(t *testing.T) {
	res, err := Normalize([]byte(`{"$schema":"http://json-schema.org/draft-07/schema#","type":"object"}`))
	require.NoError(t, err)
	assert.Equal(t, "draft-07", string(res.Dialect))
}

func TestNormalizeUnwrapsTrivialTrueInAllOf(t *testing.T) {
	res, err := Normalize([]byte(`{"allOf":[true,{"type":"string"}]}`))
	require.NoError(t, err)
	require.Len(t, res.Canonical.AllOf, 1)
	assert.NotEmpty(t, res.Notes.Run)
}

func TestNormalizeKeepsFalseInAllOfVisible(t *testing.T) {
	res, err := Normalize([]byte(`{"allOf":[false,{"type":"string"}]}`))
	require.NoError(t, err)
	require.Len(t, res.Canonical.AllOf, 2)
}

func TestNormalizeFoldsDefinitionsAndRetargetsRef(t *testing.T) {
	res, err := Normalize([]byte(`{"definitions":{"Widget":{"type":"object"}},"properties":{"w":{"$ref":"#/definitions/Widget"}}}`))
	require.NoError(t, err)
	require.Contains(t, res.Canonical.Defs, "Widget")
	ref := (*res.Canonical.Properties)["w"].Ref
	assert.Equal(t, "#/$defs/Widget", ref)
}

func TestNormalizePointerMapUsesDefinitionsOriginForDefinitionsSource(t *testing.T) {
	res, err := Normalize([]byte(`{"definitions":{"Widget":{"type":"object"}}}`))
	require.NoError(t, err)
	origin, ok := res.PtrMap.Origin("/$defs/Widget")
	require.True(t, ok)
	assert.Equal(t, "/definitions/Widget", origin)
}

func TestNormalizePointerMapKeepsDefsOriginForNativeDefsSource(t *testing.T) {
	res, err := Normalize([]byte(`{"$defs":{"Widget":{"type":"object"}}}`))
	require.NoError(t, err)
	origin, ok := res.PtrMap.Origin("/$defs/Widget")
	require.True(t, ok)
	assert.Equal(t, "/$defs/Widget", origin)
}

func TestNormalizeStripsBundledMetaschemaCollision(t *testing.T) {
	res, err := Normalize([]byte(`{"$defs":{"bundled":{"$id":"http://json-schema.org/draft-07/schema#","type":"object"}}}`))
	require.NoError(t, err)
	assert.NotContains(t, res.Canonical.Defs, "bundled")
	assert.NotEmpty(t, res.Notes.Run)
}

func TestNormalizePointerMapRoundTrips(t *testing.T) {
	res, err := Normalize([]byte(`{"properties":{"name":{"type":"string"}}}`))
	require.NoError(t, err)
	for _, canon := range res.SortedCanonicalPaths() {
		origin, ok := res.PtrMap.Origin(canon)
		require.True(t, ok)
		back, ok := res.PtrMap.Canonical(origin)
		require.True(t, ok)
		assert.Equal(t, canon, back)
	}
	assert.True(t, res.PtrMap.Bijective())
}

func TestNormalizeDoesNotMutateOriginalBytes(t *testing.T) {
	raw := []byte(`{"allOf":[true,{"type":"string"}]}`)
	copyOfRaw := append([]byte(nil), raw...)
	_, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, copyOfRaw, raw)
}
