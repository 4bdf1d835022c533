package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBooleanSchema(t *testing.T) {
	s, err := Parse([]byte("true"))
	require.NoError(t, err)
	assert.True(t, s.IsBoolean())
	assert.Equal(t, true, *s.Boolean)
}

func TestParseDraft07TupleItems(t *testing.T) {
	s, err := Parse([]byte(`{"items":[{"type":"string"},{"type":"number"}],"additionalItems":{"type":"boolean"}}`))
	require.NoError(t, err)
	require.Len(t, s.PrefixItems, 2)
	assert.Equal(t, SchemaType{"string"}, s.PrefixItems[0].Type)
	assert.Equal(t, SchemaType{"number"}, s.PrefixItems[1].Type)
	require.NotNil(t, s.Items)
	assert.Equal(t, SchemaType{"boolean"}, s.Items.Type)
}

func TestParseDefinitionsFoldsIntoDefs(t *testing.T) {
	s, err := Parse([]byte(`{"definitions":{"Widget":{"type":"object"}}}`))
	require.NoError(t, err)
	require.Contains(t, s.Defs, "Widget")
}

func TestParseConstDistinguishesAbsentFromNull(t *testing.T) {
	withNull, err := Parse([]byte(`{"const":null}`))
	require.NoError(t, err)
	require.NotNil(t, withNull.Const)
	assert.True(t, withNull.Const.IsSet)
	assert.Nil(t, withNull.Const.Value)

	without, err := Parse([]byte(`{"type":"string"}`))
	require.NoError(t, err)
	assert.Nil(t, without.Const)
}

func TestMarshalJSONRoundTripsDeterministically(t *testing.T) {
	s, err := Parse([]byte(`{"type":"object","properties":{"b":{"type":"string"},"a":{"type":"number"}}}`))
	require.NoError(t, err)
	out1, err := s.MarshalJSON()
	require.NoError(t, err)
	out2, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, out1, out2)
}

func TestWalkVisitsNestedSubschemas(t *testing.T) {
	s, err := Parse([]byte(`{"properties":{"a":{"type":"string"},"b":{"allOf":[{"type":"number"}]}}}`))
	require.NoError(t, err)
	var paths []string
	Walk(s, func(path []string, node *Schema) {
		paths = append(paths, joinPath(path))
	})
	assert.Contains(t, paths, "")
	assert.Contains(t, paths, "/properties/a")
	assert.Contains(t, paths, "/properties/b/allOf/0")
}

func joinPath(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	out := ""
	for _, t := range tokens {
		out += "/" + t
	}
	return out
}

func TestResolvePointerNavigatesProperties(t *testing.T) {
	s, err := Parse([]byte(`{"properties":{"name":{"type":"string"}}}`))
	require.NoError(t, err)
	target, err := s.ResolvePointer("/properties/name")
	require.NoError(t, err)
	assert.Equal(t, SchemaType{"string"}, target.Type)
}

func TestDetectDialect(t *testing.T) {
	assert.Equal(t, Dialect202012, DetectDialect("https://json-schema.org/draft/2020-12/schema"))
	assert.Equal(t, DialectDraft07, DetectDialect("http://json-schema.org/draft-07/schema#"))
	assert.Equal(t, Dialect202012, DetectDialect(""))
	assert.Equal(t, DialectUnknown, DetectDialect("https://example.com/not-a-dialect"))
}
