package coverageindex

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundrydata/foundrydata-sub008/diag"
	"github.com/foundrydata/foundrydata-sub008/schema"
)

func parse(t *testing.T, doc string) *schema.Schema {
	t.Helper()
	s, err := schema.Parse([]byte(doc))
	require.NoError(t, err)
	return s
}

func TestBuildKeyUniverseLiteralProperties(t *testing.T) {
	s := parse(t, `{"type":"object","properties":{"b":{"type":"string"},"a":{"type":"number"}}}`)
	entry := BuildKeyUniverse(s, "", nil)
	assert.Equal(t, []string{"a", "b"}, entry.Keys)
	assert.False(t, entry.Synthetic)
}

func TestBuildKeyUniverseSyntheticFallback(t *testing.T) {
	s := parse(t, `{"type":"object"}`)
	entry := BuildKeyUniverse(s, "", nil)
	assert.True(t, entry.Synthetic)
	assert.Equal(t, []string{"prop0"}, entry.Keys)
}

func TestBuildKeyUniverseLiftsPatternPropertiesWitness(t *testing.T) {
	s := parse(t, `{"type":"object","patternProperties":{"^id_[0-9]$":{}}}`)
	entry := BuildKeyUniverse(s, "", nil)
	require.NotEmpty(t, entry.Keys)
	for _, k := range entry.Keys {
		assert.Regexp(t, `^id_[0-9]$`, k)
	}
}

func TestBuildKeyUniverseFiltersByPropertyNamesEnum(t *testing.T) {
	s := parse(t, `{"type":"object","properties":{"a":{},"b":{},"c":{}},"propertyNames":{"enum":["a","c"]}}`)
	entry := BuildKeyUniverse(s, "", nil)
	assert.Equal(t, []string{"a", "c"}, entry.Keys)
}

func TestBuildKeyUniverseCapsLargeUniverse(t *testing.T) {
	names := make([]string, 0, defaultMaxKeys+6)
	for i := 0; i < defaultMaxKeys+6; i++ {
		names = append(names, fmt.Sprintf(`"k%03d":{}`, i))
	}
	props := `{"type":"object","properties":{` + strings.Join(names, ",") + `}}`
	s := parse(t, props)
	var notes diag.Envelope
	entry := BuildKeyUniverse(s, "/x", &notes)
	assert.LessOrEqual(t, len(entry.Keys), defaultMaxKeys)
	assert.Len(t, entry.Keys, defaultMaxKeys)
	assert.True(t, entry.Capped)
	require.Len(t, notes.Warn, 1)
	assert.Equal(t, diag.CodeComplexityCapEnum, notes.Warn[0].Code)
}

func TestClassifyGValidDisqualifiesUniqueItems(t *testing.T) {
	s := parse(t, `{"type":"array","uniqueItems":true}`)
	assert.False(t, ClassifyGValid(s))
}

func TestClassifyGValidDisqualifiesUnevaluatedProperties(t *testing.T) {
	s := parse(t, `{"type":"object","unevaluatedProperties":false}`)
	assert.False(t, ClassifyGValid(s))
}

func TestClassifyGValidPassesPlainObject(t *testing.T) {
	s := parse(t, `{"type":"object","properties":{"a":{}}}`)
	assert.True(t, ClassifyGValid(s))
}
