package repair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundrydata/foundrydata-sub008/coverageindex"
	"github.com/foundrydata/foundrydata-sub008/diag"
	"github.com/foundrydata/foundrydata-sub008/oracle"
	"github.com/foundrydata/foundrydata-sub008/schema"
)

func parse(t *testing.T, doc string) *schema.Schema {
	t.Helper()
	s, err := schema.Parse([]byte(doc))
	require.NoError(t, err)
	return s
}

func TestClassifyTierLocalVsStructural(t *testing.T) {
	assert.Equal(t, TierLocal, ClassifyTier("minimum"))
	assert.Equal(t, TierStructural, ClassifyTier("required"))
	assert.Equal(t, TierStructural, ClassifyTier("someUnknownKeyword"))
}

func TestRepairFixesNumericBelowMinimum(t *testing.T) {
	s := parse(t, `{"type":"number","minimum":10}`)
	out := Repair(s, 3.0, oracle.NewInProcess())
	assert.Equal(t, 0, out.FinalScore)
	assert.Equal(t, 10.0, out.Value)
}

func TestRepairPadsShortString(t *testing.T) {
	s := parse(t, `{"type":"string","minLength":5}`)
	out := Repair(s, "ab", oracle.NewInProcess())
	assert.Equal(t, 0, out.FinalScore)
	assert.GreaterOrEqual(t, len(out.Value.(string)), 5)
}

func TestRepairTruncatesLongString(t *testing.T) {
	s := parse(t, `{"type":"string","maxLength":3}`)
	out := Repair(s, "abcdef", oracle.NewInProcess())
	assert.Equal(t, 0, out.FinalScore)
	assert.LessOrEqual(t, len(out.Value.(string)), 3)
}

func TestRepairAddsMissingRequiredKey(t *testing.T) {
	s := parse(t, `{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`)
	out := Repair(s, map[string]any{}, oracle.NewInProcess())
	assert.Equal(t, 0, out.FinalScore)
	assert.Contains(t, out.Value.(map[string]any), "name")
}

func TestRepairRenamesToEnumMember(t *testing.T) {
	s := parse(t, `{"type":"string","enum":["b","a","c"]}`)
	out := Repair(s, "z", oracle.NewInProcess())
	assert.Equal(t, 0, out.FinalScore)
	assert.Equal(t, "a", out.Value)
}

func TestRepairRenamesPropertyNamesEnumMember(t *testing.T) {
	s := parse(t, `{"type":"object","properties":{"b":{},"c":{}},"additionalProperties":false,"minProperties":1,
		"propertyNames":{"enum":["b","c"]}}`)
	universe := map[string]coverageindex.CoverageEntry{
		"": {CanonPath: "", Keys: []string{"b", "c"}, MustCover: true},
	}
	out := RepairWithUniverse(s, map[string]any{"x": 1.0}, oracle.NewInProcess(), universe)
	assert.Equal(t, 0, out.FinalScore)
	obj := out.Value.(map[string]any)
	assert.Equal(t, map[string]any{"b": 1.0}, obj)

	found := false
	for _, d := range out.Notes.Warn {
		if d.Code == diag.CodeRepairPNamesPatternEnum {
			found = true
			assert.Equal(t, "x", d.Details["from"])
			assert.Equal(t, "b", d.Details["to"])
			assert.Equal(t, true, d.Details["mustCover"])
		}
	}
	assert.True(t, found)
}

func TestRepairPropertyNamesRenameSkipsKeyOutsideMustCoverSet(t *testing.T) {
	s := parse(t, `{"type":"object","properties":{"b":{},"c":{}},"additionalProperties":false,"minProperties":1,
		"propertyNames":{"enum":["b","c"]}}`)
	universe := map[string]coverageindex.CoverageEntry{
		"": {CanonPath: "", Keys: []string{"c"}, MustCover: true},
	}
	out := RepairWithUniverse(s, map[string]any{"x": 1.0}, oracle.NewInProcess(), universe)
	obj := out.Value.(map[string]any)
	assert.Equal(t, map[string]any{"c": 1.0}, obj)

	var sawMissing bool
	for _, d := range out.Notes.Warn {
		if d.Code == diag.CodeMustCoverIndexMissing {
			sawMissing = true
		}
	}
	assert.True(t, sawMissing)
}

func TestRepairAlreadyValidInstanceNoops(t *testing.T) {
	s := parse(t, `{"type":"number","minimum":0,"maximum":10}`)
	out := Repair(s, 5.0, oracle.NewInProcess())
	assert.Equal(t, 0, out.Cycles)
	assert.Equal(t, 5.0, out.Value)
}
