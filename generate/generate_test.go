package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundrydata/foundrydata-sub008/compose"
	"github.com/foundrydata/foundrydata-sub008/diag"
	"github.com/foundrydata/foundrydata-sub008/oracle"
	"github.com/foundrydata/foundrydata-sub008/schema"
)

func buildModel(t *testing.T, doc string, seed int64) (*schema.Schema, *compose.Model) {
	t.Helper()
	s, err := schema.Parse([]byte(doc))
	require.NoError(t, err)
	m, err := compose.Compose(s, seed, compose.PolicyLax)
	require.NoError(t, err)
	return s, m
}

func TestGenerateIsDeterministicForSameSeed(t *testing.T) {
	s, m1 := buildModel(t, `{"type":"object","properties":{"name":{"type":"string","minLength":3,"maxLength":6},"age":{"type":"integer","minimum":0,"maximum":100}},"required":["name","age"]}`, 7)
	_, m2 := buildModel(t, `{"type":"object","properties":{"name":{"type":"string","minLength":3,"maxLength":6},"age":{"type":"integer","minimum":0,"maximum":100}},"required":["name","age"]}`, 7)

	var notes1, notes2 diag.Envelope
	v1 := New(m1, 7, &notes1).Generate(s, "")
	v2 := New(m2, 7, &notes2).Generate(s, "")
	assert.Equal(t, v1, v2)
}

func TestGenerateSatisfiesNumericBounds(t *testing.T) {
	s, m := buildModel(t, `{"type":"integer","minimum":5,"maximum":10}`, 1)
	var notes diag.Envelope
	v := New(m, 1, &notes).Generate(s, "")
	errs := oracle.NewInProcess().Evaluate(s, "", v)
	assert.Empty(t, errs)
}

func TestGenerateProducesRequiredKeys(t *testing.T) {
	s, m := buildModel(t, `{"type":"object","properties":{"id":{"type":"string"}},"required":["id"]}`, 3)
	var notes diag.Envelope
	v := New(m, 3, &notes).Generate(s, "")
	obj, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, obj, "id")
}

func TestGenerateProducesPatternWitness(t *testing.T) {
	s, m := buildModel(t, `{"type":"string","pattern":"^[0-9]{3}$"}`, 5)
	var notes diag.Envelope
	v := New(m, 5, &notes).Generate(s, "")
	errs := oracle.NewInProcess().Evaluate(s, "", v)
	assert.Empty(t, errs)
}

func TestGenerateArrayRespectsMinItems(t *testing.T) {
	s, m := buildModel(t, `{"type":"array","items":{"type":"number"},"minItems":3,"maxItems":5}`, 2)
	var notes diag.Envelope
	v := New(m, 2, &notes).Generate(s, "")
	arr, ok := v.([]any)
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(arr), 3)
	assert.LessOrEqual(t, len(arr), 5)
}

func TestGenerateIfAwareAppliesThenBranch(t *testing.T) {
	s, m := buildModel(t, `{"type":"object","properties":{"country":{"const":"US"}},
		"if":{"properties":{"country":{"const":"US"}}},
		"then":{"properties":{"zip":{"type":"string","pattern":"^[0-9]{5}$"}},"required":["zip"]}}`, 4)
	var notes diag.Envelope
	v := New(m, 4, &notes).Generate(s, "")
	obj, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, obj, "zip")
	require.NotEmpty(t, notes.Warn)
	found := false
	for _, d := range notes.Warn {
		if d.Code == diag.CodeIfAwareHintApplied {
			found = true
		}
	}
	assert.True(t, found)
}

func TestGenerateForcesNumericBoundariesAcrossFirstTwoItems(t *testing.T) {
	s, m := buildModel(t, `{"type":"integer","minimum":5,"maximum":10}`, 2)
	var notes diag.Envelope
	g := New(m, 2, &notes)

	g.SetItemIndex(0)
	v0 := g.Generate(s, "")
	events0 := g.Events()
	assert.Equal(t, int64(5), v0)
	require.Len(t, events0, 1)
	assert.Equal(t, "numeric_min", events0[0].Kind)

	g.SetItemIndex(1)
	v1 := g.Generate(s, "")
	events1 := g.Events()
	assert.Equal(t, int64(10), v1)
	require.Len(t, events1, 1)
	assert.Equal(t, "numeric_max", events1[0].Kind)
}

func TestGenerateOneOfEmitsOneofBranchEvent(t *testing.T) {
	s, m := buildModel(t, `{"oneOf":[{"type":"string"},{"type":"integer"}]}`, 9)
	var notes diag.Envelope
	g := New(m, 9, &notes)
	g.Generate(s, "")
	events := g.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "oneof_branch", events[0].Kind)
}

func TestGenerateOneOfPicksExactlyOneBranch(t *testing.T) {
	s, m := buildModel(t, `{"oneOf":[{"type":"string"},{"type":"integer"}]}`, 9)
	var notes diag.Envelope
	v := New(m, 9, &notes).Generate(s, "")
	errs := oracle.NewInProcess().Evaluate(s, "", v)
	assert.Empty(t, errs)
}
