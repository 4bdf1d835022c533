package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundrydata/foundrydata-sub008/schema"
)

func parse(t *testing.T, doc string) *schema.Schema {
	t.Helper()
	s, err := schema.Parse([]byte(doc))
	require.NoError(t, err)
	return s
}

func TestEvaluateTypeMismatch(t *testing.T) {
	s := parse(t, `{"type":"string"}`)
	errs := NewInProcess().Evaluate(s, "", 5.0)
	require.Len(t, errs, 1)
	assert.Equal(t, "type", errs[0].Keyword)
}

func TestEvaluateRequiredMissing(t *testing.T) {
	s := parse(t, `{"type":"object","required":["name"]}`)
	errs := NewInProcess().Evaluate(s, "", map[string]any{})
	require.Len(t, errs, 1)
	assert.Equal(t, "required", errs[0].Keyword)
}

func TestEvaluateNumericBounds(t *testing.T) {
	s := parse(t, `{"type":"number","minimum":10}`)
	errs := NewInProcess().Evaluate(s, "", 5.0)
	require.Len(t, errs, 1)
	assert.Equal(t, "minimum", errs[0].Keyword)
}

func TestEvaluatePatternMismatch(t *testing.T) {
	s := parse(t, `{"type":"string","pattern":"^[a-z]+$"}`)
	errs := NewInProcess().Evaluate(s, "", "ABC")
	require.Len(t, errs, 1)
	assert.Equal(t, "pattern", errs[0].Keyword)
}

func TestEvaluateValidInstanceHasNoErrors(t *testing.T) {
	s := parse(t, `{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`)
	errs := NewInProcess().Evaluate(s, "", map[string]any{"name": "ok"})
	assert.Empty(t, errs)
}

func TestEvaluateUniqueItemsDetectsDuplicates(t *testing.T) {
	s := parse(t, `{"type":"array","uniqueItems":true}`)
	errs := NewInProcess().Evaluate(s, "", []any{"a", "a"})
	require.Len(t, errs, 1)
	assert.Equal(t, "uniqueItems", errs[0].Keyword)
}

func TestErrorSignatureIsStableAcrossParamOrder(t *testing.T) {
	e1 := Error{Keyword: "minimum", CanonPath: "/x", InstancePath: "/0", Params: map[string]any{"a": 1, "b": 2}}
	e2 := Error{Keyword: "minimum", CanonPath: "/x", InstancePath: "/0", Params: map[string]any{"b": 2, "a": 1}}
	assert.Equal(t, e1.Signature(), e2.Signature())
}

func TestEvaluateDependentSchemasAppliesWhenTriggerKeyPresent(t *testing.T) {
	s := parse(t, `{"type":"object","dependentSchemas":{"credit_card":{"required":["billing_address"]}}}`)
	errs := NewInProcess().Evaluate(s, "", map[string]any{"credit_card": "1234"})
	require.Len(t, errs, 1)
	assert.Equal(t, "required", errs[0].Keyword)
}

func TestEvaluateDependentSchemasSkipsWhenTriggerKeyAbsent(t *testing.T) {
	s := parse(t, `{"type":"object","dependentSchemas":{"credit_card":{"required":["billing_address"]}}}`)
	errs := NewInProcess().Evaluate(s, "", map[string]any{})
	assert.Empty(t, errs)
}

func TestEvaluateUnevaluatedItemsRejectsExtraTupleEntries(t *testing.T) {
	s := parse(t, `{"type":"array","prefixItems":[{"type":"string"}],"unevaluatedItems":false}`)
	errs := NewInProcess().Evaluate(s, "", []any{"a", "b"})
	require.Len(t, errs, 1)
	assert.Equal(t, "unevaluatedItems", errs[0].Keyword)
}

func TestEvaluateUnevaluatedItemsAllowsContainsMatchedEntries(t *testing.T) {
	s := parse(t, `{"type":"array","contains":{"const":"b"},"unevaluatedItems":false}`)
	errs := NewInProcess().Evaluate(s, "", []any{"b"})
	assert.Empty(t, errs)
}

func TestEvaluateFormatRejectsInvalidEmail(t *testing.T) {
	s := parse(t, `{"type":"string","format":"email"}`)
	errs := NewInProcess().Evaluate(s, "", "not-an-email")
	require.Len(t, errs, 1)
	assert.Equal(t, "format", errs[0].Keyword)
}

func TestEvaluateFormatAcceptsValidDateTime(t *testing.T) {
	s := parse(t, `{"type":"string","format":"date-time"}`)
	errs := NewInProcess().Evaluate(s, "", "2026-07-31T10:00:00Z")
	assert.Empty(t, errs)
}

func TestEvaluateContentEncodingRejectsInvalidBase64(t *testing.T) {
	s := parse(t, `{"type":"string","contentEncoding":"base64"}`)
	errs := NewInProcess().Evaluate(s, "", "not base64!!")
	require.Len(t, errs, 1)
	assert.Equal(t, "contentEncoding", errs[0].Keyword)
}

func TestEvaluateContentMediaTypeValidatesDecodedJSON(t *testing.T) {
	s := parse(t, `{"type":"string","contentMediaType":"application/json"}`)
	errs := NewInProcess().Evaluate(s, "", "not json")
	require.Len(t, errs, 1)
	assert.Equal(t, "contentMediaType", errs[0].Keyword)

	okErrs := NewInProcess().Evaluate(s, "", `{"a":1}`)
	assert.Empty(t, okErrs)
}

func TestEvaluateOneOfRequiresExactlyOneMatch(t *testing.T) {
	s := parse(t, `{"oneOf":[{"type":"string"},{"type":"number"}]}`)
	errs := NewInProcess().Evaluate(s, "", "hi")
	assert.Empty(t, errs)

	s2 := parse(t, `{"oneOf":[{"minimum":0},{"maximum":10}]}`)
	errs2 := NewInProcess().Evaluate(s2, "", 5.0)
	require.Len(t, errs2, 1)
	assert.Equal(t, "oneOf", errs2[0].Keyword)
}
