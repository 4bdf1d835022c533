package schema

import (
	"fmt"
	"sort"
)

// Child pairs a subschema with the JSON Pointer token (or token sequence)
// that reaches it from its parent.
type Child struct {
	Tokens []string
	Node   *Schema
}

// Children enumerates every direct subschema of s in a fixed, deterministic
// order, generalized from the set of subschema-bearing fields the
// teacher's resolveReferences/GetUnresolvedReferenceURIs walk over one
// field at a time. Centralizing the field list here means normalize,
// compose, and Walk all traverse identically instead of each re-deriving
// their own partial field list.
func (s *Schema) Children() []Child {
	if s == nil || s.Boolean != nil {
		return nil
	}
	var out []Child

	if len(s.Defs) > 0 {
		for _, k := range sortedKeys(s.Defs) {
			out = append(out, Child{Tokens: []string{"$defs", k}, Node: s.Defs[k]})
		}
	}
	if s.Properties != nil {
		for _, k := range sortedKeys(map[string]*Schema(*s.Properties)) {
			out = append(out, Child{Tokens: []string{"properties", k}, Node: (*s.Properties)[k]})
		}
	}
	if s.PatternProperties != nil {
		for _, k := range sortedKeys(map[string]*Schema(*s.PatternProperties)) {
			out = append(out, Child{Tokens: []string{"patternProperties", k}, Node: (*s.PatternProperties)[k]})
		}
	}
	if s.AdditionalProperties != nil {
		out = append(out, Child{Tokens: []string{"additionalProperties"}, Node: s.AdditionalProperties})
	}
	if s.PropertyNames != nil {
		out = append(out, Child{Tokens: []string{"propertyNames"}, Node: s.PropertyNames})
	}
	for i, c := range s.AllOf {
		out = append(out, Child{Tokens: []string{"allOf", itoa(i)}, Node: c})
	}
	for i, c := range s.AnyOf {
		out = append(out, Child{Tokens: []string{"anyOf", itoa(i)}, Node: c})
	}
	for i, c := range s.OneOf {
		out = append(out, Child{Tokens: []string{"oneOf", itoa(i)}, Node: c})
	}
	if s.Not != nil {
		out = append(out, Child{Tokens: []string{"not"}, Node: s.Not})
	}
	if s.If != nil {
		out = append(out, Child{Tokens: []string{"if"}, Node: s.If})
	}
	if s.Then != nil {
		out = append(out, Child{Tokens: []string{"then"}, Node: s.Then})
	}
	if s.Else != nil {
		out = append(out, Child{Tokens: []string{"else"}, Node: s.Else})
	}
	if len(s.DependentSchemas) > 0 {
		for _, k := range sortedKeys(s.DependentSchemas) {
			out = append(out, Child{Tokens: []string{"dependentSchemas", k}, Node: s.DependentSchemas[k]})
		}
	}
	for i, c := range s.PrefixItems {
		out = append(out, Child{Tokens: []string{"prefixItems", itoa(i)}, Node: c})
	}
	if s.Items != nil {
		out = append(out, Child{Tokens: []string{"items"}, Node: s.Items})
	}
	if s.Contains != nil {
		out = append(out, Child{Tokens: []string{"contains"}, Node: s.Contains})
	}
	if s.UnevaluatedItems != nil {
		out = append(out, Child{Tokens: []string{"unevaluatedItems"}, Node: s.UnevaluatedItems})
	}
	if s.UnevaluatedProperties != nil {
		out = append(out, Child{Tokens: []string{"unevaluatedProperties"}, Node: s.UnevaluatedProperties})
	}
	if s.ContentSchema != nil {
		out = append(out, Child{Tokens: []string{"contentSchema"}, Node: s.ContentSchema})
	}
	return out
}

// Walk visits s and every descendant subschema in document order
// (depth-first, following Children's fixed ordering), calling visit with
// the accumulated canonical-pointer tokens from the root.
func Walk(s *Schema, visit func(path []string, node *Schema)) {
	walk(s, nil, visit)
}

func walk(s *Schema, prefix []string, visit func(path []string, node *Schema)) {
	if s == nil {
		return
	}
	visit(prefix, s)
	for _, c := range s.Children() {
		walk(c.Node, append(append([]string(nil), prefix...), c.Tokens...), visit)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func itoa(i int) string { return fmt.Sprintf("%d", i) }
