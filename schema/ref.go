package schema

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonpointer"

	"github.com/foundrydata/foundrydata-sub008/internal/fderr"
)

// ResolvePointer walks a JSON Pointer from s, the same primitive the
// teacher's resolveJSONPointer uses for $ref resolution: segments are
// parsed (and ~0/~1-unescaped) via jsonpointer.Parse, with an additional
// percent-decoding pass for URI-fragment pointers.
func (s *Schema) ResolvePointer(pointer string) (*Schema, error) {
	if pointer == "" || pointer == "/" {
		return s, nil
	}
	segments := jsonpointer.Parse(pointer)
	current := s
	var previous string
	for i, raw := range segments {
		segment, err := url.PathUnescape(raw)
		if err != nil {
			return nil, fmt.Errorf("schema: percent-decode pointer segment %q: %w", raw, err)
		}
		next, ok := stepInto(current, segment, previous)
		if !ok {
			if i == len(segments)-1 {
				return nil, fmt.Errorf("schema: %w: segment %q", fderr.ErrPointerNotFound, segment)
			}
		} else {
			current = next
		}
		previous = segment
	}
	return current, nil
}

// stepInto resolves one pointer segment given the previous segment as
// context, since a JSON Schema pointer alternates between a keyword name
// ("properties") and a child key/index ("name", "0").
func stepInto(current *Schema, segment, previousSegment string) (*Schema, bool) {
	switch previousSegment {
	case "properties":
		if current.Properties != nil {
			if c, ok := (*current.Properties)[segment]; ok {
				return c, true
			}
		}
	case "patternProperties":
		if current.PatternProperties != nil {
			if c, ok := (*current.PatternProperties)[segment]; ok {
				return c, true
			}
		}
	case "prefixItems", "allOf", "anyOf", "oneOf":
		idx, err := strconv.Atoi(segment)
		if err != nil {
			return nil, false
		}
		list := listFor(current, previousSegment)
		if idx >= 0 && idx < len(list) {
			return list[idx], true
		}
	case "$defs", "definitions":
		if c, ok := current.Defs[segment]; ok {
			return c, true
		}
	case "dependentSchemas":
		if c, ok := current.DependentSchemas[segment]; ok {
			return c, true
		}
	}
	switch segment {
	case "items":
		return current.Items, current.Items != nil
	case "contains":
		return current.Contains, current.Contains != nil
	case "additionalProperties":
		return current.AdditionalProperties, current.AdditionalProperties != nil
	case "propertyNames":
		return current.PropertyNames, current.PropertyNames != nil
	case "not":
		return current.Not, current.Not != nil
	case "if":
		return current.If, current.If != nil
	case "then":
		return current.Then, current.Then != nil
	case "else":
		return current.Else, current.Else != nil
	case "unevaluatedItems":
		return current.UnevaluatedItems, current.UnevaluatedItems != nil
	case "unevaluatedProperties":
		return current.UnevaluatedProperties, current.UnevaluatedProperties != nil
	case "contentSchema":
		return current.ContentSchema, current.ContentSchema != nil
	}
	return current, true
}

func listFor(s *Schema, keyword string) []*Schema {
	switch keyword {
	case "prefixItems":
		return s.PrefixItems
	case "allOf":
		return s.AllOf
	case "anyOf":
		return s.AnyOf
	case "oneOf":
		return s.OneOf
	}
	return nil
}

// ResolveAnchor resolves a #fragment that is a plain name, a $dynamicAnchor
// name, or a JSON Pointer (when it starts with "/"), walking up the parent
// chain the way the teacher's resolveAnchor does.
func (s *Schema) ResolveAnchor(fragment string) (*Schema, error) {
	if strings.HasPrefix(fragment, "/") {
		return s.ResolvePointer(fragment)
	}
	if t, ok := s.GetAnchor(fragment); ok {
		return t, nil
	}
	if t, ok := s.GetDynamicAnchor(fragment); ok {
		return t, nil
	}
	return nil, fmt.Errorf("schema: %w: %q", fderr.ErrAnchorNotFound, fragment)
}
