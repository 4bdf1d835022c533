// Package schema holds the canonical JSON Schema data model: a Schema is a
// pointer-based DAG (a tree in principle, with $ref/$dynamicRef edges
// making it a DAG in practice), adapted from the teacher's own Schema type
// across drafts 04/06/07/2019-09/2020-12 instead of a single dialect.
//
// Node ownership follows plain Go GC rules rather than an arena of
// integer-addressed nodes: every *Schema in the tree is reachable from
// exactly one parent pointer, $ref/$dynamicRef become ordinary back-edges
// to an existing node, and nothing here ever mutates a node it doesn't own.
package schema

import (
	"bytes"
	"maps"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/foundrydata/foundrydata-sub008/rational"
)

// knownSchemaFields is the closed keyword vocabulary used to separate
// declared keywords from vendor extensions when round-tripping a schema.
var knownSchemaFields = map[string]struct{}{
	"$id": {}, "$schema": {}, "$ref": {}, "$dynamicRef": {}, "$anchor": {}, "$dynamicAnchor": {},
	"$defs": {}, "definitions": {}, "$comment": {},
	"allOf": {}, "anyOf": {}, "oneOf": {}, "not": {}, "if": {}, "then": {}, "else": {},
	"dependentSchemas": {}, "prefixItems": {}, "items": {}, "additionalItems": {}, "contains": {},
	"properties": {}, "patternProperties": {}, "additionalProperties": {}, "propertyNames": {},
	"unevaluatedItems": {}, "unevaluatedProperties": {},
	"type": {}, "enum": {}, "const": {},
	"multipleOf": {}, "maximum": {}, "exclusiveMaximum": {}, "minimum": {}, "exclusiveMinimum": {},
	"maxLength": {}, "minLength": {}, "pattern": {},
	"maxItems": {}, "minItems": {}, "uniqueItems": {}, "maxContains": {}, "minContains": {},
	"maxProperties": {}, "minProperties": {}, "required": {}, "dependentRequired": {},
	"format": {}, "contentEncoding": {}, "contentMediaType": {}, "contentSchema": {},
	"title": {}, "description": {}, "default": {}, "deprecated": {}, "readOnly": {}, "writeOnly": {}, "examples": {},
}

// Schema is the canonical, dialect-spanning representation every pipeline
// stage operates on. Fields follow the 2020-12 keyword set, the superset
// every earlier supported dialect folds into during Normalize.
type Schema struct {
	parent         *Schema
	uri            string
	baseURI        string
	anchors        map[string]*Schema
	dynamicAnchors map[string]*Schema
	defsKeyword    string

	ID     string  `json:"$id,omitempty"`
	Schema string  `json:"$schema,omitempty"`
	Format *string `json:"format,omitempty"`

	Ref                string             `json:"$ref,omitempty"`
	DynamicRef         string             `json:"$dynamicRef,omitempty"`
	Anchor             string             `json:"$anchor,omitempty"`
	DynamicAnchor      string             `json:"$dynamicAnchor,omitempty"`
	Defs               map[string]*Schema `json:"$defs,omitempty"`
	ResolvedRef        *Schema            `json:"-"`
	ResolvedDynamicRef *Schema            `json:"-"`

	Boolean *bool `json:"-"`

	AllOf []*Schema `json:"allOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`
	OneOf []*Schema `json:"oneOf,omitempty"`
	Not   *Schema   `json:"not,omitempty"`

	If               *Schema            `json:"if,omitempty"`
	Then             *Schema            `json:"then,omitempty"`
	Else             *Schema            `json:"else,omitempty"`
	DependentSchemas map[string]*Schema `json:"dependentSchemas,omitempty"`

	PrefixItems []*Schema `json:"prefixItems,omitempty"`
	Items       *Schema   `json:"items,omitempty"`
	Contains    *Schema   `json:"contains,omitempty"`

	Properties           *SchemaMap `json:"properties,omitempty"`
	PatternProperties    *SchemaMap `json:"patternProperties,omitempty"`
	AdditionalProperties *Schema    `json:"additionalProperties,omitempty"`
	PropertyNames        *Schema    `json:"propertyNames,omitempty"`

	Type  SchemaType  `json:"type,omitempty"`
	Enum  []any       `json:"enum,omitempty"`
	Const *ConstValue `json:"const,omitempty"`

	MultipleOf       *rational.Rat `json:"multipleOf,omitempty"`
	Maximum          *rational.Rat `json:"maximum,omitempty"`
	ExclusiveMaximum *rational.Rat `json:"exclusiveMaximum,omitempty"`
	Minimum          *rational.Rat `json:"minimum,omitempty"`
	ExclusiveMinimum *rational.Rat `json:"exclusiveMinimum,omitempty"`

	MaxLength *float64 `json:"maxLength,omitempty"`
	MinLength *float64 `json:"minLength,omitempty"`
	Pattern   *string  `json:"pattern,omitempty"`

	MaxItems    *float64 `json:"maxItems,omitempty"`
	MinItems    *float64 `json:"minItems,omitempty"`
	UniqueItems *bool    `json:"uniqueItems,omitempty"`
	MaxContains *float64 `json:"maxContains,omitempty"`
	MinContains *float64 `json:"minContains,omitempty"`

	UnevaluatedItems *Schema `json:"unevaluatedItems,omitempty"`

	MaxProperties     *float64            `json:"maxProperties,omitempty"`
	MinProperties     *float64            `json:"minProperties,omitempty"`
	Required          []string            `json:"required,omitempty"`
	DependentRequired map[string][]string `json:"dependentRequired,omitempty"`

	UnevaluatedProperties *Schema `json:"unevaluatedProperties,omitempty"`

	ContentEncoding  *string `json:"contentEncoding,omitempty"`
	ContentMediaType *string `json:"contentMediaType,omitempty"`
	ContentSchema    *Schema `json:"contentSchema,omitempty"`

	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Default     any     `json:"default,omitempty"`
	Deprecated  *bool   `json:"deprecated,omitempty"`
	ReadOnly    *bool   `json:"readOnly,omitempty"`
	WriteOnly   *bool   `json:"writeOnly,omitempty"`
	Examples    []any   `json:"examples,omitempty"`

	Extra map[string]any `json:"-"`
}

// Parse parses a JSON Schema document into a Schema tree. It does not
// perform dialect detection, $id/base-URI propagation, or anchor
// collection — that is Normalize's job, grounded on the teacher's
// initializeSchemaCore walk (see package normalize).
func Parse(jsonSchema []byte) (*Schema, error) {
	s := &Schema{}
	if err := json.Unmarshal(jsonSchema, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Parent returns the schema's parent in the canonical tree, or nil at the root.
func (s *Schema) Parent() *Schema { return s.parent }

// SetParent is used by normalize's tree walk to wire parent back-edges.
func (s *Schema) SetParent(p *Schema) { s.parent = p }

// URI returns the resolved base identifier assigned during normalization.
func (s *Schema) URI() string { return s.uri }

// SetURI is used by normalize's tree walk.
func (s *Schema) SetURI(uri string) { s.uri = uri }

// BaseURI returns the resolution base in effect at this node.
func (s *Schema) BaseURI() string { return s.baseURI }

// SetBaseURI is used by normalize's tree walk.
func (s *Schema) SetBaseURI(base string) { s.baseURI = base }

// DefsKeyword reports which keyword ("$defs" or "definitions") this node's
// Defs map was actually populated from in the origin document, empty when
// the node has no Defs at all. Normalize's pointer-map walk consults this
// instead of assuming every $defs container came from a definitions source.
func (s *Schema) DefsKeyword() string { return s.defsKeyword }

// SetAnchor records a plain $anchor target, reachable by GetAnchor.
func (s *Schema) SetAnchor(name string, target *Schema) {
	if s.anchors == nil {
		s.anchors = map[string]*Schema{}
	}
	s.anchors[name] = target
}

// GetAnchor looks up a plain $anchor, walking up to the root if absent locally.
func (s *Schema) GetAnchor(name string) (*Schema, bool) {
	if t, ok := s.anchors[name]; ok {
		return t, true
	}
	if s.parent != nil {
		return s.parent.GetAnchor(name)
	}
	return nil, false
}

// SetDynamicAnchor records a $dynamicAnchor target.
func (s *Schema) SetDynamicAnchor(name string, target *Schema) {
	if s.dynamicAnchors == nil {
		s.dynamicAnchors = map[string]*Schema{}
	}
	s.dynamicAnchors[name] = target
}

// GetDynamicAnchor looks up a $dynamicAnchor, walking up to the root if absent locally.
func (s *Schema) GetDynamicAnchor(name string) (*Schema, bool) {
	if t, ok := s.dynamicAnchors[name]; ok {
		return t, true
	}
	if s.parent != nil {
		return s.parent.GetDynamicAnchor(name)
	}
	return nil, false
}

// RootSchema returns the highest-level ancestor of s.
func (s *Schema) RootSchema() *Schema {
	if s.parent != nil {
		return s.parent.RootSchema()
	}
	return s
}

// IsBoolean reports whether s is a boolean schema (true/false), which has
// no keyword fields at all.
func (s *Schema) IsBoolean() bool { return s.Boolean != nil }

// MarshalJSON implements json.Marshaler with deterministic key ordering,
// mirroring the teacher's own MarshalJSON: the const field is merged in
// manually since ConstValue needs to distinguish "absent" from "null".
func (s *Schema) MarshalJSON() ([]byte, error) {
	if s.Boolean != nil {
		return json.Marshal(s.Boolean, json.Deterministic(true))
	}

	type alias Schema
	data, err := json.Marshal((*alias)(s), json.Deterministic(true))
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	if s.Const != nil {
		result["const"] = s.Const.Value
	}
	maps.Copy(result, s.Extra)

	return json.Marshal(result, json.Deterministic(true))
}

// MarshalJSONTo implements the JSON v2 encode-to-stream path, forcing
// deterministic ordering regardless of caller-supplied options.
func (s *Schema) MarshalJSONTo(enc *jsontext.Encoder, opts json.Options) error {
	opts = json.JoinOptions(opts, json.Deterministic(true))
	if s.Boolean != nil {
		return json.MarshalEncode(enc, s.Boolean, opts)
	}
	data, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return err
	}
	return json.MarshalEncode(enc, result, opts)
}

// UnmarshalJSON implements json.Unmarshaler, handling boolean schemas, the
// items-as-array-vs-object polymorphism across drafts, the
// definitions->$defs fold, and the const field's absent-vs-null
// distinction — all adapted from the teacher's UnmarshalJSON.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		s.Boolean = &b
		return nil
	}

	type alias Schema
	aux := &struct {
		Items           jsontext.Value `json:"items,omitempty"`
		AdditionalItems *Schema        `json:"additionalItems,omitempty"`
		*alias
	}{alias: (*alias)(s)}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	if len(aux.Items) > 0 {
		trimmed := bytes.TrimSpace(aux.Items)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(aux.Items, &s.PrefixItems); err != nil {
				return err
			}
			if aux.AdditionalItems != nil {
				s.Items = aux.AdditionalItems
			}
		} else if err := json.Unmarshal(aux.Items, &s.Items); err != nil {
			return err
		}
	}

	var raw map[string]jsontext.Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if defsData, ok := raw["definitions"]; ok && s.Defs == nil {
		var defs map[string]*Schema
		if err := json.Unmarshal(defsData, &defs); err != nil {
			return err
		}
		s.Defs = defs
		s.defsKeyword = "definitions"
	} else if _, ok := raw["$defs"]; ok {
		s.defsKeyword = "$defs"
	}

	if constData, ok := raw["const"]; ok {
		if s.Const == nil {
			s.Const = &ConstValue{}
		}
		if err := s.Const.UnmarshalJSON(constData); err != nil {
			return err
		}
	}

	return s.collectExtraFields(data)
}

func (s *Schema) collectExtraFields(raw []byte) error {
	var all map[string]any
	if err := json.Unmarshal(raw, &all); err != nil {
		return err
	}
	for key := range knownSchemaFields {
		delete(all, key)
	}
	if len(all) > 0 {
		s.Extra = all
	}
	return nil
}

// SchemaMap represents properties/patternProperties: a map of string keys
// to *Schema, serialized deterministically.
type SchemaMap map[string]*Schema

func (sm SchemaMap) MarshalJSON() ([]byte, error) {
	m := make(map[string]*Schema, len(sm))
	maps.Copy(m, sm)
	return json.Marshal(m, json.Deterministic(true))
}

func (sm *SchemaMap) MarshalJSONTo(enc *jsontext.Encoder, opts json.Options) error {
	opts = json.JoinOptions(opts, json.Deterministic(true))
	if sm == nil {
		return json.MarshalEncode(enc, nil, opts)
	}
	m := make(map[string]*Schema, len(*sm))
	maps.Copy(m, *sm)
	return json.MarshalEncode(enc, m, opts)
}

func (sm *SchemaMap) UnmarshalJSON(data []byte) error {
	m := make(map[string]*Schema)
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*sm = SchemaMap(m)
	return nil
}
