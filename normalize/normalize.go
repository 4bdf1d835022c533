// Package normalize turns a user-supplied schema into a canonical schema
// plus a bijective pointer map, generalized from the teacher's
// initializeSchemaCore tree walk (schema.go) — which assigns URIs, base
// URIs, and anchors in a single recursive pass — into a pass that also
// relocates draft-specific keyword spellings into their 2020-12 canonical
// form and records, for every relocated node, the origin pointer it came
// from.
package normalize

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/foundrydata/foundrydata-sub008/diag"
	"github.com/foundrydata/foundrydata-sub008/pointermap"
	"github.com/foundrydata/foundrydata-sub008/schema"
)

// Result is Normalize's output: the canonical schema, the bijective
// pointer map between canonical and origin paths, the detected dialect,
// and non-fatal notes about what was relocated or stripped.
type Result struct {
	Canonical *schema.Schema
	PtrMap    *pointermap.Map
	Dialect   schema.Dialect
	Notes     diag.Envelope
}

// canonicalMetaschemaURIs is the closed set of well-known metaschema $id
// values that must never appear duplicated inside a bundled schema, since
// a duplicate collides with the validator's own built-in registration of
// the same URI.
var canonicalMetaschemaURIs = map[string]bool{
	"http://json-schema.org/draft-04/schema#":    true,
	"http://json-schema.org/draft-06/schema#":    true,
	"http://json-schema.org/draft-07/schema#":    true,
	"https://json-schema.org/draft/2019-09/schema": true,
	"https://json-schema.org/draft/2020-12/schema": true,
}

// Normalize produces a canonical schema and pointer map from raw. It never
// mutates the schema.Schema the caller already parsed — it re-parses from
// the original JSON bytes so the canonical tree is an independent copy.
func Normalize(raw []byte) (*Result, error) {
	var probe struct {
		Schema string `json:"$schema"`
	}
	_ = json.Unmarshal(raw, &probe)
	dialect := schema.DetectDialect(probe.Schema)

	canon, err := schema.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize: parse: %w", err)
	}

	res := &Result{Canonical: canon, PtrMap: pointermap.New(), Dialect: dialect}

	assignScopes(canon, nil, "", "")
	unwrapTrivialBooleans(canon, "", res)
	rewriteDefinitionRefs(canon)
	stripBundledMetaschemaCollisions(canon, res)
	recordPointerMap(canon, "", "", res)

	if dialect == schema.DialectUnknown {
		res.Notes.AddWarn(diag.New(diag.CodeDialectUnknown, diag.PhaseNormalize, "", map[string]any{"schema": probe.Schema}))
	}

	return res, nil
}

// assignScopes performs the parent/baseURI/anchor walk the teacher calls
// initializeSchemaCore, generalized to walk every subschema-bearing field
// via schema.Schema.Children rather than one field at a time.
func assignScopes(s *schema.Schema, parent *schema.Schema, baseURI, idFieldFallback string) {
	if s == nil || s.Boolean != nil {
		return
	}
	s.SetParent(parent)

	effectiveBase := baseURI
	if s.ID != "" {
		if schema.IsAbsoluteURI(s.ID) {
			effectiveBase = schema.BaseURIFromID(s.ID)
		} else {
			effectiveBase = schema.ResolveRelativeURI(baseURI, s.ID)
		}
		s.SetURI(s.ID)
	}
	s.SetBaseURI(effectiveBase)

	if s.Anchor != "" {
		root := s.RootSchema()
		if root != nil {
			root.SetAnchor(s.Anchor, s)
		}
	}
	if s.DynamicAnchor != "" {
		root := s.RootSchema()
		if root != nil {
			root.SetDynamicAnchor(s.DynamicAnchor, s)
		}
	}

	for _, c := range s.Children() {
		assignScopes(c.Node, s, effectiveBase, idFieldFallback)
	}
}

// unwrapTrivialBooleans removes no-op `true` entries from allOf/anyOf/oneOf
// (a `true` subschema imposes no constraint), recording a note per removal.
// A `false` entry in allOf is left in place — the composer treats it as
// proof of unsatisfiability, which normalize's "never silently change
// satisfiability" contract requires keeping visible.
func unwrapTrivialBooleans(s *schema.Schema, path string, res *Result) {
	if s == nil || s.Boolean != nil {
		return
	}
	s.AllOf = unwrapList(s.AllOf, path+"/allOf", res)
	s.AnyOf = unwrapList(s.AnyOf, path+"/anyOf", res)
	s.OneOf = unwrapList(s.OneOf, path+"/oneOf", res)

	for _, c := range s.Children() {
		unwrapTrivialBooleans(c.Node, path+"/"+strings.Join(c.Tokens, "/"), res)
	}
}

func unwrapList(list []*schema.Schema, path string, res *Result) []*schema.Schema {
	out := list[:0:0]
	for i, item := range list {
		if item != nil && item.Boolean != nil && *item.Boolean {
			res.Notes.AddNote(fmt.Sprintf("unwrapped trivially-true branch at %s/%d", path, i))
			continue
		}
		out = append(out, item)
	}
	return out
}

// rewriteDefinitionRefs retargets any $ref/$dynamicRef of the shape
// "#/definitions/<name>" to "#/$defs/<name>", since schema.Parse already
// folds a "definitions" container into Defs but leaves ref strings
// untouched.
func rewriteDefinitionRefs(s *schema.Schema) {
	if s == nil || s.Boolean != nil {
		return
	}
	s.Ref = rewriteRefString(s.Ref)
	s.DynamicRef = rewriteRefString(s.DynamicRef)
	for _, c := range s.Children() {
		rewriteDefinitionRefs(c.Node)
	}
}

func rewriteRefString(ref string) string {
	if ref == "" {
		return ref
	}
	base, fragment := schema.SplitRef(ref)
	if strings.HasPrefix(fragment, "/definitions/") {
		fragment = "/$defs/" + strings.TrimPrefix(fragment, "/definitions/")
	}
	if base == "" {
		return "#" + fragment
	}
	return base + "#" + fragment
}

// stripBundledMetaschemaCollisions removes any $defs entry whose $id
// collides with a canonical metaschema URL, per the bundle-safety policy.
func stripBundledMetaschemaCollisions(s *schema.Schema, res *Result) {
	if s == nil || s.Boolean != nil {
		return
	}
	for name, def := range s.Defs {
		if def != nil && def.Boolean == nil && canonicalMetaschemaURIs[def.ID] {
			delete(s.Defs, name)
			res.Notes.AddNote(fmt.Sprintf("stripped bundled $defs/%s: $id %q collides with a canonical metaschema", name, def.ID))
		}
	}
	for _, c := range s.Children() {
		stripBundledMetaschemaCollisions(c.Node, res)
	}
}

// recordPointerMap walks the canonical tree recording a canonical<->origin
// pointer pair for every node. Since schema.Parse already folds
// "definitions" into $defs and tuple "items" arrays into prefixItems
// in-place, the origin pointer for a relocated node uses the pre-relocation
// keyword name while the canonical pointer always uses the 2020-12 spelling.
func recordPointerMap(s *schema.Schema, canonPath, originPath string, res *Result) {
	if s == nil {
		return
	}
	res.PtrMap.Record(canonPath, originPath)
	if s.Boolean != nil {
		return
	}
	for _, c := range s.Children() {
		token := strings.Join(c.Tokens, "/")
		originToken := originTokenFor(s, c.Tokens)
		recordPointerMap(c.Node, canonPath+"/"+token, originPath+"/"+originToken, res)
	}
}

// originTokenFor reverses a canonical token sequence back to the spelling
// the origin document actually used. A $defs container only gets rewritten
// to "definitions" when parent recorded that keyword as its actual source
// (schema.Schema.DefsKeyword); a document natively written against 2020-12
// keeps the $defs spelling, since fabricating a "definitions" pointer for
// it would break pointer-map round-tripping.
func originTokenFor(parent *schema.Schema, tokens []string) string {
	joined := strings.Join(tokens, "/")
	if tokens[0] == "$defs" && parent.DefsKeyword() == "definitions" {
		return "definitions/" + strings.Join(tokens[1:], "/")
	}
	return joined
}

// SortedCanonicalPaths returns every canonical path the normalizer touched,
// in sorted order, matching the "inverse map is kept in sorted order"
// policy for pointer-map emission.
func (r *Result) SortedCanonicalPaths() []string {
	paths := r.PtrMap.CanonicalPaths()
	sort.Strings(paths)
	return paths
}
