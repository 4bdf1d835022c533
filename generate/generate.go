// Package generate produces concrete JSON instances from a composed
// schema tree. There is no teacher file to ground this on directly — the
// teacher only validates instances, it never manufactures them — so this
// package is grounded on the teacher's keyword semantics read in reverse
// (what would make evaluateMinimum/evaluatePattern/evaluateUniqueItems
// pass) plus the automata package's witness enumerator for pattern
// satisfaction, and seeds its randomness the way a deterministic test-data
// generator must: every sub-decision derives its own PRNG from a
// structural hash of (seed, canonical path, dimension, counter) rather
// than sharing one mutable global source, so branch order never affects
// output.
package generate

import (
	"math/rand"

	"github.com/foundrydata/foundrydata-sub008/compose"
	"github.com/foundrydata/foundrydata-sub008/diag"
	"github.com/foundrydata/foundrydata-sub008/schema"
	"github.com/foundrydata/foundrydata-sub008/structhash"
)

// unionTypeRank orders candidate types when a schema's "type" keyword
// names more than one, so branch selection over an untyped or
// multi-typed schema is deterministic rather than map-iteration order.
var unionTypeRank = []string{"integer", "number", "string", "boolean", "array", "object", "null"}

// CoverageEvent records one generation decision a coverage target can be
// matched against by (CanonPath, Kind) — emitted as Generate actually makes
// the decision (picks a boundary value, a oneOf branch, an admissible
// object key) instead of inferred after the fact by re-validating the
// finished instance against every target's subschema.
type CoverageEvent struct {
	Kind      string
	CanonPath string
}

// Generator produces instances for one (schema tree, seed) pair.
type Generator struct {
	model     *compose.Model
	seed      int64
	notes     *diag.Envelope
	itemIndex int
	events    []CoverageEvent
}

// New constructs a Generator bound to a composed model and master seed.
func New(model *compose.Model, seed int64, notes *diag.Envelope) *Generator {
	return &Generator{model: model, seed: seed, notes: notes}
}

// SetItemIndex marks which item, in a run producing several instances, the
// next Generate call will produce. Boundary-representative selection reads
// this to vary deterministically by item instead of replaying the same
// draw for every item in the run.
func (g *Generator) SetItemIndex(i int) { g.itemIndex = i }

// Events drains the coverage events recorded since the last call, so a
// caller iterating one item at a time can attribute each batch of events
// to the item that produced them.
func (g *Generator) Events() []CoverageEvent {
	out := g.events
	g.events = nil
	return out
}

func (g *Generator) recordEvent(kind, canonPath string) {
	g.events = append(g.events, CoverageEvent{Kind: kind, CanonPath: canonPath})
}

// subRand derives an independent, deterministic *rand.Rand for one
// decision point, mixing (seed, canonPath, dimension, counter) through a
// structural hash rather than advancing a single shared generator —
// doing it this way means the order fields are visited in never changes
// the bits any single decision sees.
func (g *Generator) subRand(canonPath, dimension string, counter int) *rand.Rand {
	key := structhash.StableParamsKey(map[string]any{
		"seed": g.seed, "canonPath": canonPath, "dimension": dimension, "counter": counter,
	})
	digest := structhash.HashString(key)
	var seed int64
	for i := 0; i < 16 && i < len(digest); i++ {
		seed = seed<<4 | int64(hexNibble(digest[i]))
	}
	return rand.New(rand.NewSource(seed))
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return 0
	}
}

// Generate produces one instance satisfying s, rooted at canonPath.
func (g *Generator) Generate(s *schema.Schema, canonPath string) any {
	if s == nil {
		return nil
	}
	if s.Boolean != nil {
		if *s.Boolean {
			return nil
		}
		return nil
	}

	if s.If != nil {
		s = g.applyIfAware(s, canonPath)
	}

	if len(s.OneOf) > 0 {
		return g.generateFromBranches(s.OneOf, canonPath, "oneOf")
	}
	if len(s.AnyOf) > 0 {
		return g.generateFromBranches(s.AnyOf, canonPath, "anyOf")
	}

	t := g.chooseType(s, canonPath)
	switch t {
	case "integer", "number":
		return g.generateNumber(s, canonPath, t)
	case "string":
		return g.generateString(s, canonPath)
	case "boolean":
		return g.subRand(canonPath, "boolean", 0).Intn(2) == 1
	case "array":
		return g.generateArray(s, canonPath)
	case "object":
		return g.generateObject(s, canonPath)
	case "null":
		return nil
	default:
		return nil
	}
}

// generateFromBranches picks a oneOf/anyOf branch using Compose's
// deterministic exclusivityRand when available, falling back to
// dimension-ordered priority (first branch whose declared type ranks
// highest in unionTypeRank) when Compose recorded none.
func (g *Generator) generateFromBranches(branches []*schema.Schema, canonPath, dimension string) any {
	node := g.model.Nodes[canonPath]
	idx := 0
	if node != nil && len(node.OneOfExclusivity) == len(branches) {
		best := node.OneOfExclusivity[0]
		for i, v := range node.OneOfExclusivity {
			if v > best {
				best = v
				idx = i
			}
		}
	} else {
		idx = bestRankedBranch(branches)
	}
	if dimension == "oneOf" {
		g.recordEvent("oneof_branch", canonPath)
	}
	return g.Generate(branches[idx], canonPath+"/"+dimension+"/"+itoa(idx))
}

func bestRankedBranch(branches []*schema.Schema) int {
	best, bestRank := 0, len(unionTypeRank)
	for i, b := range branches {
		if b == nil || b.Boolean != nil || len(b.Type) == 0 {
			continue
		}
		for rank, tname := range unionTypeRank {
			if b.Type.Has(tname) && rank < bestRank {
				best, bestRank = i, rank
			}
		}
	}
	return best
}

func (g *Generator) chooseType(s *schema.Schema, canonPath string) string {
	if len(s.Type) == 1 {
		return s.Type[0]
	}
	if len(s.Type) > 1 {
		for _, t := range unionTypeRank {
			if s.Type.Has(t) {
				return t
			}
		}
	}
	if s.Properties != nil || s.PatternProperties != nil {
		return "object"
	}
	if s.Items != nil || len(s.PrefixItems) > 0 {
		return "array"
	}
	return "string"
}

// applyIfAware folds an if/then/else triad into the effective schema used
// for this instance: it favors satisfying "if" (merging "then" in) unless
// the "if" branch's declared type can't coexist with the parent's own
// type, in which case it falls back to "else" — the "if-aware-lite"
// heuristic, a guess rather than a proof the way oneOf exclusivity is.
func (g *Generator) applyIfAware(s *schema.Schema, canonPath string) *schema.Schema {
	useIf := len(s.Type) == 0 || len(s.If.Type) == 0 || typesCompatible(s.Type, s.If.Type)

	var branch *schema.Schema
	if useIf {
		branch = s.If
		if s.Then != nil {
			branch = mergeForBranch(s.Then, s.If)
		}
	} else {
		branch = s.Else
	}
	if branch == nil {
		return s
	}

	if g.notes != nil {
		picked := "else"
		if useIf {
			picked = "then"
		}
		g.notes.AddWarn(diag.New(diag.CodeIfAwareHintApplied, diag.PhaseGenerate, canonPath, map[string]any{"branch": picked}))
	}
	return mergeForBranch(s, branch)
}

func typesCompatible(a, b schema.SchemaType) bool {
	for _, t := range a {
		if b.Has(t) || (t == "integer" && b.Has("number")) || (t == "number" && b.Has("integer")) {
			return true
		}
	}
	return false
}

// mergeForBranch folds overlay's generation-relevant keywords onto a copy
// of base, overlay winning on every field it sets. Grounded on the
// teacher's mergeProperties (schemamerge.go), narrowed from a full
// recursive schema merge to the fields Generate actually reads.
func mergeForBranch(base, overlay *schema.Schema) *schema.Schema {
	if overlay == nil {
		return base
	}
	merged := *base
	if len(overlay.Type) > 0 {
		merged.Type = overlay.Type
	}
	merged.Properties = mergeSchemaMaps(merged.Properties, overlay.Properties)
	if len(overlay.Required) > 0 {
		merged.Required = append(append([]string{}, merged.Required...), overlay.Required...)
	}
	if overlay.AdditionalProperties != nil {
		merged.AdditionalProperties = overlay.AdditionalProperties
	}
	if overlay.Minimum != nil {
		merged.Minimum = overlay.Minimum
	}
	if overlay.Maximum != nil {
		merged.Maximum = overlay.Maximum
	}
	if overlay.ExclusiveMinimum != nil {
		merged.ExclusiveMinimum = overlay.ExclusiveMinimum
	}
	if overlay.ExclusiveMaximum != nil {
		merged.ExclusiveMaximum = overlay.ExclusiveMaximum
	}
	if overlay.MultipleOf != nil {
		merged.MultipleOf = overlay.MultipleOf
	}
	if overlay.MinLength != nil {
		merged.MinLength = overlay.MinLength
	}
	if overlay.MaxLength != nil {
		merged.MaxLength = overlay.MaxLength
	}
	if overlay.Pattern != nil {
		merged.Pattern = overlay.Pattern
	}
	if overlay.MinItems != nil {
		merged.MinItems = overlay.MinItems
	}
	if overlay.MaxItems != nil {
		merged.MaxItems = overlay.MaxItems
	}
	if overlay.Items != nil {
		merged.Items = overlay.Items
	}
	if len(overlay.PrefixItems) > 0 {
		merged.PrefixItems = overlay.PrefixItems
	}
	if overlay.Contains != nil {
		merged.Contains = overlay.Contains
	}
	if overlay.MinContains != nil {
		merged.MinContains = overlay.MinContains
	}
	if len(overlay.Enum) > 0 {
		merged.Enum = overlay.Enum
	}
	if overlay.Const != nil {
		merged.Const = overlay.Const
	}
	if overlay.MinProperties != nil {
		merged.MinProperties = overlay.MinProperties
	}
	if overlay.MaxProperties != nil {
		merged.MaxProperties = overlay.MaxProperties
	}
	return &merged
}

func mergeSchemaMaps(p1, p2 *schema.SchemaMap) *schema.SchemaMap {
	if p2 == nil {
		return p1
	}
	if p1 == nil {
		result := schema.SchemaMap(*p2)
		return &result
	}
	result := make(schema.SchemaMap, len(*p1)+len(*p2))
	for k, v := range *p1 {
		result[k] = v
	}
	for k, v := range *p2 {
		result[k] = v
	}
	return &result
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}
