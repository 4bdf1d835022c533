// Package compose analyzes a normalized schema tree for satisfiability and
// produces the per-node models Generate and the coverage planner both
// need: numeric bound feasibility, the chosen multipleOf arithmetic mode,
// contains/capacity subsumption, each object node's admissible key
// universe, G_valid classification, and deterministic oneOf exclusivity
// randomness. Grounded on the teacher's keyword evaluators (minimum.go,
// maximum.go, multipleOf.go, contains.go) generalized from "check an
// instance" into "prove whether any instance can exist."
package compose

import (
	"math"
	"math/big"
	"sort"

	"github.com/foundrydata/foundrydata-sub008/coverageindex"
	"github.com/foundrydata/foundrydata-sub008/diag"
	"github.com/foundrydata/foundrydata-sub008/rational"
	"github.com/foundrydata/foundrydata-sub008/schema"
	"github.com/foundrydata/foundrydata-sub008/structhash"
)

// ExternalRefPolicy governs what Compose does with a $ref it cannot
// resolve locally (anything not a "#"-rooted fragment).
type ExternalRefPolicy int

const (
	// PolicyStrict makes an unresolved external $ref a fatal diagnostic.
	PolicyStrict ExternalRefPolicy = iota
	// PolicyLax downgrades it to a warning; the node's ExternalRef is still
	// recorded and its children are composed as usual.
	PolicyLax
)

// NodeModel is everything Compose determines about one canonical path.
type NodeModel struct {
	CanonPath       string
	NumericSat      bool
	MultipleOfMode  rational.Mode
	ContainsSat     bool
	Universe        coverageindex.CoverageEntry
	GValid          bool
	OneOfExclusivity []uint64
	ExternalRef     string
}

// Model is Compose's full output for a schema tree.
type Model struct {
	Seed  int64
	Nodes map[string]*NodeModel
	Notes diag.Envelope
}

// Compose walks root and builds a Model. seed drives the deterministic
// oneOf exclusivity randomness; the same (root, seed) always produces the
// same Model.
func Compose(root *schema.Schema, seed int64, policy ExternalRefPolicy) (*Model, error) {
	m := &Model{Seed: seed, Nodes: map[string]*NodeModel{}}
	composeNode(root, "", m, policy)
	return m, nil
}

func composeNode(s *schema.Schema, canonPath string, m *Model, policy ExternalRefPolicy) {
	if s == nil {
		return
	}
	if s.Boolean != nil {
		return
	}

	nm := &NodeModel{CanonPath: canonPath, NumericSat: true, ContainsSat: true}

	analyzeNumericBounds(s, canonPath, nm, m)
	nm.MultipleOfMode = selectMultipleOfMode(s.MultipleOf)
	analyzeContains(s, canonPath, nm, m)

	if s.Type.Has("object") || (len(s.Type) == 0 && (s.Properties != nil || s.PatternProperties != nil)) {
		nm.Universe = coverageindex.BuildKeyUniverse(s, canonPath, &m.Notes)
	}
	nm.GValid = coverageindex.ClassifyGValid(s)

	if len(s.OneOf) > 0 {
		nm.OneOfExclusivity = make([]uint64, len(s.OneOf))
		for i := range s.OneOf {
			nm.OneOfExclusivity[i] = exclusivityRand(m.Seed, canonPath, i)
		}
	}

	if s.Ref != "" {
		base, _ := schema.SplitRef(s.Ref)
		if base != "" {
			nm.ExternalRef = base
			switch policy {
			case PolicyStrict:
				m.Notes.AddFatal(diag.New(diag.CodeExternalRefUnresolved, diag.PhaseCompose, canonPath, map[string]any{"ref": s.Ref}))
			case PolicyLax:
				m.Notes.AddWarn(diag.New(diag.CodeExternalRefUnresolved, diag.PhaseCompose, canonPath, map[string]any{"ref": s.Ref}))
			}
		}
	}

	m.Nodes[canonPath] = nm

	for _, c := range s.Children() {
		childPath := canonPath
		for _, t := range c.Tokens {
			childPath += "/" + t
		}
		composeNode(c.Node, childPath, m, policy)
	}
}

// analyzeNumericBounds detects rangeEmpty (minimum > maximum once
// exclusivity is folded in) and integerDomainEmpty (no integer lies in
// the open/closed bound interval), emitting UNSAT hints rather than
// fatals since a sibling branch of an enclosing oneOf/anyOf may still be
// satisfiable.
func analyzeNumericBounds(s *schema.Schema, canonPath string, nm *NodeModel, m *Model) {
	lo, loExcl, hasLo := effectiveLower(s)
	hi, hiExcl, hasHi := effectiveUpper(s)
	if !hasLo || !hasHi {
		return
	}

	cmp := lo.Cmp(hi)
	rangeEmpty := cmp > 0 || (cmp == 0 && (loExcl || hiExcl))
	if rangeEmpty {
		nm.NumericSat = false
		m.Notes.AddUnsatHint(diag.New(diag.CodeNumericRangeUnsat, diag.PhaseCompose, canonPath, map[string]any{
			"minimum": lo.String(), "maximum": hi.String(),
		}).WithProvable(true))
		return
	}

	if s.Type.Has("integer") {
		lowInt := ceilBound(lo, loExcl)
		highInt := floorBound(hi, hiExcl)
		if lowInt > highInt {
			nm.NumericSat = false
			m.Notes.AddUnsatHint(diag.New(diag.CodeNumericRangeUnsat, diag.PhaseCompose, canonPath, map[string]any{
				"minimum": lo.String(), "maximum": hi.String(), "integerDomainEmpty": true,
			}).WithProvable(true))
		}
	}
}

func effectiveLower(s *schema.Schema) (val *rational.Rat, exclusive bool, ok bool) {
	if s.ExclusiveMinimum != nil {
		return s.ExclusiveMinimum, true, true
	}
	if s.Minimum != nil {
		return s.Minimum, false, true
	}
	return nil, false, false
}

func effectiveUpper(s *schema.Schema) (val *rational.Rat, exclusive bool, ok bool) {
	if s.ExclusiveMaximum != nil {
		return s.ExclusiveMaximum, true, true
	}
	if s.Maximum != nil {
		return s.Maximum, false, true
	}
	return nil, false, false
}

func ceilBound(v *rational.Rat, exclusive bool) int64 {
	f, _ := v.Float64()
	c := math.Ceil(f)
	if exclusive && c == f {
		c++
	}
	return int64(c)
}

func floorBound(v *rational.Rat, exclusive bool) int64 {
	f, _ := v.Float64()
	fl := math.Floor(f)
	if exclusive && fl == f {
		fl--
	}
	return int64(fl)
}

// selectMultipleOfMode picks the arithmetic mode a multipleOf check should
// use: exact for integer divisors, decimal for divisors whose reduced
// denominator is built only from factors of 2 and 5 (a finite decimal
// expansion), float as the fallback for anything else.
func selectMultipleOfMode(m *rational.Rat) rational.Mode {
	if m == nil {
		return rational.ModeExact
	}
	if m.IsInt() {
		return rational.ModeExact
	}
	d := new(big.Int).Set(m.Denom())
	two, five := big.NewInt(2), big.NewInt(5)
	zero := big.NewInt(0)
	for new(big.Int).Mod(d, two).Cmp(zero) == 0 {
		d.Div(d, two)
	}
	for new(big.Int).Mod(d, five).Cmp(zero) == 0 {
		d.Div(d, five)
	}
	if d.Cmp(big.NewInt(1)) == 0 {
		return rational.ModeDecimal
	}
	return rational.ModeFloat
}

// containsNeed is one "at least min items must match this subschema"
// requirement, collected either from a node's own contains/minContains or
// from one of its allOf branches.
type containsNeed struct {
	min    float64
	schema *schema.Schema
}

// analyzeContains proves CONTAINS_UNSAT_BY_SUM: the node's own contains
// requirement plus every allOf branch's contains requirement, summed after
// subsuming broader open-ended needs into narrower higher-min ones, cannot
// fit inside the array's effective capacity. A single need with no sibling
// to disambiguate against is trivially provable; with more than one
// distinct subschema the needs are only fatal when every pair is provably
// disjoint (by const/enum value or by type set) — otherwise the needs
// might overlap and the hint stays unproven.
func analyzeContains(s *schema.Schema, canonPath string, nm *NodeModel, m *Model) {
	needs := subsumeContainsNeeds(collectContainsNeeds(s))
	if len(needs) == 0 {
		return
	}

	for _, n := range needs {
		if n.schema.Boolean != nil && !*n.schema.Boolean && n.min > 0 {
			nm.ContainsSat = false
			m.Notes.AddFatal(diag.New(diag.CodeContainsUnsatBySum, diag.PhaseCompose, canonPath, map[string]any{
				"sumMin": n.min, "maxItems": 0, "disjointness": "provable",
			}).WithProvable(true))
			return
		}
	}

	effMax, hasCap := effectiveMaxItems(s)
	if !hasCap {
		return
	}

	sumMin := 0.0
	for _, n := range needs {
		sumMin += n.min
	}
	if sumMin <= effMax {
		return
	}

	nm.ContainsSat = false
	provable := len(needs) == 1 || allPairwiseDisjoint(needs)
	details := map[string]any{"sumMin": sumMin, "maxItems": effMax}
	if provable {
		details["disjointness"] = "provable"
		m.Notes.AddFatal(diag.New(diag.CodeContainsUnsatBySum, diag.PhaseCompose, canonPath, details).WithProvable(true))
	} else {
		details["reason"] = "overlapUnknown"
		m.Notes.AddUnsatHint(diag.New(diag.CodeContainsUnsatBySum, diag.PhaseCompose, canonPath, details).WithProvable(false))
	}
}

// collectContainsNeeds gathers the node's own contains need plus one per
// allOf branch that carries a contains keyword; other boolean combinators
// (anyOf/oneOf/not) don't compose additively the way allOf does, so they
// are left to the generator/repair loop rather than proven here.
func collectContainsNeeds(s *schema.Schema) []containsNeed {
	var needs []containsNeed
	if n, ok := selfContainsNeed(s); ok {
		needs = append(needs, n)
	}
	for _, branch := range s.AllOf {
		if branch == nil || branch.Boolean != nil {
			continue
		}
		if n, ok := selfContainsNeed(branch); ok {
			needs = append(needs, n)
		}
	}
	return needs
}

func selfContainsNeed(s *schema.Schema) (containsNeed, bool) {
	if s.Contains == nil {
		return containsNeed{}, false
	}
	min := 1.0
	if s.MinContains != nil {
		min = *s.MinContains
	}
	return containsNeed{min: min, schema: s.Contains}, true
}

// subsumeContainsNeeds merges needs whose contains subschema is
// structurally identical (keeping the larger min) and drops any
// unconstrained ("matches anything") need whose min doesn't exceed the
// largest min among the node's narrower needs, since satisfying the
// narrower need already satisfies the broader one.
func subsumeContainsNeeds(needs []containsNeed) []containsNeed {
	if len(needs) == 0 {
		return needs
	}

	merged := make([]containsNeed, 0, len(needs))
	keys := make([]string, 0, len(needs))
	for _, n := range needs {
		key, err := structhash.Sum(n.schema)
		if err != nil {
			merged = append(merged, n)
			keys = append(keys, "")
			continue
		}
		idx := -1
		for i, k := range keys {
			if k == key {
				idx = i
				break
			}
		}
		if idx >= 0 {
			if n.min > merged[idx].min {
				merged[idx].min = n.min
			}
			continue
		}
		merged = append(merged, n)
		keys = append(keys, key)
	}

	maxNarrow := 0.0
	anyNarrow := false
	for _, n := range merged {
		if !isUnconstrainedContains(n.schema) {
			anyNarrow = true
			if n.min > maxNarrow {
				maxNarrow = n.min
			}
		}
	}
	if !anyNarrow {
		return merged
	}

	out := merged[:0]
	for _, n := range merged {
		if isUnconstrainedContains(n.schema) && n.min <= maxNarrow {
			continue
		}
		out = append(out, n)
	}
	return out
}

// isUnconstrainedContains reports whether a contains subschema matches any
// item at all (an empty schema {} or boolean true), making it the
// "broader open-ended" case subsumption absorbs into narrower needs.
func isUnconstrainedContains(s *schema.Schema) bool {
	if s == nil {
		return true
	}
	if s.Boolean != nil {
		return *s.Boolean
	}
	return len(s.Type) == 0 && len(s.Enum) == 0 && (s.Const == nil || !s.Const.IsSet) &&
		s.Properties == nil && s.Items == nil && len(s.PrefixItems) == 0 && s.Contains == nil &&
		s.Minimum == nil && s.Maximum == nil && s.ExclusiveMinimum == nil && s.ExclusiveMaximum == nil &&
		s.MinLength == nil && s.MaxLength == nil && s.Pattern == nil &&
		len(s.AllOf) == 0 && len(s.AnyOf) == 0 && len(s.OneOf) == 0 && s.Not == nil
}

// effectiveMaxItems is the tightest known upper bound on array length: the
// schema's own maxItems, narrowed further by a closed tuple (prefixItems
// paired with items:false caps the array at len(prefixItems)).
func effectiveMaxItems(s *schema.Schema) (float64, bool) {
	limit := math.Inf(1)
	has := false
	if s.MaxItems != nil {
		limit = *s.MaxItems
		has = true
	}
	if s.Items != nil && s.Items.Boolean != nil && !*s.Items.Boolean && len(s.PrefixItems) > 0 {
		tupleCap := float64(len(s.PrefixItems))
		if !has || tupleCap < limit {
			limit = tupleCap
			has = true
		}
	}
	return limit, has
}

// allPairwiseDisjoint reports whether every pair of distinct contains needs
// is provably disjoint, the precondition for treating a capacity overflow
// as a hard UNSAT rather than an unproven overlap hint.
func allPairwiseDisjoint(needs []containsNeed) bool {
	for i := 0; i < len(needs); i++ {
		for j := i + 1; j < len(needs); j++ {
			if !provablyDisjointContains(needs[i].schema, needs[j].schema) {
				return false
			}
		}
	}
	return true
}

// provablyDisjointContains proves two contains subschemas can never both
// match the same instance, via const/enum value-set disjointness or
// type-set disjointness (integer is treated as a subset of number).
// Anything it can't decide returns false, the conservative "might overlap"
// answer.
func provablyDisjointContains(a, b *schema.Schema) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Const != nil && a.Const.IsSet {
		if b.Const != nil && b.Const.IsSet {
			return !structhashEqual(a.Const.Value, b.Const.Value)
		}
		if len(b.Enum) > 0 {
			return !enumContains(b.Enum, a.Const.Value)
		}
	}
	if b.Const != nil && b.Const.IsSet && len(a.Enum) > 0 {
		return !enumContains(a.Enum, b.Const.Value)
	}
	if len(a.Enum) > 0 && len(b.Enum) > 0 {
		for _, av := range a.Enum {
			if enumContains(b.Enum, av) {
				return false
			}
		}
		return true
	}
	if len(a.Type) > 0 && len(b.Type) > 0 {
		return !typeSetsOverlap(a.Type, b.Type)
	}
	return false
}

func enumContains(list []any, v any) bool {
	for _, item := range list {
		if structhashEqual(item, v) {
			return true
		}
	}
	return false
}

func structhashEqual(a, b any) bool {
	ha, erra := structhash.Sum(a)
	hb, errb := structhash.Sum(b)
	if erra != nil || errb != nil {
		return false
	}
	return ha == hb
}

// typeSetsOverlap reports whether two "type" keyword value sets can share
// an instance, folding "integer" into "number" on both sides since every
// integer is a number.
func typeSetsOverlap(a, b schema.SchemaType) bool {
	expanded := map[string]bool{}
	for _, t := range a {
		expanded[t] = true
		if t == "integer" {
			expanded["number"] = true
		}
	}
	for _, t := range b {
		if expanded[t] {
			return true
		}
		if t == "integer" && expanded["number"] {
			return true
		}
	}
	return false
}

// exclusivityRand derives the deterministic oneOf branch-selection
// randomness from (seed, canonPath, branch index) via a stable structural
// hash, so the same schema+seed always favors the same branch without any
// package-level mutable PRNG state.
func exclusivityRand(seed int64, canonPath string, branch int) uint64 {
	key := structhash.StableParamsKey(map[string]any{
		"seed": seed, "canonPath": canonPath, "branch": branch,
	})
	digest := structhash.HashString(key)
	var v uint64
	for i := 0; i < 16 && i < len(digest); i++ {
		v = v<<4 | uint64(hexNibble(digest[i]))
	}
	return v
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

// SortedUnsatCanonPaths returns every canonical path Compose flagged as
// provably unsatisfiable, in lexical order — the tie-break order the
// Open Question on overlapping strong-UNSAT paths resolves to.
func (m *Model) SortedUnsatCanonPaths() []string {
	seen := map[string]bool{}
	for _, d := range append(append([]diag.Diagnostic{}, m.Notes.Fatal...), m.Notes.UnsatHints...) {
		if d.Provable != nil && *d.Provable {
			seen[d.CanonPath] = true
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
