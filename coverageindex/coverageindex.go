// Package coverageindex builds, for every object-typed node in a canonical
// schema, the admissible key universe the coverage planner and generator
// both need: which property names a generated instance is allowed to use,
// and whether that node qualifies for exhaustive ("G_valid") coverage
// treatment. Grounded on the teacher's properties.go/patternProperties.go
// keyword evaluators, generalized from "does this instance satisfy the
// keyword" into "which keys could ever satisfy it."
package coverageindex

import (
	"sort"

	"github.com/foundrydata/foundrydata-sub008/automata"
	"github.com/foundrydata/foundrydata-sub008/diag"
	"github.com/foundrydata/foundrydata-sub008/schema"
)

// defaultMaxKeys bounds how many admissible keys a single node contributes
// to the universe before the planner falls back to a capped, deterministic
// subset — mirrors the teacher's own bounded-enumeration posture for
// pattern-derived candidates.
const defaultMaxKeys = 64

// defaultMaxPatternWitnesses bounds how many literal witnesses are lifted
// per patternProperties entry before the lift is considered exhausted.
const defaultMaxPatternWitnesses = 8

// Source records where one admissible key came from, so a caller (repair's
// rename/add-required actions in particular) can tell a literal
// "properties" key apart from one lifted out of a patternProperties
// regex witness.
type Source struct {
	Key  string
	Kind SourceKind
}

// SourceKind is the closed set of places an admissible key can come from.
type SourceKind string

const (
	SourceLiteralProperty  SourceKind = "properties"
	SourcePatternWitness   SourceKind = "patternProperties"
	SourceSynthetic        SourceKind = "synthetic"
)

// CoverageEntry is the admissible key universe computed for one object
// node, plus whether that universe is "must-cover": closed
// (additionalProperties:false) with a minProperties floor higher than the
// count of keys a generated instance is certain to already carry, which
// means every remaining slot an instance fills MUST come from this
// universe rather than an invented name.
type CoverageEntry struct {
	CanonPath  string
	Keys       []string
	Synthetic  bool
	Capped     bool
	GValid     bool
	MustCover  bool
	Provenance []Source
}

// Has reports whether name is an admissible key in this entry's universe.
func (e CoverageEntry) Has(name string) bool {
	for _, k := range e.Keys {
		if k == name {
			return true
		}
	}
	return false
}

// Enumerate returns the entry's admissible keys and whether that list is
// exhaustive (true) rather than capped/synthetic (false) — a capped or
// synthetic universe is a sample, not the full admissible set.
func (e CoverageEntry) Enumerate() ([]string, bool) {
	return e.Keys, !e.Capped && !e.Synthetic
}

// BuildKeyUniverse computes the admissible key universe for an object node
// at canonPath: literal properties, plus literal witnesses lifted out of
// patternProperties regexes, filtered through propertyNames when present,
// falling back to a synthetic single-key universe when nothing else
// applies (a bare `{"type":"object"}` still needs at least one key to
// exercise "object with some property" coverage targets).
func BuildKeyUniverse(s *schema.Schema, canonPath string, notes *diag.Envelope) CoverageEntry {
	entry := CoverageEntry{CanonPath: canonPath}
	if s == nil || s.Boolean != nil {
		return entry
	}

	keySet := map[string]bool{}
	provenance := map[string]SourceKind{}

	if s.Properties != nil {
		for k := range *s.Properties {
			keySet[k] = true
			provenance[k] = SourceLiteralProperty
		}
	}

	if s.PatternProperties != nil {
		for pattern := range *s.PatternProperties {
			witnesses, decision, err := automata.Enumerate(pattern, defaultMaxPatternWitnesses, 24)
			if err != nil || decision.Strategy == automata.StrategyRefused {
				continue
			}
			for _, w := range witnesses {
				keySet[w] = true
				if _, ok := provenance[w]; !ok {
					provenance[w] = SourcePatternWitness
				}
			}
		}
	}

	// propertyNames.enum without any declared properties/patternProperties
	// is itself a source of admissible keys, not just a filter on others —
	// a {"propertyNames":{"enum":["b","c"]}} schema admits exactly b and c.
	if len(keySet) == 0 && s.PropertyNames != nil && len(s.PropertyNames.Enum) > 0 {
		for _, v := range s.PropertyNames.Enum {
			if str, ok := v.(string); ok {
				keySet[str] = true
				provenance[str] = SourceLiteralProperty
			}
		}
	}

	if s.PropertyNames != nil {
		keySet = filterByPropertyNames(keySet, s.PropertyNames)
	}

	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(keys) == 0 {
		keys = []string{"prop0"}
		provenance["prop0"] = SourceSynthetic
		entry.Synthetic = true
	}

	if len(keys) > defaultMaxKeys {
		keys = keys[:defaultMaxKeys]
		entry.Capped = true
		if notes != nil {
			notes.AddWarn(diag.New(diag.CodeComplexityCapEnum, diag.PhaseCompose, canonPath, map[string]any{"cap": defaultMaxKeys}))
		}
	}

	entry.Keys = keys
	entry.Provenance = make([]Source, 0, len(keys))
	for _, k := range keys {
		kind, ok := provenance[k]
		if !ok {
			kind = SourceLiteralProperty
		}
		entry.Provenance = append(entry.Provenance, Source{Key: k, Kind: kind})
	}
	entry.GValid = ClassifyGValid(s)
	entry.MustCover = isMustCover(s)
	return entry
}

// isMustCover reports whether this object node closes off additional
// properties and demands more properties than its certain-required set
// alone guarantees, meaning any key a generated/repaired instance still
// needs to add MUST be drawn from the admissible key universe rather than
// invented.
func isMustCover(s *schema.Schema) bool {
	if s.AdditionalProperties == nil {
		return false
	}
	if s.AdditionalProperties.Boolean == nil || *s.AdditionalProperties.Boolean {
		return false
	}
	if s.MinProperties == nil {
		return false
	}
	return *s.MinProperties > float64(len(s.Required))
}

// filterByPropertyNames keeps only candidate keys propertyNames would
// accept: an enum/const restricts to its literal members, a pattern is
// checked via the automata engine (no host regexp reuse), everything else
// passes through unfiltered.
func filterByPropertyNames(keySet map[string]bool, propertyNames *schema.Schema) map[string]bool {
	if propertyNames == nil || propertyNames.Boolean != nil {
		if propertyNames != nil && propertyNames.Boolean != nil && !*propertyNames.Boolean {
			return map[string]bool{}
		}
		return keySet
	}

	out := map[string]bool{}
	if len(propertyNames.Enum) > 0 {
		allowed := map[string]bool{}
		for _, v := range propertyNames.Enum {
			if str, ok := v.(string); ok {
				allowed[str] = true
			}
		}
		for k := range keySet {
			if allowed[k] {
				out[k] = true
			}
		}
		return out
	}

	if propertyNames.Pattern != nil {
		pat, err := automata.Parse(*propertyNames.Pattern)
		if err != nil {
			return keySet
		}
		nfa := automata.Build(pat)
		dfa := automata.Determinize(nfa)
		for k := range keySet {
			if automata.Match(dfa, k) {
				out[k] = true
			}
		}
		return out
	}

	return keySet
}

// ClassifyGValid reports whether a node's admissible key universe can be
// treated as exhaustive for generation purposes. A node is disqualified
// when unevaluatedProperties/unevaluatedItems are present without a
// compensating closed-world guard (here: present at all, since guarding
// them correctly requires full allOf/$ref evaluation-trace bookkeeping the
// generator's EVALTRACE_PROP_SOURCE diagnostic handles case by case, not a
// static schema shape), or when uniqueItems is set — both make the literal
// key/item universe insufficient to guarantee satisfiability on its own.
func ClassifyGValid(s *schema.Schema) bool {
	if s == nil || s.Boolean != nil {
		return false
	}
	if s.UnevaluatedProperties != nil {
		return false
	}
	if s.UnevaluatedItems != nil {
		return false
	}
	if s.UniqueItems != nil && *s.UniqueItems {
		return false
	}
	return true
}
