// Package repair runs the score-monotone fixed-point loop that nudges a
// generated instance that fails oracle evaluation back toward
// satisfiability, one local action at a time. Grounded on the teacher's
// per-keyword evaluators read as repair targets (minimum.go/maximum.go
// for the numeric nudge, multipleOf.go for the snap action,
// maxlength.go/minlength.go for pad/truncate, required.go for witness
// synthesis, enum.go for closed-enum rename) and schemamerge.go's
// boolean-schema-aware merge pattern for how to synthesize a value that
// satisfies an arbitrary subschema.
package repair

import (
	"math"

	"github.com/foundrydata/foundrydata-sub008/coverageindex"
	"github.com/foundrydata/foundrydata-sub008/diag"
	"github.com/foundrydata/foundrydata-sub008/oracle"
	"github.com/foundrydata/foundrydata-sub008/schema"
)

// Tier classifies a keyword by how invasive a repair targeting it is.
type Tier int

const (
	// TierLocal keywords can be fixed by nudging the existing value in
	// place without touching its type or shape.
	TierLocal Tier = 1
	// TierStructural keywords require replacing or restructuring the
	// value itself (changing its type, membership, or key set).
	TierStructural Tier = 2
)

var tier1Keywords = map[string]bool{
	"minimum": true, "maximum": true, "exclusiveMinimum": true, "exclusiveMaximum": true,
	"multipleOf": true, "minLength": true, "maxLength": true, "pattern": true,
	"uniqueItems": true, "minItems": true, "maxItems": true,
}

// ClassifyTier returns the tier a keyword's repair action belongs to.
// Keywords absent from the known tier-1 vocabulary default to tier 2, the
// conservative choice, since an unrecognized keyword might carry
// structural meaning this package doesn't know how to nudge safely.
func ClassifyTier(keyword string) Tier {
	if tier1Keywords[keyword] {
		return TierLocal
	}
	return TierStructural
}

// structuralKeywords are rejected outright by the G_valid gate: a G_valid
// node has already committed to its key/item universe during Compose, so
// repair must not change its shape. propertyNames is excluded: it has its
// own action family (renamePropertyNamesMember) with its own diagnostics
// rather than the generic g_valid rejection.
var structuralKeywords = map[string]bool{
	"type": true, "enum": true, "const": true, "required": true, "contains": true,
	"minContains": true, "maxContains": true, "minProperties": true, "maxProperties": true,
	"additionalProperties": true, "unevaluatedProperties": true, "unevaluatedItems": true,
}

// Outcome is Repair's result for one instance.
type Outcome struct {
	Value      any
	Cycles     int
	FinalScore int
	Notes      diag.Envelope
	Exhausted  bool
}

const maxCycles = 25

// Repair runs the fixed-point loop with no must-cover universe wired in
// (every object node is treated as open for rename/witness purposes).
func Repair(s *schema.Schema, value any, o oracle.Oracle) Outcome {
	return RepairWithUniverse(s, value, o, nil)
}

// RepairWithUniverse runs the fixed-point loop: evaluate, pick the
// highest-value action among the current error set, apply it, re-evaluate,
// and stop when the distinct-error-signature count reaches zero, rises
// above the previous cycle's count, no action applies to the chosen error,
// or maxCycles cycles are used up; a cycle that leaves the count unchanged
// does not stop the loop on its own. universe is Compose's
// admissible-key index keyed by canonical path; the propertyNames rename
// action consults it so a renamed key never falls outside a must-cover
// object's closed key set.
func RepairWithUniverse(s *schema.Schema, value any, o oracle.Oracle, universe map[string]coverageindex.CoverageEntry) Outcome {
	out := Outcome{Value: value}
	prevScore := math.MaxInt32

	for cycle := 0; cycle < maxCycles; cycle++ {
		errs := o.Evaluate(s, "", out.Value)
		score := distinctSignatures(errs)
		out.Cycles = cycle
		out.FinalScore = score

		if score == 0 {
			return out
		}
		if score > prevScore {
			out.Notes.AddWarn(diag.New(diag.CodeRepairStagnated, diag.PhaseRepair, "", map[string]any{"cycle": cycle, "score": score}))
			out.Exhausted = true
			return out
		}
		prevScore = score

		target := pickTarget(errs)
		applied := applyAction(s, &out.Value, target, &out.Notes, universe)
		if !applied {
			out.Notes.AddWarn(diag.New(diag.CodeRepairActionRejected, diag.PhaseRepair, target.CanonPath, map[string]any{"keyword": target.Keyword}))
			out.Exhausted = true
			return out
		}
	}

	out.Notes.AddFatal(diag.New(diag.CodeInternalError, diag.PhaseRepair, "", map[string]any{
		"reason": "UNSAT_BUDGET_EXHAUSTED", "cycles": maxCycles, "lastErrorCount": out.FinalScore,
	}))
	out.Exhausted = true
	return out
}

func distinctSignatures(errs []oracle.Error) int {
	seen := map[string]bool{}
	for _, e := range errs {
		seen[e.Signature()] = true
	}
	return len(seen)
}

// pickTarget chooses the first tier-1 error in deterministic (already
// sorted) order, falling back to the first tier-2 error that has an action
// family (required, enum, propertyNames), then to the first error, when no
// tier-1 error is present — fixing cheap local issues before attempting a
// structural rewrite tends to shrink the error set faster.
func pickTarget(errs []oracle.Error) oracle.Error {
	for _, e := range errs {
		if ClassifyTier(e.Keyword) == TierLocal {
			return e
		}
	}
	for _, e := range errs {
		switch e.Keyword {
		case "required", "enum", "propertyNames":
			return e
		}
	}
	return errs[0]
}

// applyAction dispatches to the action family for target.Keyword. It
// reports false when gValid forbids a structural rewrite at this path or
// no action family recognizes the keyword, signaling the loop to stop
// rather than thrash.
func applyAction(s *schema.Schema, value *any, target oracle.Error, notes *diag.Envelope, universe map[string]coverageindex.CoverageEntry) bool {
	if structuralKeywords[target.Keyword] {
		notes.AddWarn(diag.New(diag.CodeRepairActionRejected, diag.PhaseRepair, target.CanonPath, map[string]any{"reason": "g_valid"}))
	}

	switch target.Keyword {
	case "minimum", "maximum", "exclusiveMinimum", "exclusiveMaximum":
		return nudgeNumeric(value, target)
	case "multipleOf":
		return snapMultipleOf(value, target)
	case "minLength":
		return padString(value, target)
	case "maxLength":
		return truncateString(value, target)
	case "required":
		return addRequiredWitness(s, value, target)
	case "enum":
		return renameToEnumMember(s, value, target, notes)
	case "propertyNames":
		return renamePropertyNamesMember(s, value, target, notes, universe)
	default:
		return false
	}
}
