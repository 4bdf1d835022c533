// Package coverage derives coverage targets from a composed schema model
// and tracks which ones a generation run actually hit. There is no direct
// teacher analogue (the teacher validates; it never plans what to
// generate), so this package is grounded on structhash's canonical-hash
// pattern (itself grounded on quantumlife-canon-core's coverage-plan
// hashing) for stable target IDs, and on diag's closed code vocabulary
// for the coverageThresholdNotMet outcome.
package coverage

import (
	"sort"

	"github.com/foundrydata/foundrydata-sub008/compose"
	"github.com/foundrydata/foundrydata-sub008/diag"
	"github.com/foundrydata/foundrydata-sub008/structhash"
)

// Dimension names a coverage axis: which kind of edge case a target
// exercises.
type Dimension string

const (
	DimensionBoundary  Dimension = "boundary"
	DimensionBranch    Dimension = "branch"
	DimensionRequired  Dimension = "required"
	DimensionPattern   Dimension = "pattern"
)

// Status is a target's current coverage state.
type Status string

const (
	StatusPending     Status = "pending"
	StatusHit         Status = "hit"
	StatusUnreachable Status = "unreachable"
)

// EngineMajor/ReportMajor version the target-ID payload so IDs computed
// by incompatible engine/report versions never collide.
const (
	EngineMajor = 1
	ReportMajor = 1
)

// Target is one coverage target the planner expects Generate to exercise.
type Target struct {
	ID            string
	Dimension     Dimension
	Kind          string
	CanonPath     string
	OperationKey  string
	Weight        int
	Status        Status
}

// maxTargetsPerDimension/maxTargetsPerOperation bound planning so a
// pathological schema (a huge enum, say) can't blow up the target count;
// truncation is deterministic (by sorted target key) and recorded.
const (
	maxTargetsPerDimension = 500
	maxTargetsPerOperation = 200
)

// Plan is the full set of derived targets plus whether any cap truncated
// the result.
type Plan struct {
	Targets        []Target
	PlannerCapsHit bool
}

// DeriveTargets builds an unreachable Target for every UNSAT hint (branch
// dimension, since an UNSAT branch is itself a coverage fact worth
// tracking), numeric_min/numeric_max boundary targets for every node whose
// NumericSat is true, an object_keys target for every node with a
// non-empty key universe and a oneof_branch target for every node with
// oneOf exclusivity, then applies the per-dimension and per-operation
// caps. Targets below an UNSAT path are not marked unreachable.
func DeriveTargets(m *compose.Model, operationKey string) Plan {
	var raw []Target

	for _, hint := range m.Notes.UnsatHints {
		raw = append(raw, Target{
			Dimension: DimensionBranch, Kind: "unsat", CanonPath: hint.CanonPath,
			OperationKey: operationKey, Weight: 3, Status: StatusUnreachable,
		})
	}

	paths := make([]string, 0, len(m.Nodes))
	for p := range m.Nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		node := m.Nodes[p]
		if node.NumericSat {
			raw = append(raw,
				Target{Dimension: DimensionBoundary, Kind: "numeric_min", CanonPath: p, OperationKey: operationKey, Weight: 1, Status: StatusPending},
				Target{Dimension: DimensionBoundary, Kind: "numeric_max", CanonPath: p, OperationKey: operationKey, Weight: 1, Status: StatusPending},
			)
		}
		if len(node.Universe.Keys) > 0 {
			raw = append(raw, Target{Dimension: DimensionRequired, Kind: "object_keys", CanonPath: p, OperationKey: operationKey, Weight: 2, Status: StatusPending})
		}
		if len(node.OneOfExclusivity) > 0 {
			raw = append(raw, Target{Dimension: DimensionBranch, Kind: "oneof_branch", CanonPath: p, OperationKey: operationKey, Weight: 2, Status: StatusPending})
		}
	}

	plan := Plan{}
	byDim := map[Dimension][]Target{}
	for _, t := range raw {
		byDim[t.Dimension] = append(byDim[t.Dimension], t)
	}

	perOpCount := map[string]int{}
	var dims []string
	for d := range byDim {
		dims = append(dims, string(d))
	}
	sort.Strings(dims)

	for _, d := range dims {
		targets := byDim[Dimension(d)]
		sort.Slice(targets, func(i, j int) bool {
			if targets[i].CanonPath != targets[j].CanonPath {
				return targets[i].CanonPath < targets[j].CanonPath
			}
			return targets[i].Kind < targets[j].Kind
		})
		if len(targets) > maxTargetsPerDimension {
			targets = targets[:maxTargetsPerDimension]
			plan.PlannerCapsHit = true
		}
		for _, t := range targets {
			if perOpCount[t.OperationKey] >= maxTargetsPerOperation {
				plan.PlannerCapsHit = true
				continue
			}
			t.ID = targetID(t)
			plan.Targets = append(plan.Targets, t)
			perOpCount[t.OperationKey]++
		}
	}

	return plan
}

func targetID(t Target) string {
	id, err := structhash.CanonicalTargetID(EngineMajor, ReportMajor, map[string]any{
		"dimension": string(t.Dimension), "kind": t.Kind, "canonPath": t.CanonPath, "operationKey": t.OperationKey,
	})
	if err != nil {
		return ""
	}
	return id
}

// Report summarizes a plan's coverage after a generation run.
type Report struct {
	Overall          float64
	ByDimension      map[Dimension]float64
	ByOperation      map[string]float64
	TargetsByStatus  map[Status]int
	UncoveredTargets []Target
	CoverageStatus   string
}

// minCoverage is the threshold below which CoverageStatus reports
// minCoverageNotMet rather than ok.
const minCoverage = 0.8

// Summarize computes a Report from a Plan whose Status fields have
// already been updated by the caller's generation run. summaryMode caps
// UncoveredTargets at 200 entries and omits the full target list,
// matching the wire-level summary-response shape.
func Summarize(plan Plan, summaryMode bool) Report {
	r := Report{ByDimension: map[Dimension]float64{}, ByOperation: map[string]float64{}, TargetsByStatus: map[Status]int{}}

	total, hit := 0, 0
	dimTotal, dimHit := map[Dimension]int{}, map[Dimension]int{}
	opTotal, opHit := map[string]int{}, map[string]int{}

	activeTotal := 0
	for _, t := range plan.Targets {
		r.TargetsByStatus[t.Status]++
		if t.Status == StatusUnreachable {
			continue
		}
		activeTotal++
		total++
		dimTotal[t.Dimension]++
		opTotal[t.OperationKey]++
		if t.Status == StatusHit {
			hit++
			dimHit[t.Dimension]++
			opHit[t.OperationKey]++
		} else {
			r.UncoveredTargets = append(r.UncoveredTargets, t)
		}
	}

	if activeTotal > 0 {
		r.Overall = float64(hit) / float64(activeTotal)
	} else {
		r.Overall = 1.0
	}
	for d, tot := range dimTotal {
		if tot > 0 {
			r.ByDimension[d] = float64(dimHit[d]) / float64(tot)
		}
	}
	for op, tot := range opTotal {
		if tot > 0 {
			r.ByOperation[op] = float64(opHit[op]) / float64(tot)
		}
	}

	sort.Slice(r.UncoveredTargets, func(i, j int) bool {
		a, b := r.UncoveredTargets[i], r.UncoveredTargets[j]
		if a.Dimension != b.Dimension {
			return a.Dimension < b.Dimension
		}
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.CanonPath != b.CanonPath {
			return a.CanonPath < b.CanonPath
		}
		if a.OperationKey != b.OperationKey {
			return a.OperationKey < b.OperationKey
		}
		return a.ID < b.ID
	})

	if r.Overall+1e-9 < minCoverage {
		r.CoverageStatus = string(diag.CodeCoverageThresholdNotMet)
	} else {
		r.CoverageStatus = "ok"
	}

	if summaryMode {
		if len(r.UncoveredTargets) > 200 {
			r.UncoveredTargets = r.UncoveredTargets[:200]
		}
	}

	return r
}
