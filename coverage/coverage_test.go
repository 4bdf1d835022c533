package coverage

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundrydata/foundrydata-sub008/compose"
	"github.com/foundrydata/foundrydata-sub008/schema"
)

func buildModel(t *testing.T, doc string) *compose.Model {
	t.Helper()
	s, err := schema.Parse([]byte(doc))
	require.NoError(t, err)
	m, err := compose.Compose(s, 42, compose.PolicyLax)
	require.NoError(t, err)
	return m
}

func TestDeriveTargetsProducesBoundaryTargetsForNumericNode(t *testing.T) {
	m := buildModel(t, `{"type":"number","minimum":0,"maximum":10}`)
	plan := DeriveTargets(m, "op1")
	var sawMin, sawMax bool
	for _, tgt := range plan.Targets {
		if tgt.Kind == "numeric_min" {
			sawMin = true
		}
		if tgt.Kind == "numeric_max" {
			sawMax = true
		}
		assert.NotEmpty(t, tgt.ID)
	}
	assert.True(t, sawMin)
	assert.True(t, sawMax)
}

func TestDeriveTargetsMarksUnsatHintsUnreachable(t *testing.T) {
	m := buildModel(t, `{"type":"integer","minimum":5,"maximum":1}`)
	plan := DeriveTargets(m, "op1")
	require.NotEmpty(t, plan.Targets)
	for _, tgt := range plan.Targets {
		if tgt.Kind == "unsat" {
			assert.Equal(t, StatusUnreachable, tgt.Status)
		}
	}
}

func TestDeriveTargetsIsDeterministic(t *testing.T) {
	m1 := buildModel(t, `{"type":"object","properties":{"a":{"type":"string"},"b":{"type":"number"}},"required":["a"]}`)
	m2 := buildModel(t, `{"type":"object","properties":{"a":{"type":"string"},"b":{"type":"number"}},"required":["a"]}`)
	p1 := DeriveTargets(m1, "op1")
	p2 := DeriveTargets(m2, "op1")
	require.Equal(t, len(p1.Targets), len(p2.Targets))
	for i := range p1.Targets {
		assert.Equal(t, p1.Targets[i].ID, p2.Targets[i].ID)
	}
}

func TestDeriveTargetsCapsPerOperation(t *testing.T) {
	var parts []string
	for i := 0; i < 10; i++ {
		parts = append(parts, fmt.Sprintf(`"k%d":{"type":"number","minimum":0,"maximum":%d}`, i, i+1))
	}
	doc := `{"type":"object","properties":{` + strings.Join(parts, ",") + `}}`
	m := buildModel(t, doc)
	plan := DeriveTargets(m, "single-op")
	for _, tgt := range plan.Targets {
		assert.Equal(t, "single-op", tgt.OperationKey)
	}
	assert.LessOrEqual(t, len(plan.Targets), maxTargetsPerOperation)
}

func TestSummarizeComputesOverallAndByDimension(t *testing.T) {
	plan := Plan{Targets: []Target{
		{ID: "t1", Dimension: DimensionBoundary, Status: StatusHit, OperationKey: "op1"},
		{ID: "t2", Dimension: DimensionBoundary, Status: StatusPending, OperationKey: "op1"},
		{ID: "t3", Dimension: DimensionBranch, Status: StatusUnreachable, OperationKey: "op1"},
	}}
	r := Summarize(plan, false)
	assert.InDelta(t, 0.5, r.Overall, 1e-9)
	assert.InDelta(t, 0.5, r.ByDimension[DimensionBoundary], 1e-9)
	assert.Equal(t, 1, r.TargetsByStatus[StatusHit])
	assert.Equal(t, 1, r.TargetsByStatus[StatusUnreachable])
	require.Len(t, r.UncoveredTargets, 1)
	assert.Equal(t, "t2", r.UncoveredTargets[0].ID)
}

func TestSummarizeReportsThresholdNotMetBelowMinCoverage(t *testing.T) {
	plan := Plan{Targets: []Target{
		{ID: "t1", Dimension: DimensionBoundary, Status: StatusPending, OperationKey: "op1"},
		{ID: "t2", Dimension: DimensionBoundary, Status: StatusPending, OperationKey: "op1"},
	}}
	r := Summarize(plan, false)
	assert.Equal(t, "COVERAGE_THRESHOLD_NOT_MET", r.CoverageStatus)
}

func TestSummarizeSummaryModeCapsUncoveredTargets(t *testing.T) {
	var targets []Target
	for i := 0; i < 250; i++ {
		targets = append(targets, Target{ID: "t", Dimension: DimensionBoundary, Status: StatusPending, OperationKey: "op1"})
	}
	r := Summarize(Plan{Targets: targets}, true)
	assert.LessOrEqual(t, len(r.UncoveredTargets), 200)
}

func TestSummarizeAllHitReportsOk(t *testing.T) {
	plan := Plan{Targets: []Target{
		{ID: "t1", Dimension: DimensionBoundary, Status: StatusHit, OperationKey: "op1"},
	}}
	r := Summarize(plan, false)
	assert.Equal(t, "ok", r.CoverageStatus)
	assert.Empty(t, r.UncoveredTargets)
}
