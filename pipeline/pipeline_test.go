package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundrydata/foundrydata-sub008/compose"
)

func TestRunProducesDeterministicItems(t *testing.T) {
	raw := []byte(`{"type":"object","properties":{"name":{"type":"string","minLength":3},"age":{"type":"integer","minimum":0,"maximum":120}},"required":["name","age"]}`)

	r1, err := Run(context.Background(), raw, Options{Seed: 7, Count: 3, ExternalRefPolicy: compose.PolicyLax})
	require.NoError(t, err)
	r2, err := Run(context.Background(), raw, Options{Seed: 7, Count: 3, ExternalRefPolicy: compose.PolicyLax})
	require.NoError(t, err)

	require.Len(t, r1.Items, 3)
	require.Len(t, r2.Items, 3)
	for i := range r1.Items {
		assert.Equal(t, r1.Items[i].Value, r2.Items[i].Value)
	}
}

func TestRunAllItemsFullyRepaired(t *testing.T) {
	raw := []byte(`{"type":"number","minimum":5,"maximum":10}`)
	r, err := Run(context.Background(), raw, Options{Seed: 1, Count: 5, ExternalRefPolicy: compose.PolicyLax})
	require.NoError(t, err)
	for _, item := range r.Items {
		assert.Equal(t, 0, item.FinalScore)
	}
}

func TestRunSkipsDownstreamStagesOnFatalCompose(t *testing.T) {
	raw := []byte(`{"type":"integer","minimum":10,"maximum":1}`)
	r, err := Run(context.Background(), raw, Options{Seed: 1, Count: 2, ExternalRefPolicy: compose.PolicyLax})
	require.NoError(t, err)
	statusByName := map[string]StageStatus{}
	for _, s := range r.Stages {
		statusByName[s.Name] = s.Status
	}
	assert.Equal(t, StageFailed, statusByName["compose"])
	assert.Equal(t, StageSkipped, statusByName["generate"])
	assert.Equal(t, StageSkipped, statusByName["repair"])
	assert.Equal(t, StageSkipped, statusByName["validate"])
	assert.Empty(t, r.Items)
}

func TestRunMarksExternalRefLaxAsSkippedValidation(t *testing.T) {
	raw := []byte(`{"type":"object","properties":{"nested":{"$ref":"https://example.com/external.json"}}}`)
	r, err := Run(context.Background(), raw, Options{Seed: 3, Count: 1, ExternalRefPolicy: compose.PolicyLax})
	require.NoError(t, err)
	require.NotEmpty(t, r.Items)
	assert.True(t, r.Items[0].SkippedValidation)
}

func TestRunStrictExternalRefFailsComposeStage(t *testing.T) {
	raw := []byte(`{"type":"object","properties":{"nested":{"$ref":"https://example.com/external.json"}}}`)
	r, err := Run(context.Background(), raw, Options{Seed: 3, Count: 1, ExternalRefPolicy: compose.PolicyStrict})
	require.NoError(t, err)
	statusByName := map[string]StageStatus{}
	for _, s := range r.Stages {
		statusByName[s.Name] = s.Status
	}
	assert.Equal(t, StageFailed, statusByName["compose"])
	assert.Empty(t, r.Items)
}

func TestRunMarksNumericBoundaryTargetsHitFromRealGenerationEvents(t *testing.T) {
	raw := []byte(`{"type":"integer","minimum":5,"maximum":10}`)
	r, err := Run(context.Background(), raw, Options{Seed: 2, Count: 2, ExternalRefPolicy: compose.PolicyLax})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Coverage.TargetsByStatus["hit"])
	assert.Empty(t, r.Coverage.UncoveredTargets)
}

func TestRunProducesCoverageReport(t *testing.T) {
	raw := []byte(`{"type":"object","properties":{"a":{"type":"number","minimum":0,"maximum":1}},"required":["a"]}`)
	r, err := Run(context.Background(), raw, Options{Seed: 9, Count: 10, ExternalRefPolicy: compose.PolicyLax})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, r.Coverage.Overall, 0.0)
	assert.LessOrEqual(t, r.Coverage.Overall, 1.0)
}
