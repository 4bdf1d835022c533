// Package pipeline sequences Normalize, Compose, Generate, Repair and
// Coverage into one deterministic run per (schema, seed, count) triple.
// Grounded on the teacher's own Validate entry point as the shape for a
// single top-level call that owns error short-circuiting, generalized
// here from one validation call into a five-stage pipeline.
package pipeline

import (
	"context"
	"fmt"

	"github.com/foundrydata/foundrydata-sub008/compose"
	"github.com/foundrydata/foundrydata-sub008/coverage"
	"github.com/foundrydata/foundrydata-sub008/coverageindex"
	"github.com/foundrydata/foundrydata-sub008/diag"
	"github.com/foundrydata/foundrydata-sub008/generate"
	"github.com/foundrydata/foundrydata-sub008/internal/fdlog"
	"github.com/foundrydata/foundrydata-sub008/normalize"
	"github.com/foundrydata/foundrydata-sub008/oracle"
	"github.com/foundrydata/foundrydata-sub008/repair"
)

var log = fdlog.New("pipeline")

// StageStatus is a stage's outcome in one run.
type StageStatus string

const (
	StageCompleted StageStatus = "completed"
	StageSkipped   StageStatus = "skipped"
	StageFailed    StageStatus = "failed"
)

// StageResult records one stage's outcome for the run report.
type StageResult struct {
	Name   string      `json:"name"`
	Status StageStatus `json:"status"`
}

// Item is one generated-and-repaired instance plus its final repair score
// and whether validation against it was skipped (lax external $ref).
type Item struct {
	Value             any  `json:"value"`
	FinalScore        int  `json:"finalScore"`
	SkippedValidation bool `json:"skippedValidation"`
}

// Options configures a Run.
type Options struct {
	Seed               int64
	Count              int
	ExternalRefPolicy  compose.ExternalRefPolicy
	SummaryCoverage    bool
}

// Report is the full result of one pipeline run.
type Report struct {
	Stages   []StageResult    `json:"stages"`
	Items    []Item           `json:"items"`
	Coverage coverage.Report  `json:"coverage"`
	Notes    diag.Envelope    `json:"notes"`
}

// Run executes Normalize -> Compose -> Generate -> Repair -> Coverage
// against raw for opts.Count items. A fatal Compose diagnostic
// short-circuits Generate, Repair and Validate to skipped. An unresolved
// external $ref under the lax policy does not fail the stage; it marks
// every affected item's SkippedValidation true and continues.
func Run(ctx context.Context, raw []byte, opts Options) (*Report, error) {
	report := &Report{}
	log.Infof("run start seed=%d count=%d", opts.Seed, opts.Count)

	normResult, err := normalize.Normalize(raw)
	if err != nil {
		log.Errorf("normalize failed: %v", err)
		report.Stages = append(report.Stages, StageResult{Name: "normalize", Status: StageFailed})
		return report, fmt.Errorf("pipeline: normalize: %w", err)
	}
	report.Stages = append(report.Stages, StageResult{Name: "normalize", Status: StageCompleted})
	report.Notes.Merge(normResult.Notes)

	model, err := compose.Compose(normResult.Canonical, opts.Seed, opts.ExternalRefPolicy)
	if err != nil {
		log.Errorf("compose failed: %v", err)
		report.Stages = append(report.Stages, StageResult{Name: "compose", Status: StageFailed})
		return report, fmt.Errorf("pipeline: compose: %w", err)
	}
	report.Notes.Merge(model.Notes)

	if len(model.Notes.Fatal) > 0 {
		log.Warnf("compose produced %d fatal diagnostics, skipping generate/repair/validate", len(model.Notes.Fatal))
		report.Stages = append(report.Stages,
			StageResult{Name: "compose", Status: StageFailed},
			StageResult{Name: "generate", Status: StageSkipped},
			StageResult{Name: "repair", Status: StageSkipped},
			StageResult{Name: "validate", Status: StageSkipped},
		)
		return report, nil
	}
	report.Stages = append(report.Stages, StageResult{Name: "compose", Status: StageCompleted})

	skippedValidation := false
	for _, n := range model.Nodes {
		if n.ExternalRef != "" {
			skippedValidation = true
			break
		}
	}

	gen := generate.New(model, opts.Seed, &report.Notes)
	o := oracle.NewInProcess()
	universe := buildUniverse(model)

	select {
	case <-ctx.Done():
		report.Stages = append(report.Stages,
			StageResult{Name: "generate", Status: StageSkipped},
			StageResult{Name: "repair", Status: StageSkipped},
			StageResult{Name: "validate", Status: StageSkipped},
		)
		return report, ctx.Err()
	default:
	}

	var events []generate.CoverageEvent
	for i := 0; i < opts.Count; i++ {
		gen.SetItemIndex(i)
		value := gen.Generate(normResult.Canonical, "")
		events = append(events, gen.Events()...)
		out := repair.RepairWithUniverse(normResult.Canonical, value, o, universe)
		report.Notes.Merge(out.Notes)
		report.Items = append(report.Items, Item{
			Value:             out.Value,
			FinalScore:        out.FinalScore,
			SkippedValidation: skippedValidation,
		})
	}
	report.Stages = append(report.Stages,
		StageResult{Name: "generate", Status: StageCompleted},
		StageResult{Name: "repair", Status: StageCompleted},
	)
	if skippedValidation {
		report.Stages = append(report.Stages, StageResult{Name: "validate", Status: StageSkipped})
	} else {
		report.Stages = append(report.Stages, StageResult{Name: "validate", Status: StageCompleted})
	}

	plan := coverage.DeriveTargets(model, "default")
	markHits(&plan, events)
	report.Coverage = coverage.Summarize(plan, opts.SummaryCoverage)
	report.Stages = append(report.Stages, StageResult{Name: "coverage", Status: StageCompleted})
	log.Infof("run complete items=%d coverage=%.2f status=%s", len(report.Items), report.Coverage.Overall, report.Coverage.CoverageStatus)

	return report, nil
}

// buildUniverse flattens Compose's per-node models into the canonPath ->
// admissible-key-universe index repair's propertyNames rename action
// consults to stay inside a must-cover object's closed key set.
func buildUniverse(model *compose.Model) map[string]coverageindex.CoverageEntry {
	universe := make(map[string]coverageindex.CoverageEntry, len(model.Nodes))
	for path, nm := range model.Nodes {
		if len(nm.Universe.Keys) > 0 {
			universe[path] = nm.Universe
		}
	}
	return universe
}

// markHits flips a target's status to Hit when the generator actually
// recorded a CoverageEvent at that target's (CanonPath, Kind) — a real
// decision trace instead of inferring a "hit" by re-validating the
// finished instance against every target's subschema after the fact.
// Unsat-derived targets are left untouched; they start and stay
// Unreachable regardless of what the generator produced.
func markHits(plan *coverage.Plan, events []generate.CoverageEvent) {
	hit := map[string]bool{}
	for _, e := range events {
		hit[e.CanonPath+"|"+e.Kind] = true
	}
	for i := range plan.Targets {
		t := &plan.Targets[i]
		if t.Status == coverage.StatusUnreachable {
			continue
		}
		if hit[t.CanonPath+"|"+t.Kind] {
			t.Status = coverage.StatusHit
		}
	}
}
