package scorer_test

import (
	"math"
	"testing"

	"github.com/atlas-desktop/callbacktest/internal/scorer"
	"github.com/atlas-desktop/callbacktest/pkg/types"
)

func TestScoreEmptyResultsIsInsufficientData(t *testing.T) {
	s := scorer.Score(nil, nil, types.DefaultConstraints(), types.DefaultObjectiveConfig())
	if !math.IsInf(s.Score, -1) {
		t.Fatalf("expected -Inf score, got %v", s.Score)
	}
	if len(s.Violations) != 1 || s.Violations[0] != "insufficient_data" {
		t.Fatalf("expected insufficient_data violation, got %v", s.Violations)
	}
}

func TestScoreInfeasibleOnStopOutRate(t *testing.T) {
	results := make([]types.PolicyResult, 10)
	for i := range results {
		results[i] = types.PolicyResult{
			CallID:                 "c",
			StopOut:                i < 5, // 50% stop-out rate, above the 30% default cap
			MaxAdverseExcursionBps: -100,
			TimeExposedMs:          1000,
			EntryPx:                1,
			ExitPx:                 1.1,
		}
	}
	s := scorer.Score(results, nil, types.DefaultConstraints(), types.DefaultObjectiveConfig())
	if s.ConstraintsSatisfied {
		t.Fatal("expected constraints unsatisfied")
	}
	if !math.IsInf(s.Score, -1) {
		t.Fatalf("expected -Inf score for infeasible policy, got %v", s.Score)
	}
	found := false
	for _, v := range s.Violations {
		if v == "stop_out_rate" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected stop_out_rate violation, got %v", s.Violations)
	}
}

func TestScoreFeasibleComputesObjective(t *testing.T) {
	pathMetrics := map[string]types.PathMetrics{
		"c1": {CallID: "c1", PeakMultiple: 2.5, Hit2x: true, T0Ms: 0, T2xMs: ptrMs(600000)},
		"c2": {CallID: "c2", PeakMultiple: 3.0, Hit2x: true, T0Ms: 0, T2xMs: ptrMs(900000)},
	}
	results := []types.PolicyResult{
		{CallID: "c1", MaxAdverseExcursionBps: -500, TimeExposedMs: 60000, EntryPx: 1, ExitPx: 1.2},
		{CallID: "c2", MaxAdverseExcursionBps: -300, TimeExposedMs: 60000, EntryPx: 1, ExitPx: 1.3},
	}
	s := scorer.Score(results, pathMetrics, types.DefaultConstraints(), types.DefaultObjectiveConfig())
	if !s.ConstraintsSatisfied {
		t.Fatalf("expected feasible score, violations=%v", s.Violations)
	}
	if s.ObjectiveBreakdown == nil {
		t.Fatal("expected objective breakdown on feasible score")
	}
	if s.Score <= 0 {
		t.Fatalf("expected positive score for strong peak multiples, got %v", s.Score)
	}
}

func TestBetterPrefersFeasibleThenScoreThenTieBreakers(t *testing.T) {
	feasible := types.PolicyScore{ConstraintsSatisfied: true, Score: 0.1}
	infeasible := types.PolicyScore{ConstraintsSatisfied: false, Violations: []string{"x"}, Score: math.Inf(-1)}
	if !scorer.Better(feasible, infeasible) {
		t.Fatal("feasible should beat infeasible")
	}

	higher := types.PolicyScore{ConstraintsSatisfied: true, Score: 0.5}
	lower := types.PolicyScore{ConstraintsSatisfied: true, Score: 0.2}
	if !scorer.Better(higher, lower) {
		t.Fatal("higher score should win")
	}

	tieA := types.PolicyScore{ConstraintsSatisfied: true, Score: 0.3, TieBreakers: types.TieBreakers{AvgTailCapture: 0.8}}
	tieB := types.PolicyScore{ConstraintsSatisfied: true, Score: 0.3, TieBreakers: types.TieBreakers{AvgTailCapture: 0.4}}
	if !scorer.Better(tieA, tieB) {
		t.Fatal("higher tail capture should break the tie")
	}
}

func TestScoreDDPenaltyUsesPreSecondXDrawdownWhenAvailable(t *testing.T) {
	constraints := types.Constraints{MaxStopOutRate: 1.0, MaxP95DrawdownBps: -9000, MaxTimeExposedMs: 1000000}
	cfg := types.DefaultObjectiveConfig()
	results := []types.PolicyResult{
		{CallID: "c1", MaxAdverseExcursionBps: -5000, TimeExposedMs: 60000, EntryPx: 1, ExitPx: 1.2},
		{CallID: "c2", MaxAdverseExcursionBps: -5000, TimeExposedMs: 60000, EntryPx: 1, ExitPx: 1.3},
	}

	withoutPathMetrics := scorer.Score(results, nil, constraints, cfg)
	if withoutPathMetrics.ObjectiveBreakdown == nil {
		t.Fatal("expected an objective breakdown")
	}
	if withoutPathMetrics.ObjectiveBreakdown.DDPenalty <= 0 {
		t.Fatalf("expected a positive penalty from the whole-trade drawdown fallback, got %v", withoutPathMetrics.ObjectiveBreakdown.DDPenalty)
	}

	smallDD := -1000.0
	withPathMetrics := scorer.Score(results, map[string]types.PathMetrics{
		"c1": {CallID: "c1", PeakMultiple: 2.0, Hit2x: true, DDTo2xBps: &smallDD},
		"c2": {CallID: "c2", PeakMultiple: 2.0, Hit2x: true, DDTo2xBps: &smallDD},
	}, constraints, cfg)
	if withPathMetrics.ObjectiveBreakdown == nil {
		t.Fatal("expected an objective breakdown")
	}
	if withPathMetrics.ObjectiveBreakdown.DDPenalty != 0 {
		t.Fatalf("expected no penalty when pre-2x drawdown is shallow, got %v", withPathMetrics.ObjectiveBreakdown.DDPenalty)
	}
}

func ptrMs(v int64) *int64 { return &v }
