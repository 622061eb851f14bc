package optimizer

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/atlas-desktop/callbacktest/internal/montecarlo"
	"github.com/atlas-desktop/callbacktest/internal/policy"
	"github.com/atlas-desktop/callbacktest/internal/scorer"
	"github.com/atlas-desktop/callbacktest/internal/telemetry"
	"github.com/atlas-desktop/callbacktest/internal/validation"
	"github.com/atlas-desktop/callbacktest/pkg/idgen"
	"github.com/atlas-desktop/callbacktest/pkg/types"
)

// bootstrapSeed reuses the validation split's own seeded-LCG default so a
// run with no explicit validation config still reports a reproducible
// confidence band.
const bootstrapSeed = 42

// bootstrapIterations is modest: this is an ambient diagnostic on top of
// an already-computed result set, not a latency-sensitive hot path.
const bootstrapIterations = 2000

// CandleSource resolves the candle series and anchor timestamp for a
// call. Implementations own the underlying data; the optimizer only
// borrows it for the duration of one Run.
type CandleSource interface {
	Candles(call types.Call) []types.Candle
	AnchorMs(call types.Call) int64
}

// Run executes the full C8 flow for a single caller's calls (spec.md
// §4.6 steps 2-8). calls must already be filtered to one caller or
// caller group by the caller of Run; Run itself does no per-caller
// partitioning (see RunPerCaller for that).
//
// metrics is optional (pass nil to skip instrumentation); when present,
// every policy evaluation and the run itself are recorded against it.
func Run(logger *zap.Logger, caller string, calls []types.Call, src CandleSource, cfg types.OptimizerConfig, workerCount int, metrics *telemetry.Metrics) (types.OptimizationResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	split, err := splitCalls(calls, cfg)
	if err != nil {
		return types.OptimizationResult{}, err
	}

	profile := Profile(caller, split.Train, cfg.PathMetrics, cfg)
	grid := GenerateGrid(profile, cfg.PolicyTypesEnabled)

	candlesByCall := make(map[string][]types.Candle, len(calls))
	t0ByCall := make(map[string]int64, len(calls))
	for _, c := range calls {
		candlesByCall[c.ID] = src.Candles(c)
		t0ByCall[c.ID] = src.AnchorMs(c)
	}

	pool := newEvalPool(logger, workerCount)
	defer pool.Stop()

	ranked := make([]types.EvaluatedPolicy, 0, len(grid))
	resultsByID := make(map[string][]types.PolicyResult, len(grid))
	feasibleCount := 0

	for _, pol := range grid {
		id := policy.ID(pol)
		start := time.Now()

		trainResults := evaluatePolicy(logger, pool, split.Train, candlesByCall, t0ByCall, pol, cfg.Fees, metrics)
		trainScore := scorer.Score(trainResults, cfg.PathMetrics, cfg.Constraints, cfg.Objective)
		resultsByID[id] = trainResults

		entry := types.EvaluatedPolicy{
			PolicyID:   id,
			Policy:     pol,
			TrainScore: trainScore,
		}

		if len(split.Validation) > 0 {
			valResults := evaluatePolicy(logger, pool, split.Validation, candlesByCall, t0ByCall, pol, cfg.Fees, metrics)
			valScore := scorer.Score(valResults, cfg.PathMetrics, cfg.Constraints, cfg.Objective)
			entry.ValidationScore = &valScore
			resultsByID[id] = append(resultsByID[id], valResults...)

			of := validation.DetectOverfitting(trainScore.Score, valScore.Score, cfg.Overfitting)
			entry.Overfitting = &of
		}

		if metrics != nil {
			metrics.ObservePolicyEvaluated(time.Now().Sub(start))
		}

		if effectiveScore(entry).ConstraintsSatisfied {
			feasibleCount++
		}
		ranked = append(ranked, entry)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return scorer.Better(effectiveScore(ranked[i]), effectiveScore(ranked[j]))
	})

	result := types.OptimizationResult{
		RunID:             idgen.NewRunID(),
		Ranked:            ranked,
		PoliciesEvaluated: len(ranked),
		FeasiblePolicies:  feasibleCount,
		Split:             split,
		Profile:           profile,
	}
	result.BestPolicy = selectBest(ranked)

	if result.BestPolicy != nil {
		seed := int64(bootstrapSeed)
		if cfg.ValidationSplit != nil && cfg.ValidationSplit.RandomSeed != nil {
			seed = *cfg.ValidationSplit.RandomSeed
		}
		summary := montecarlo.Confidence(resultsByID[result.BestPolicy.PolicyID], bootstrapIterations, seed)
		result.BestPolicyConfidence = &types.BootstrapSummary{
			Iterations:   summary.Iterations,
			MedianReturn: summary.MedianReturn,
			P5Return:     summary.P5Return,
			P95Return:    summary.P95Return,
			Seed:         summary.Seed,
		}
	}

	if metrics != nil {
		metrics.IncOptimizerRun()
	}

	return result, nil
}

// RunPerCaller partitions calls by caller and runs the optimizer
// independently for each one, per spec.md §4.6's "per-caller entry
// point".
func RunPerCaller(logger *zap.Logger, calls []types.Call, src CandleSource, cfg types.OptimizerConfig, workerCount int, metrics *telemetry.Metrics) (map[string]types.OptimizationResult, error) {
	grouped := make(map[string][]types.Call)
	for _, c := range calls {
		if !callerAllowed(c.Caller, cfg.CallerGroupsFilter) {
			continue
		}
		grouped[c.Caller] = append(grouped[c.Caller], c)
	}

	out := make(map[string]types.OptimizationResult, len(grouped))
	for caller, callerCalls := range grouped {
		res, err := Run(logger, caller, callerCalls, src, cfg, workerCount, metrics)
		if err != nil {
			return nil, err
		}
		out[caller] = res
	}
	return out, nil
}

func callerAllowed(caller string, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == caller {
			return true
		}
	}
	return false
}

func splitCalls(calls []types.Call, cfg types.OptimizerConfig) (*types.SplitResult, error) {
	if cfg.ValidationSplit == nil {
		return &types.SplitResult{Train: calls}, nil
	}
	split, err := validation.Split(calls, *cfg.ValidationSplit)
	if err != nil {
		return nil, err
	}
	return &split, nil
}

// effectiveScore returns the validation score when present, else the
// train score, per spec.md §9's resolution of the comparePolicyScores /
// evaluatedPolicies.sort ambiguity: "selection uses validation-if-
// available; comparison semantics apply inside each tier."
func effectiveScore(e types.EvaluatedPolicy) types.PolicyScore {
	if e.ValidationScore != nil {
		return *e.ValidationScore
	}
	return e.TrainScore
}

func selectBest(ranked []types.EvaluatedPolicy) *types.EvaluatedPolicy {
	var best *types.EvaluatedPolicy
	for i := range ranked {
		e := &ranked[i]
		if !effectiveScore(*e).ConstraintsSatisfied {
			continue
		}
		if e.Overfitting != nil && e.Overfitting.Detected {
			continue
		}
		if best == nil || scorer.Better(effectiveScore(*e), effectiveScore(*best)) {
			best = e
		}
	}
	if best != nil {
		return best
	}
	// Fall back to the highest-scoring feasible policy even if flagged
	// for overfitting.
	for i := range ranked {
		e := &ranked[i]
		if !effectiveScore(*e).ConstraintsSatisfied {
			continue
		}
		if best == nil || scorer.Better(effectiveScore(*e), effectiveScore(*best)) {
			best = e
		}
	}
	return best
}
