// Package optimizer implements the Policy Optimizer (spec.md C8):
// per-caller partitioning, grid generation, parallel (policy × call)
// evaluation, and overfitting-aware best-policy selection.
//
// The caller "high-multiple profile" classifier is grounded on the
// teacher's internal/regime/detector.go, simplified from its HMM-based
// trend/volatility/mean-reversion state machine to a static percentile
// threshold check — this domain classifies a caller once from historical
// peak multiples rather than tracking a live regime over a price stream,
// so the HMM transition machinery has nothing to attach to here.
package optimizer

import (
	"sort"

	"github.com/atlas-desktop/callbacktest/pkg/types"
)

// Profile computes a caller's high-multiple classification from the
// peak multiples of their train-set calls only, per spec.md §4.6 step 2
// ("to avoid leakage").
func Profile(caller string, trainCalls []types.Call, pathMetrics map[string]types.PathMetrics, cfg types.OptimizerConfig) types.CallerProfile {
	var peaks []float64
	for _, c := range trainCalls {
		if c.Caller != caller {
			continue
		}
		if pm, ok := pathMetrics[c.ID]; ok && pm.PeakMultiple > 0 {
			peaks = append(peaks, pm.PeakMultiple)
		}
	}

	p95 := percentile(peaks, 0.95)
	p75 := percentile(peaks, 0.75)

	p95Threshold := cfg.HighMultiplePercentileThreshold
	if p95Threshold == 0 {
		p95Threshold = 20
	}
	p75Threshold := cfg.HighMultipleMedianThreshold
	if p75Threshold == 0 {
		p75Threshold = 5
	}

	return types.CallerProfile{
		Caller:          caller,
		IsHighMultiple:  p95 >= p95Threshold && p75 >= p75Threshold,
		P95PeakMultiple: p95,
		P75PeakMultiple: p75,
		SampleSize:      len(peaks),
	}
}

func percentile(vals []float64, p float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
