// Package scorer implements the Policy Scorer (spec.md C5): aggregation
// of PolicyResult rows into a single PolicyScore under a constrained
// objective, grounded on the teacher's internal/backtester/viability.go
// (thresholds-and-violations shape) and internal/backtester/metrics.go
// (percentile/statistics helpers).
package scorer

import (
	"math"
	"sort"

	"github.com/atlas-desktop/callbacktest/pkg/types"
)

// Score aggregates results into a PolicyScore. pathMetrics, keyed by
// call ID, supplies the profile-aware terms (peak multiple, 2x timing).
// Results whose call has no PathMetrics entry are left out of those
// terms; only when none of the results has one does the scorer fall back
// to a realized-return proxy (exit/entry price) for the peak multiple,
// rather than failing, since the spec treats insufficient data as a
// non-fatal condition, not an error.
func Score(
	results []types.PolicyResult,
	pathMetrics map[string]types.PathMetrics,
	constraints types.Constraints,
	cfg types.ObjectiveConfig,
) types.PolicyScore {
	if len(results) == 0 {
		return types.PolicyScore{
			Score:      math.Inf(-1),
			Violations: []string{"insufficient_data"},
		}
	}

	metrics := computeMetrics(results, pathMetrics)

	var violations []string
	if metrics.StopOutRate > constraints.MaxStopOutRate {
		violations = append(violations, "stop_out_rate")
	}
	if metrics.P95DrawdownBps < constraints.MaxP95DrawdownBps {
		violations = append(violations, "p95_drawdown_bps")
	}
	if metrics.AvgTimeExposedMs > float64(constraints.MaxTimeExposedMs) {
		violations = append(violations, "avg_time_exposed_ms")
	}

	feasible := len(violations) == 0
	tie := computeTieBreakers(results)

	if !feasible {
		return types.PolicyScore{
			Score:                math.Inf(-1),
			ConstraintsSatisfied: false,
			Violations:           violations,
			TieBreakers:          tie,
			Metrics:              metrics,
		}
	}

	breakdown := computeObjective(metrics, cfg)
	score := breakdown.Base + breakdown.TimingBoost + breakdown.Consistency + breakdown.TailBonus - breakdown.DDPenalty

	return types.PolicyScore{
		Score:                score,
		ConstraintsSatisfied: true,
		TieBreakers:          tie,
		Metrics:              metrics,
		ObjectiveBreakdown:   &breakdown,
	}
}

func computeMetrics(results []types.PolicyResult, pathMetrics map[string]types.PathMetrics) types.ScoreMetrics {
	n := len(results)
	var stopOuts int
	mae := make([]float64, n)
	exposed := make([]float64, n)
	for i, r := range results {
		if r.StopOut {
			stopOuts++
		}
		mae[i] = r.MaxAdverseExcursionBps
		exposed[i] = float64(r.TimeExposedMs)
	}

	var peaks, t2xMinutes, ddTo2x []float64
	var hit2xCount int
	lookedUp := 0
	for _, r := range results {
		pm, ok := pathMetrics[r.CallID]
		if !ok {
			continue
		}
		lookedUp++
		if pm.PeakMultiple > 0 {
			peaks = append(peaks, pm.PeakMultiple)
		}
		if pm.Hit2x {
			hit2xCount++
			if pm.T2xMs != nil {
				t2xMinutes = append(t2xMinutes, float64(*pm.T2xMs-pm.T0Ms)/60000)
			}
		}
		if pm.DDTo2xBps != nil {
			ddTo2x = append(ddTo2x, *pm.DDTo2xBps)
		}
	}
	if lookedUp == 0 {
		// No path-metrics supplied: fall back to a realized-return proxy
		// for "peak multiple" so base/tail terms degrade gracefully
		// instead of going to zero.
		for _, r := range results {
			multiple := r.ExitPx / r.EntryPx
			if multiple > 0 {
				peaks = append(peaks, multiple)
			}
		}
	}

	p95DrawdownBps := percentile(mae, 0.05) // worst-5% tail of a negative distribution

	// dd_pre2x (the objective's actual drawdown input) is only defined for
	// calls that reached 2x; when none did (or no path metrics were
	// supplied), fall back to the whole-trade p95 drawdown so the penalty
	// still degrades gracefully instead of going to zero.
	ddTo2xP95 := p95DrawdownBps
	if len(ddTo2x) > 0 {
		ddTo2xP95 = percentile(ddTo2x, 0.05)
	}

	return types.ScoreMetrics{
		SampleSize:         n,
		StopOutRate:        float64(stopOuts) / float64(n),
		P95DrawdownBps:     p95DrawdownBps,
		P95DDTo2xBps:       ddTo2xP95,
		AvgTimeExposedMs:   mean(exposed),
		MedianPeakMultiple: median(peaks),
		Hit2xRate:          safeRate(hit2xCount, lookedUp),
		MedianT2xMinutes:   median(t2xMinutes),
		P95PeakMultiple:    percentile(peaks, 0.95),
		P75PeakMultiple:    percentile(peaks, 0.75),
	}
}

func safeRate(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}

func computeObjective(m types.ScoreMetrics, cfg types.ObjectiveConfig) types.ObjectiveBreakdown {
	var base float64
	if m.MedianPeakMultiple > 0 {
		base = math.Log(m.MedianPeakMultiple)
	}

	ddFraction := -m.P95DDTo2xBps / 10000
	var ddPenalty float64
	switch {
	case ddFraction <= 0.30:
		ddPenalty = 0
	case ddFraction <= 0.60:
		ddPenalty = math.Exp(cfg.K*(ddFraction-0.30)) - 1
	default:
		ddPenalty = (math.Exp(cfg.K*(ddFraction-0.30)) - 1) * (1 + cfg.BrutalMult*(ddFraction-0.60))
	}

	var timingBoost float64
	if m.MedianT2xMinutes > 0 {
		timingBoost = math.Log(1 + cfg.TargetMinutes/m.MedianT2xMinutes)
		if timingBoost > 0.5 {
			timingBoost = 0.5
		}
	}

	consistency := math.Max(0, m.Hit2xRate-0.50) * 0.30

	var tailBonus float64
	if m.P75PeakMultiple > 0 {
		tailBonus = math.Max(0, m.P95PeakMultiple/m.P75PeakMultiple-1) * 0.10
	}

	return types.ObjectiveBreakdown{
		Base:        base,
		DDPenalty:   ddPenalty,
		TimingBoost: timingBoost,
		Consistency: consistency,
		TailBonus:   tailBonus,
	}
}

func computeTieBreakers(results []types.PolicyResult) types.TieBreakers {
	var tailCaptures, returns, drawdowns []float64
	for _, r := range results {
		if r.TailCapture != nil {
			tailCaptures = append(tailCaptures, *r.TailCapture)
		}
		returns = append(returns, r.RealizedReturnBps)
		drawdowns = append(drawdowns, math.Abs(r.MaxAdverseExcursionBps))
	}
	return types.TieBreakers{
		AvgTailCapture:    mean(tailCaptures),
		MedianReturnProxy: median(returns),
		MedianDrawdownBps: median(drawdowns),
	}
}

// Better reports whether a ranks ahead of b under the comparison
// contract: feasible beats infeasible; among infeasible, fewer
// violations beats more; then score; then tie-breakers (higher tail
// capture, then higher median return proxy, then smaller drawdown
// magnitude).
func Better(a, b types.PolicyScore) bool {
	if a.ConstraintsSatisfied != b.ConstraintsSatisfied {
		return a.ConstraintsSatisfied
	}
	if !a.ConstraintsSatisfied {
		if len(a.Violations) != len(b.Violations) {
			return len(a.Violations) < len(b.Violations)
		}
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.TieBreakers.AvgTailCapture != b.TieBreakers.AvgTailCapture {
		return a.TieBreakers.AvgTailCapture > b.TieBreakers.AvgTailCapture
	}
	if a.TieBreakers.MedianReturnProxy != b.TieBreakers.MedianReturnProxy {
		return a.TieBreakers.MedianReturnProxy > b.TieBreakers.MedianReturnProxy
	}
	return a.TieBreakers.MedianDrawdownBps < b.TieBreakers.MedianDrawdownBps
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func median(vals []float64) float64 {
	return percentile(vals, 0.5)
}

// percentile uses linear-interpolation nearest-rank over a sorted copy
// of vals; p is in [0,1]. Returns 0 for an empty slice.
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
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
