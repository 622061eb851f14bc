// Package montecarlo provides an optional, ambient diagnostic for the
// optimizer's chosen best policy: a bootstrap confidence interval over
// its realized returns. None of the pure C1-C7 packages call it;
// internal/optimizer.Run calls it once per run, over the best policy's
// already-computed results, to answer "how stable is this return across
// resamples of the calls I had".
//
// Grounded on the teacher's internal/backtester/montecarlo.go bootstrap
// shape, reworked in two ways: resampling is with replacement (a
// bootstrap over independent call outcomes, not a path-equity shuffle,
// since this domain has no compounding trading account to walk), and
// the resampler uses the same seeded linear-congruential generator as
// the validation split rather than math/rand, so a given seed reports
// the identical interval on every run.
package montecarlo

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/atlas-desktop/callbacktest/pkg/types"
)

const lcgModulus = 233280

type lcg struct{ state int64 }

func (g *lcg) next() float64 {
	g.state = (g.state*9301 + 49297) % lcgModulus
	return float64(g.state) / lcgModulus
}

// Summary reports a bootstrap confidence band over realized_return_bps.
type Summary struct {
	Iterations   int
	MedianReturn decimal.Decimal
	P5Return     decimal.Decimal
	P95Return    decimal.Decimal
	Seed         int64
}

// Confidence resamples results.RealizedReturnBps with replacement
// iterations times, summing each resample's mean return into a
// distribution, and reports its median and 5th/95th percentiles.
func Confidence(results []types.PolicyResult, iterations int, seed int64) Summary {
	if iterations <= 0 {
		iterations = 1000
	}
	if len(results) == 0 {
		return Summary{Iterations: iterations, Seed: seed}
	}

	returns := make([]float64, len(results))
	for i, r := range results {
		returns[i] = r.RealizedReturnBps
	}

	gen := &lcg{state: seed}
	samples := make([]float64, iterations)
	for i := 0; i < iterations; i++ {
		var sum float64
		for j := 0; j < len(returns); j++ {
			idx := int(gen.next() * float64(len(returns)))
			if idx >= len(returns) {
				idx = len(returns) - 1
			}
			sum += returns[idx]
		}
		samples[i] = sum / float64(len(returns))
	}
	sort.Float64s(samples)

	return Summary{
		Iterations:   iterations,
		Seed:         seed,
		MedianReturn: decimal.NewFromFloat(percentile(samples, 0.50)),
		P5Return:     decimal.NewFromFloat(percentile(samples, 0.05)),
		P95Return:    decimal.NewFromFloat(percentile(samples, 0.95)),
	}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
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
