// Package sizing derives ladder-leg exit fractions from a caller's
// historical hit-rate profile.
//
// Adapted from the teacher's internal/sizing PositionSizer: its
// fractional-Kelly formula (f* = p - q/b, then scaled by a conservative
// fraction of full Kelly) decided how much of an account to risk on a
// new trade. There is no account to size here — a call is a fixed,
// independent bet — so the formula is repurposed one level down: it
// decides how much of an already-entered position to realize at each
// ladder rung, weighting earlier (more reliably reached) multiples
// higher than stretch targets the same way full-Kelly weights a
// higher-edge bet more heavily. The VaR, volatility-targeting, and
// cross-position correlation sizers the teacher also shipped have no
// analogue here (no portfolio, no concurrent correlated positions) and
// are not carried over.
package sizing

import (
	"github.com/shopspring/decimal"

	"github.com/atlas-desktop/callbacktest/pkg/types"
)

// KellyFraction is the conservative scaling the teacher called
// "fractional Kelly" — using the full Kelly weight tends to oversize
// the earliest, noisiest leg.
const KellyFraction = 0.25

// kelly implements the teacher's calculateKelly: f* = p - q/b, clamped
// to [0, 1]. p is the probability of reaching a given multiple, b is
// the payoff ratio of reaching it versus not.
func kelly(hitRate, payoffRatio float64) float64 {
	if hitRate <= 0 || hitRate >= 1 || payoffRatio <= 0 {
		return 0
	}
	p := hitRate
	q := 1 - p
	f := p - q/payoffRatio
	if f < 0 {
		return 0
	}
	if f > 1 {
		f = 1
	}
	return f
}

// LadderFractions computes a realize-at-each-leg fraction for a ladder
// whose legs target the given multiples, using profile's historical
// peak-multiple percentiles as a stand-in for each leg's hit
// probability: a leg at or below the caller's p75 peak multiple is
// reached most of the time (high hit rate), a leg near or above p95 is
// reached rarely (low hit rate). Fractions are normalized to sum to 1,
// falling back to an even split when the profile carries no sample.
func LadderFractions(profile types.CallerProfile, multiples []float64) []decimal.Decimal {
	if len(multiples) == 0 {
		return nil
	}
	if profile.SampleSize == 0 || profile.P95PeakMultiple <= profile.P75PeakMultiple {
		return evenSplit(len(multiples))
	}

	weights := make([]float64, len(multiples))
	var total float64
	for i, m := range multiples {
		hitRate := hitRateForMultiple(m, profile)
		payoffRatio := m - 1 // return if hit, vs. the unit risked to get there
		w := kelly(hitRate, payoffRatio) * KellyFraction
		if w <= 0 {
			w = 0.01 // every leg keeps a minimal floor so none is starved to zero
		}
		weights[i] = w
		total += w
	}
	if total == 0 {
		return evenSplit(len(multiples))
	}

	out := make([]decimal.Decimal, len(weights))
	for i, w := range weights {
		out[i] = decimal.NewFromFloat(w / total)
	}
	return out
}

// hitRateForMultiple linearly interpolates a pseudo-hit-rate between
// 0.75 (at or below p75) and 0.05 (at or above p95) for a target
// multiple, using the caller's own profile as the reference frame.
func hitRateForMultiple(multiple float64, profile types.CallerProfile) float64 {
	if multiple <= profile.P75PeakMultiple {
		return 0.75
	}
	if multiple >= profile.P95PeakMultiple {
		return 0.05
	}
	span := profile.P95PeakMultiple - profile.P75PeakMultiple
	frac := (multiple - profile.P75PeakMultiple) / span
	return 0.75 - frac*(0.75-0.05)
}

func evenSplit(n int) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	share := decimal.NewFromFloat(1).Div(decimal.NewFromInt(int64(n)))
	for i := range out {
		out[i] = share
	}
	return out
}
