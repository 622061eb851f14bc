// Package pathmetrics computes the Path-Metrics Computer (spec.md C2):
// the immutable "truth" row for a single call. Every exported function
// here is a pure function of its inputs — no clocks, no I/O, no RNG —
// grounded on the teacher's internal/data/quality.go single-pass scan
// style and internal/backtester/metrics.go's aggregation helpers.
package pathmetrics

import (
	"math"

	"github.com/atlas-desktop/callbacktest/pkg/kernelerr"
	"github.com/atlas-desktop/callbacktest/pkg/types"
)

// FindAnchorIndex returns the index of the first candle with
// timestamp >= t0Ms, or -1 if no such candle exists.
func FindAnchorIndex(candles []types.Candle, t0Ms int64) int {
	for i, c := range candles {
		if c.TimestampMs() >= t0Ms {
			return i
		}
	}
	return -1
}

// Compute produces the PathMetrics truth row for one call's candle
// series. candles must be chronologically sorted by the caller; this
// function does not sort or mutate its input.
func Compute(callID string, candles []types.Candle, t0Ms int64, opts types.PathMetricsOptions) (types.PathMetrics, error) {
	pm := types.PathMetrics{
		CallID: callID,
		T0Ms:   t0Ms,
		P0:     math.NaN(),
	}

	anchorIdx := FindAnchorIndex(candles, t0Ms)
	if anchorIdx < 0 {
		return pm, nil
	}

	p0 := candles[anchorIdx].Close
	if math.IsNaN(p0) || math.IsInf(p0, 0) {
		return types.PathMetrics{}, &kernelerr.InvalidInputError{
			Field:  "p0",
			Reason: "anchor candle close price is non-finite",
		}
	}
	if p0 <= 0 {
		// Anchor located but price is non-positive: fields stay null per
		// spec.md §4.1, this is not an error.
		pm.P0 = p0
		return pm, nil
	}
	pm.P0 = p0

	horizon := candles[anchorIdx:]

	var minLow = horizon[0].Low
	var maxHigh = horizon[0].High
	var t2xIdx, t3xIdx, t4xIdx = -1, -1, -1
	var activityIdx = -1

	activationUp := p0 * (1 + opts.ActivationPct)
	activationDown := p0 * (1 - opts.ActivationPct)

	for i, c := range horizon {
		if c.Low < minLow {
			minLow = c.Low
		}
		if c.High > maxHigh {
			maxHigh = c.High
		}
		if t2xIdx < 0 && c.High >= p0*2 {
			t2xIdx = i
		}
		if t3xIdx < 0 && c.High >= p0*3 {
			t3xIdx = i
		}
		if t4xIdx < 0 && c.High >= p0*4 {
			t4xIdx = i
		}
		if activityIdx < 0 && (c.High >= activationUp || c.Low <= activationDown) {
			activityIdx = i
		}
	}

	pm.PeakMultiple = maxHigh / p0

	ddBps := (minLow/p0 - 1) * 10000
	if ddBps > 0 {
		ddBps = 0
	}
	pm.DDBps = ddBps

	if t2xIdx >= 0 {
		pm.Hit2x = true
		tMs := horizon[t2xIdx].TimestampMs()
		pm.T2xMs = &tMs

		end := t2xIdx
		if opts.DDTo2xInclusive {
			end = t2xIdx
		} else {
			end = t2xIdx - 1
		}
		if end >= 0 {
			window := horizon[:end+1]
			wMinLow := window[0].Low
			for _, c := range window {
				if c.Low < wMinLow {
					wMinLow = c.Low
				}
			}
			dd := (wMinLow/p0 - 1) * 10000
			if dd > 0 {
				dd = 0
			}
			pm.DDTo2xBps = &dd
		} else {
			zero := 0.0
			pm.DDTo2xBps = &zero
		}
	}

	if t3xIdx >= 0 {
		pm.Hit3x = true
		tMs := horizon[t3xIdx].TimestampMs()
		pm.T3xMs = &tMs
	}
	if t4xIdx >= 0 {
		pm.Hit4x = true
		tMs := horizon[t4xIdx].TimestampMs()
		pm.T4xMs = &tMs
	}
	if activityIdx >= 0 {
		latency := horizon[activityIdx].TimestampMs() - t0Ms
		pm.AlertToActivityMs = &latency
	}

	return pm, nil
}
