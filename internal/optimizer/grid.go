package optimizer

import (
	"github.com/atlas-desktop/callbacktest/internal/policy"
	"github.com/atlas-desktop/callbacktest/internal/sizing"
	"github.com/atlas-desktop/callbacktest/pkg/types"
)

func ptr(v float64) *float64 { return &v }

// GenerateGrid builds the candidate policy set for one caller, per
// spec.md §4.6 step 3: fixed/time/trailing/ladder are always included;
// combo policies (ladder-to-protect + trailing-to-ride) are added only
// for callers that are not classified high-multiple, since high-multiple
// callers are better served letting a pure trailing stop ride the full
// tail rather than capping gains with an early ladder leg.
func GenerateGrid(profile types.CallerProfile, enabled map[types.PolicyKind]bool) []types.RiskPolicy {
	var grid []types.RiskPolicy

	if kindEnabled(enabled, types.PolicyKindFixedStop) {
		grid = append(grid, fixedStopGrid()...)
	}
	if kindEnabled(enabled, types.PolicyKindTimeStop) {
		grid = append(grid, timeStopGrid()...)
	}
	if kindEnabled(enabled, types.PolicyKindTrailingStop) {
		grid = append(grid, trailingStopGrid()...)
	}
	if kindEnabled(enabled, types.PolicyKindLadder) {
		grid = append(grid, ladderGrid(profile)...)
	}
	if kindEnabled(enabled, types.PolicyKindCombo) && !profile.IsHighMultiple {
		grid = append(grid, comboGrid(profile)...)
	}

	return grid
}

func kindEnabled(enabled map[types.PolicyKind]bool, kind types.PolicyKind) bool {
	if len(enabled) == 0 {
		return true
	}
	return enabled[kind]
}

func fixedStopGrid() []types.RiskPolicy {
	var out []types.RiskPolicy
	stops := []float64{0.15, 0.25, 0.35}
	targets := []*float64{nil, ptr(1.0), ptr(2.0)}
	for _, s := range stops {
		for _, tp := range targets {
			if p, err := policy.NewFixedStop(s, tp); err == nil {
				out = append(out, p)
			}
		}
	}
	return out
}

func timeStopGrid() []types.RiskPolicy {
	var out []types.RiskPolicy
	holds := []int64{30 * 60 * 1000, 60 * 60 * 1000, 4 * 60 * 60 * 1000}
	targets := []*float64{nil, ptr(1.0)}
	for _, h := range holds {
		for _, tp := range targets {
			if p, err := policy.NewTimeStop(h, tp); err == nil {
				out = append(out, p)
			}
		}
	}
	return out
}

func trailingStopGrid() []types.RiskPolicy {
	var out []types.RiskPolicy
	activations := []float64{0.3, 0.5}
	trails := []float64{0.15, 0.25}
	hardStops := []*float64{nil, ptr(0.25)}
	for _, a := range activations {
		for _, tr := range trails {
			for _, h := range hardStops {
				if p, err := policy.NewTrailingStop(a, tr, h); err == nil {
					out = append(out, p)
				}
			}
		}
	}
	return out
}

// ladderMultipleSets are the candidate rung targets; fraction allocation
// across each set's rungs is computed per-caller by sizing.LadderFractions
// rather than hardcoded, so a caller with a tight peak-multiple spread
// realizes more evenly than one with a long tail.
var ladderMultipleSets = [][]float64{
	{2.0, 3.0},
	{2.0, 4.0},
	{2.0, 3.0, 5.0},
}

func ladderShapes(profile types.CallerProfile) [][]types.LadderLevel {
	shapes := make([][]types.LadderLevel, 0, len(ladderMultipleSets))
	for _, multiples := range ladderMultipleSets {
		fractions := sizing.LadderFractions(profile, multiples)
		levels := make([]types.LadderLevel, len(multiples))
		for i, m := range multiples {
			f, _ := fractions[i].Float64()
			levels[i] = types.LadderLevel{Multiple: m, Fraction: f}
		}
		shapes = append(shapes, levels)
	}
	return shapes
}

func ladderGrid(profile types.CallerProfile) []types.RiskPolicy {
	var out []types.RiskPolicy
	stopPcts := []*float64{nil, ptr(0.2), ptr(0.3)}
	for _, shape := range ladderShapes(profile) {
		for _, sp := range stopPcts {
			if p, err := policy.NewLadder(shape, sp); err == nil {
				out = append(out, p)
			}
		}
	}
	return out
}

func comboGrid(profile types.CallerProfile) []types.RiskPolicy {
	var out []types.RiskPolicy
	for _, shape := range ladderShapes(profile) {
		ladder, err := policy.NewLadder(shape, ptr(0.2))
		if err != nil {
			continue
		}
		trail, err := policy.NewTrailingStop(1.0, 0.15, ptr(0.2))
		if err != nil {
			continue
		}
		if combo, err := policy.NewCombo([]types.RiskPolicy{ladder, trail}); err == nil {
			out = append(out, combo)
		}
	}
	return out
}
