// Package policy provides construction, validation, and canonical
// stringification for the spec's RiskPolicy variants (spec.md C3).
// RiskPolicy values are frozen once constructed here; nothing downstream
// mutates them.
package policy

import (
	"github.com/atlas-desktop/callbacktest/pkg/kernelerr"
	"github.com/atlas-desktop/callbacktest/pkg/types"
)

// NewFixedStop validates and constructs a FixedStop policy.
func NewFixedStop(stopPct float64, takeProfitPct *float64) (types.FixedStop, error) {
	p := types.FixedStop{StopPct: stopPct, TakeProfitPct: takeProfitPct}
	if stopPct <= 0 {
		return types.FixedStop{}, &kernelerr.InvalidPolicyError{PolicyID: ID(p), Reason: "stop_pct must be positive"}
	}
	if takeProfitPct != nil && *takeProfitPct <= 0 {
		return types.FixedStop{}, &kernelerr.InvalidPolicyError{PolicyID: ID(p), Reason: "take_profit_pct must be positive when set"}
	}
	return p, nil
}

// NewTimeStop validates and constructs a TimeStop policy.
func NewTimeStop(maxHoldMs int64, takeProfitPct *float64) (types.TimeStop, error) {
	p := types.TimeStop{MaxHoldMs: maxHoldMs, TakeProfitPct: takeProfitPct}
	if maxHoldMs <= 0 {
		return types.TimeStop{}, &kernelerr.InvalidPolicyError{PolicyID: ID(p), Reason: "max_hold_ms must be positive"}
	}
	if takeProfitPct != nil && *takeProfitPct <= 0 {
		return types.TimeStop{}, &kernelerr.InvalidPolicyError{PolicyID: ID(p), Reason: "take_profit_pct must be positive when set"}
	}
	return p, nil
}

// NewTrailingStop validates and constructs a TrailingStop policy.
func NewTrailingStop(activationPct, trailPct float64, hardStopPct *float64) (types.TrailingStop, error) {
	p := types.TrailingStop{ActivationPct: activationPct, TrailPct: trailPct, HardStopPct: hardStopPct}
	if activationPct < 0 {
		return types.TrailingStop{}, &kernelerr.InvalidPolicyError{PolicyID: ID(p), Reason: "activation_pct must be non-negative"}
	}
	if trailPct <= 0 || trailPct >= 1 {
		return types.TrailingStop{}, &kernelerr.InvalidPolicyError{PolicyID: ID(p), Reason: "trail_pct must be in (0,1)"}
	}
	if hardStopPct != nil && (*hardStopPct <= 0 || *hardStopPct >= 1) {
		return types.TrailingStop{}, &kernelerr.InvalidPolicyError{PolicyID: ID(p), Reason: "hard_stop_pct must be in (0,1) when set"}
	}
	return p, nil
}

// NewLadder validates and constructs a Ladder policy. Levels must have
// strictly increasing multiples and fractions summing to at most 1.
func NewLadder(levels []types.LadderLevel, stopPct *float64) (types.Ladder, error) {
	p := types.Ladder{Levels: append([]types.LadderLevel(nil), levels...), StopPct: stopPct}
	if len(p.Levels) == 0 {
		return types.Ladder{}, &kernelerr.InvalidPolicyError{PolicyID: "ladder_empty", Reason: "ladder must have at least one level"}
	}
	var total float64
	prevMultiple := 0.0
	for i, lvl := range p.Levels {
		if lvl.Multiple <= prevMultiple {
			return types.Ladder{}, &kernelerr.InvalidPolicyError{
				PolicyID: ID(p),
				Reason:   "ladder levels must have strictly increasing multiples",
			}
		}
		if lvl.Fraction <= 0 {
			return types.Ladder{}, &kernelerr.InvalidPolicyError{
				PolicyID: ID(p),
				Reason:   "ladder level fractions must be positive",
			}
		}
		prevMultiple = lvl.Multiple
		total += lvl.Fraction
		_ = i
	}
	if total > 1.0+1e-9 {
		return types.Ladder{}, &kernelerr.InvalidPolicyError{
			PolicyID: ID(p),
			Reason:   "ladder level fractions must sum to at most 1",
		}
	}
	if stopPct != nil && (*stopPct <= 0 || *stopPct >= 1) {
		return types.Ladder{}, &kernelerr.InvalidPolicyError{PolicyID: ID(p), Reason: "stop_pct must be in (0,1) when set"}
	}
	return p, nil
}

// NewCombo validates and constructs a Combo policy. A Combo may not
// contain another Combo.
func NewCombo(inner []types.RiskPolicy) (types.Combo, error) {
	if len(inner) < 2 {
		return types.Combo{}, &kernelerr.InvalidPolicyError{PolicyID: "combo_empty", Reason: "combo requires at least two inner policies"}
	}
	for _, p := range inner {
		if p.Kind() == types.PolicyKindCombo {
			return types.Combo{}, &kernelerr.InvalidPolicyError{PolicyID: "combo", Reason: "combo must not nest another combo"}
		}
	}
	return types.Combo{Policies: append([]types.RiskPolicy(nil), inner...)}, nil
}
