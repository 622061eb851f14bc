package policy_test

import (
	"testing"

	"github.com/atlas-desktop/callbacktest/internal/policy"
	"github.com/atlas-desktop/callbacktest/pkg/types"
)

func f(v float64) *float64 { return &v }

func TestNewFixedStopRejectsNonPositiveStop(t *testing.T) {
	if _, err := policy.NewFixedStop(0, nil); err == nil {
		t.Fatal("expected an error for a zero stop_pct")
	}
	if _, err := policy.NewFixedStop(-0.1, nil); err == nil {
		t.Fatal("expected an error for a negative stop_pct")
	}
}

func TestNewFixedStopRejectsNonPositiveTakeProfit(t *testing.T) {
	if _, err := policy.NewFixedStop(0.2, f(0)); err == nil {
		t.Fatal("expected an error for a zero take_profit_pct")
	}
}

func TestNewFixedStopAccepted(t *testing.T) {
	p, err := policy.NewFixedStop(0.25, f(1.0))
	if err != nil {
		t.Fatalf("NewFixedStop: %v", err)
	}
	if p.StopPct != 0.25 || p.TakeProfitPct == nil || *p.TakeProfitPct != 1.0 {
		t.Fatalf("unexpected fixed stop: %+v", p)
	}
}

func TestNewTimeStopRejectsNonPositiveHold(t *testing.T) {
	if _, err := policy.NewTimeStop(0, nil); err == nil {
		t.Fatal("expected an error for a zero max_hold_ms")
	}
}

func TestNewTrailingStopValidatesRanges(t *testing.T) {
	if _, err := policy.NewTrailingStop(-0.1, 0.2, nil); err == nil {
		t.Fatal("expected an error for a negative activation_pct")
	}
	if _, err := policy.NewTrailingStop(0.3, 0, nil); err == nil {
		t.Fatal("expected an error for a zero trail_pct")
	}
	if _, err := policy.NewTrailingStop(0.3, 1.0, nil); err == nil {
		t.Fatal("expected an error for a trail_pct of 1")
	}
	if _, err := policy.NewTrailingStop(0.3, 0.2, f(1.5)); err == nil {
		t.Fatal("expected an error for a hard_stop_pct outside (0,1)")
	}
	if _, err := policy.NewTrailingStop(0.3, 0.2, f(0.25)); err != nil {
		t.Fatalf("expected a valid trailing stop to construct, got %v", err)
	}
}

func TestNewLadderRejectsEmptyLevels(t *testing.T) {
	if _, err := policy.NewLadder(nil, nil); err == nil {
		t.Fatal("expected an error for an empty ladder")
	}
}

func TestNewLadderRejectsNonIncreasingMultiples(t *testing.T) {
	levels := []types.LadderLevel{{Multiple: 2.0, Fraction: 0.5}, {Multiple: 2.0, Fraction: 0.5}}
	if _, err := policy.NewLadder(levels, nil); err == nil {
		t.Fatal("expected an error for non-increasing multiples")
	}
}

func TestNewLadderRejectsNonPositiveFraction(t *testing.T) {
	levels := []types.LadderLevel{{Multiple: 2.0, Fraction: 0}, {Multiple: 3.0, Fraction: 0.5}}
	if _, err := policy.NewLadder(levels, nil); err == nil {
		t.Fatal("expected an error for a non-positive fraction")
	}
}

func TestNewLadderRejectsFractionsOverOne(t *testing.T) {
	levels := []types.LadderLevel{{Multiple: 2.0, Fraction: 0.7}, {Multiple: 3.0, Fraction: 0.5}}
	if _, err := policy.NewLadder(levels, nil); err == nil {
		t.Fatal("expected an error when fractions sum above 1")
	}
}

func TestNewLadderRejectsBadStopPct(t *testing.T) {
	levels := []types.LadderLevel{{Multiple: 2.0, Fraction: 0.5}}
	if _, err := policy.NewLadder(levels, f(1.2)); err == nil {
		t.Fatal("expected an error for a stop_pct outside (0,1)")
	}
}

func TestNewLadderAccepted(t *testing.T) {
	levels := []types.LadderLevel{{Multiple: 2.0, Fraction: 0.5}, {Multiple: 3.0, Fraction: 0.3}}
	p, err := policy.NewLadder(levels, f(0.2))
	if err != nil {
		t.Fatalf("NewLadder: %v", err)
	}
	if len(p.Levels) != 2 {
		t.Fatalf("expected 2 levels, got %d", len(p.Levels))
	}
}

func TestNewComboRequiresAtLeastTwoPolicies(t *testing.T) {
	fs, _ := policy.NewFixedStop(0.2, nil)
	if _, err := policy.NewCombo([]types.RiskPolicy{fs}); err == nil {
		t.Fatal("expected an error for a combo with fewer than two policies")
	}
}

func TestNewComboRejectsNestedCombo(t *testing.T) {
	fs, _ := policy.NewFixedStop(0.2, nil)
	ts, _ := policy.NewTimeStop(60000, nil)
	inner, err := policy.NewCombo([]types.RiskPolicy{fs, ts})
	if err != nil {
		t.Fatalf("NewCombo: %v", err)
	}
	if _, err := policy.NewCombo([]types.RiskPolicy{inner, fs}); err == nil {
		t.Fatal("expected an error for a combo nesting another combo")
	}
}

func TestIDIsCanonicalAndStable(t *testing.T) {
	fs, _ := policy.NewFixedStop(0.25, f(1.0))
	id1 := policy.ID(fs)
	id2 := policy.ID(fs)
	if id1 != id2 {
		t.Fatalf("expected stable ID, got %q then %q", id1, id2)
	}
	if id1 != "fixed_stop_0.25_1" {
		t.Fatalf("unexpected canonical id: %q", id1)
	}
}

func TestIDUsesNoneSentinelForAbsentOptionals(t *testing.T) {
	ts, _ := policy.NewTimeStop(1800000, nil)
	id := policy.ID(ts)
	if id != "time_stop_1800000_none" {
		t.Fatalf("unexpected id for time stop with no take profit: %q", id)
	}
}

func TestIDForComboJoinsInnerIDs(t *testing.T) {
	fs, _ := policy.NewFixedStop(0.2, nil)
	ts, _ := policy.NewTimeStop(60000, nil)
	combo, err := policy.NewCombo([]types.RiskPolicy{fs, ts})
	if err != nil {
		t.Fatalf("NewCombo: %v", err)
	}
	id := policy.ID(combo)
	want := "combo_" + policy.ID(fs) + "+" + policy.ID(ts)
	if id != want {
		t.Fatalf("expected %q, got %q", want, id)
	}
}
