package executor_test

import (
	"testing"

	"github.com/atlas-desktop/callbacktest/internal/executor"
	"github.com/atlas-desktop/callbacktest/internal/policy"
	"github.com/atlas-desktop/callbacktest/pkg/types"
)

func candle(tsS int64, o, h, l, c float64) types.Candle {
	return types.Candle{TimestampS: tsS, Open: o, High: h, Low: l, Close: c, Volume: 1}
}

func noFees() types.Fees {
	return types.Fees{}
}

func TestFixedStopTriggersOnLow(t *testing.T) {
	candles := []types.Candle{
		candle(0, 1.0, 1.1, 0.95, 1.05),
		candle(60, 1.05, 1.08, 0.79, 0.9),
		candle(120, 0.9, 1.5, 0.85, 1.4),
	}
	pol, err := policy.NewFixedStop(0.2, nil)
	if err != nil {
		t.Fatalf("NewFixedStop: %v", err)
	}
	res, err := executor.Execute("call1", candles, 0, pol, noFees())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.ExitReason != types.ExitStopLoss {
		t.Fatalf("expected stop_loss, got %s", res.ExitReason)
	}
	if !res.StopOut {
		t.Fatal("expected StopOut true")
	}
	wantStop := 1.0 * 0.8
	if res.ExitPx != wantStop {
		t.Fatalf("expected exit price %v, got %v", wantStop, res.ExitPx)
	}
	if res.ExitTsMs != candles[1].TimestampMs() {
		t.Fatalf("expected exit on bar 2, got ts %d", res.ExitTsMs)
	}
}

func TestFixedStopTakeProfit(t *testing.T) {
	tp := 0.5
	candles := []types.Candle{
		candle(0, 1.0, 1.0, 1.0, 1.0),
		candle(60, 1.0, 1.6, 1.0, 1.2),
	}
	pol, err := policy.NewFixedStop(0.2, &tp)
	if err != nil {
		t.Fatalf("NewFixedStop: %v", err)
	}
	res, err := executor.Execute("call2", candles, 0, pol, noFees())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.ExitReason != types.ExitTakeProfit {
		t.Fatalf("expected take_profit, got %s", res.ExitReason)
	}
	if res.ExitPx != 1.5 {
		t.Fatalf("expected exit price 1.5, got %v", res.ExitPx)
	}
}

func TestTrailingStopActivatesAndRatchets(t *testing.T) {
	hard := 0.25
	candles := []types.Candle{
		candle(0, 1.0, 1.0, 1.0, 1.0),
		candle(60, 1.0, 1.6, 1.55, 1.6),
		candle(120, 1.6, 1.6, 1.4, 1.5),
		candle(180, 1.5, 2.0, 1.9, 2.0),
		candle(240, 2.0, 2.0, 1.55, 1.6),
	}
	pol, err := policy.NewTrailingStop(0.5, 0.2, &hard)
	if err != nil {
		t.Fatalf("NewTrailingStop: %v", err)
	}
	res, err := executor.Execute("call3", candles, 0, pol, noFees())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.ExitReason != types.ExitTrailingStop {
		t.Fatalf("expected trailing_stop, got %s", res.ExitReason)
	}
	if !closeEnough(res.ExitPx, 1.6) {
		t.Fatalf("expected exit price 1.6, got %v", res.ExitPx)
	}
}

func TestLadderRealizesLegsAndFinishesDone(t *testing.T) {
	levels := []types.LadderLevel{
		{Multiple: 2.0, Fraction: 0.5},
		{Multiple: 3.0, Fraction: 0.5},
	}
	pol, err := policy.NewLadder(levels, nil)
	if err != nil {
		t.Fatalf("NewLadder: %v", err)
	}
	candles := []types.Candle{
		candle(0, 1.0, 1.0, 1.0, 1.0),
		candle(60, 1.0, 2.5, 1.0, 2.0),
		candle(120, 2.0, 3.5, 2.0, 3.0),
	}
	res, err := executor.Execute("call4", candles, 0, pol, noFees())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.ExitReason != types.ExitLadderDone {
		t.Fatalf("expected ladder_done, got %s", res.ExitReason)
	}
	wantExit := (2.0*0.5 + 3.0*0.5)
	if !closeEnough(res.ExitPx, wantExit) {
		t.Fatalf("expected weighted exit %v, got %v", wantExit, res.ExitPx)
	}
}

func TestComboRacesToFirstLadderLeg(t *testing.T) {
	stop, err := policy.NewFixedStop(0.9, nil)
	if err != nil {
		t.Fatalf("NewFixedStop: %v", err)
	}
	ladder, err := policy.NewLadder([]types.LadderLevel{
		{Multiple: 2.0, Fraction: 0.5},
		{Multiple: 3.0, Fraction: 0.5},
	}, nil)
	if err != nil {
		t.Fatalf("NewLadder: %v", err)
	}
	combo, err := policy.NewCombo([]types.RiskPolicy{stop, ladder})
	if err != nil {
		t.Fatalf("NewCombo: %v", err)
	}
	candles := []types.Candle{
		candle(0, 1.0, 1.0, 1.0, 1.0),
		candle(60, 1.0, 1.3, 1.0, 1.2),
		candle(120, 1.2, 2.1, 1.2, 2.0),
	}
	res, err := executor.Execute("call5", candles, 0, combo, noFees())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.ExitReason != "combo_1:ladder_1" {
		t.Fatalf("expected combo_1:ladder_1, got %s", res.ExitReason)
	}
	if res.ExitPx != 2.0 {
		t.Fatalf("expected exit price 2.0, got %v", res.ExitPx)
	}
}

func TestNoEntryWhenAnchorMissing(t *testing.T) {
	candles := []types.Candle{candle(0, 1.0, 1.0, 1.0, 1.0)}
	pol, _ := policy.NewFixedStop(0.2, nil)
	res, err := executor.Execute("call6", candles, 1000, pol, noFees())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.ExitReason != types.ExitNoEntry {
		t.Fatalf("expected no_entry, got %s", res.ExitReason)
	}
}

func TestMalformedCandleErrors(t *testing.T) {
	candles := []types.Candle{candle(0, 1.0, 1.0, 1.0, 1.0)}
	candles[0].High = nan()
	pol, _ := policy.NewFixedStop(0.2, nil)
	_, err := executor.Execute("call7", candles, 0, pol, noFees())
	if err == nil {
		t.Fatal("expected malformed candle error")
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func closeEnough(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
