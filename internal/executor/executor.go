// Package executor implements the Policy Execution Engine (spec.md C4):
// a deterministic, single-pass candle walk that turns one (call, policy)
// pair into a PolicyResult. Every exported function here is pure — no
// clocks, no RNG, no I/O — and the intra-candle evaluation order is
// fixed: STOP first, then TARGETS via high, then TIME-EXIT.
//
// The priority banding is grounded on the teacher's
// internal/backtester/events.EventQueue (timestamp-then-priority ordered
// insert), reused here to rank same-candle candidate exits rather than
// to order cross-candle events.
package executor

import (
	"math"

	"github.com/atlas-desktop/callbacktest/internal/pathmetrics"
	"github.com/atlas-desktop/callbacktest/pkg/kernelerr"
	"github.com/atlas-desktop/callbacktest/pkg/types"
)

// Intra-candle priority bands. Lower fires first.
const (
	priorityStop   = 0
	priorityTarget = 1
	priorityTime   = 2
)

// leg is one fill of a (possibly multi-leg) exit.
type leg struct {
	price float64
	size  float64
}

func weightedExit(legs []leg) float64 {
	var num, den float64
	for _, l := range legs {
		num += l.price * l.size
		den += l.size
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func validateCandles(callID string, candles []types.Candle) error {
	for i, c := range candles {
		if i > 0 && c.TimestampS <= candles[i-1].TimestampS {
			return &kernelerr.MalformedCandleError{CallID: callID, Index: i, Reason: "timestamps not strictly increasing"}
		}
		if nonFinite(c.Open) || nonFinite(c.High) || nonFinite(c.Low) || nonFinite(c.Close) || nonFinite(c.Volume) {
			return &kernelerr.MalformedCandleError{CallID: callID, Index: i, Reason: "non-finite OHLCV value"}
		}
	}
	return nil
}

func nonFinite(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// Execute runs the configured policy against candles starting from t0Ms
// and returns the resulting PolicyResult. candles must already be
// chronologically sorted; Execute does not sort or mutate them.
func Execute(callID string, candles []types.Candle, t0Ms int64, pol types.RiskPolicy, fees types.Fees) (types.PolicyResult, error) {
	if err := validateCandles(callID, candles); err != nil {
		return types.PolicyResult{}, err
	}

	entryIdx := pathmetrics.FindAnchorIndex(candles, t0Ms)
	if entryIdx < 0 {
		return types.PolicyResult{CallID: callID, ExitReason: types.ExitNoEntry}, nil
	}

	switch v := pol.(type) {
	case types.FixedStop:
		return executeFixedStop(callID, candles, entryIdx, v, fees), nil
	case types.TimeStop:
		return executeTimeStop(callID, candles, entryIdx, v, fees), nil
	case types.TrailingStop:
		return executeTrailingStop(callID, candles, entryIdx, v, fees), nil
	case types.Ladder:
		return executeLadder(callID, candles, entryIdx, v, fees), nil
	case types.Combo:
		return executeCombo(callID, candles, entryIdx, v, fees), nil
	default:
		return types.PolicyResult{}, &kernelerr.InvalidPolicyError{PolicyID: "unknown", Reason: "unrecognized policy kind"}
	}
}

// finish assembles the final PolicyResult from the entry/exit legs and
// the post-entry candle range for tail-capture. RealizedReturnBps is left
// at zero; applyFees fills it in.
func finish(
	callID string,
	candles []types.Candle,
	entryIdx int,
	entryPx float64,
	exitIdx int,
	legs []leg,
	reason types.ExitReason,
	stopOut bool,
) types.PolicyResult {
	entryTsMs := candles[entryIdx].TimestampMs()
	exitTsMs := candles[exitIdx].TimestampMs()
	exitPx := weightedExit(legs)

	minLow := candles[entryIdx].Low
	maxHigh := candles[entryIdx].High
	for i := entryIdx; i <= exitIdx; i++ {
		if candles[i].Low < minLow {
			minLow = candles[i].Low
		}
	}
	for i := entryIdx; i < len(candles); i++ {
		if candles[i].High > maxHigh {
			maxHigh = candles[i].High
		}
	}

	maeBps := (minLow/entryPx - 1) * 10000
	if maeBps > 0 {
		maeBps = 0
	}

	var tailCapture *float64
	peakMultiple := maxHigh / entryPx
	if peakMultiple > 0 {
		realizedMultiple := exitPx / entryPx
		capture := realizedMultiple / peakMultiple
		if capture < 0 {
			capture = 0
		}
		if capture > 1 {
			capture = 1
		}
		tailCapture = &capture
	}

	return types.PolicyResult{
		CallID:                 callID,
		RealizedReturnBps:      0, // set by caller once fees are known
		StopOut:                stopOut,
		MaxAdverseExcursionBps: maeBps,
		TimeExposedMs:          exitTsMs - entryTsMs,
		TailCapture:            tailCapture,
		EntryTsMs:              entryTsMs,
		EntryPx:                entryPx,
		ExitTsMs:               exitTsMs,
		ExitPx:                 exitPx,
		ExitReason:             reason,
	}
}

// applyFees sets RealizedReturnBps per spec.md §4.2's fee formula and
// returns the mutated result (callers pass a value, not a pointer, so
// this is just ergonomic chaining).
func applyFees(r types.PolicyResult, fees types.Fees) types.PolicyResult {
	buy := fees.BuyMultiplier()
	sell := fees.SellMultiplier()
	entryCost := r.EntryPx * buy
	exitProceeds := r.ExitPx * sell
	r.RealizedReturnBps = (exitProceeds - entryCost) / entryCost * 10000
	return r
}

// ---- FixedStop ----

func executeFixedStop(callID string, candles []types.Candle, entryIdx int, p types.FixedStop, fees types.Fees) types.PolicyResult {
	entryPx := candles[entryIdx].Open
	stopPx := entryPx * (1 - p.StopPct)
	var tpPx float64
	hasTP := p.TakeProfitPct != nil
	if hasTP {
		tpPx = entryPx * (1 + *p.TakeProfitPct)
	}

	for i := entryIdx; i < len(candles); i++ {
		c := candles[i]
		if c.Low <= stopPx {
			r := finish(callID, candles, entryIdx, entryPx, i, []leg{{stopPx, 1}}, types.ExitStopLoss, true)
			return applyFees(r, fees)
		}
		if hasTP && c.High >= tpPx {
			r := finish(callID, candles, entryIdx, entryPx, i, []leg{{tpPx, 1}}, types.ExitTakeProfit, false)
			return applyFees(r, fees)
		}
	}
	last := len(candles) - 1
	r := finish(callID, candles, entryIdx, entryPx, last, []leg{{candles[last].Close, 1}}, types.ExitEndOfData, false)
	return applyFees(r, fees)
}

// ---- TimeStop ----

func executeTimeStop(callID string, candles []types.Candle, entryIdx int, p types.TimeStop, fees types.Fees) types.PolicyResult {
	entryPx := candles[entryIdx].Open
	entryTsMs := candles[entryIdx].TimestampMs()
	deadline := entryTsMs + p.MaxHoldMs

	var tpPx float64
	hasTP := p.TakeProfitPct != nil
	if hasTP {
		tpPx = entryPx * (1 + *p.TakeProfitPct)
	}

	for i := entryIdx; i < len(candles); i++ {
		c := candles[i]
		if hasTP && c.High >= tpPx {
			r := finish(callID, candles, entryIdx, entryPx, i, []leg{{tpPx, 1}}, types.ExitTakeProfit, false)
			return applyFees(r, fees)
		}
		if c.TimestampMs() >= deadline {
			r := finish(callID, candles, entryIdx, entryPx, i, []leg{{c.Open, 1}}, types.ExitTimeStop, false)
			return applyFees(r, fees)
		}
	}
	last := len(candles) - 1
	r := finish(callID, candles, entryIdx, entryPx, last, []leg{{candles[last].Close, 1}}, types.ExitEndOfData, false)
	return applyFees(r, fees)
}

// ---- TrailingStop ----

type trailingState struct {
	entryPx     float64
	activated   bool
	watermark   float64
	stop        float64
	activation  float64
	trail       float64
	hardStopPx  float64
	hasHardStop bool
}

func newTrailingState(entryPx float64, p types.TrailingStop) *trailingState {
	s := &trailingState{
		entryPx:    entryPx,
		activation: p.ActivationPct,
		trail:      p.TrailPct,
	}
	if p.HardStopPct != nil {
		s.hasHardStop = true
		s.hardStopPx = entryPx * (1 - *p.HardStopPct)
	}
	return s
}

// step updates the trailing state for one candle and reports whether the
// stop was breached on this candle (checked against the updated stop,
// matching "Open is detected terminally on the same candle" semantics).
func (s *trailingState) step(c types.Candle) (fired bool, exitPx float64) {
	if !s.activated {
		profit := c.High/s.entryPx - 1
		if profit >= s.activation {
			s.activated = true
			s.watermark = c.High
			s.stop = s.watermark * (1 - s.trail)
		}
	} else if c.High > s.watermark {
		s.watermark = c.High
		candidate := s.watermark * (1 - s.trail)
		if candidate > s.stop {
			s.stop = candidate
		}
	}

	if !s.activated {
		return false, 0
	}

	// Break-even: stop is the max of all candidate floors, never lowered.
	effective := s.stop
	if s.entryPx > effective {
		effective = s.entryPx
	}
	if s.hasHardStop && s.hardStopPx > effective {
		effective = s.hardStopPx
	}
	s.stop = effective

	if c.Low <= effective {
		return true, effective
	}
	return false, 0
}

func executeTrailingStop(callID string, candles []types.Candle, entryIdx int, p types.TrailingStop, fees types.Fees) types.PolicyResult {
	entryPx := candles[entryIdx].Open
	st := newTrailingState(entryPx, p)

	for i := entryIdx; i < len(candles); i++ {
		if fired, px := st.step(candles[i]); fired {
			r := finish(callID, candles, entryIdx, entryPx, i, []leg{{px, 1}}, types.ExitTrailingStop, true)
			return applyFees(r, fees)
		}
	}
	last := len(candles) - 1
	r := finish(callID, candles, entryIdx, entryPx, last, []leg{{candles[last].Close, 1}}, types.ExitEndOfData, false)
	return applyFees(r, fees)
}

// ---- Ladder ----

type ladderState struct {
	entryPx  float64
	levels   []types.LadderLevel
	nextIdx  int
	sizeLeft float64
	hasStop  bool
	stopPx   float64
	legs     []leg
}

func newLadderState(entryPx float64, p types.Ladder) *ladderState {
	s := &ladderState{entryPx: entryPx, levels: p.Levels, sizeLeft: 1.0}
	if p.StopPct != nil {
		s.hasStop = true
		s.stopPx = entryPx * (1 - *p.StopPct)
	}
	return s
}

// stepLeg advances the ladder by at most one triggering event on this
// candle (stop, or the next level), used when the ladder runs inside a
// Combo and must race other policies leg-by-leg. It returns the leg
// index (0-based) when a level fired, or -1 when the stop fired.
func (s *ladderState) stepLeg(c types.Candle) (fired bool, px float64, legIdx int, isStop bool) {
	if s.hasStop && s.sizeLeft > 0 && c.Low <= s.stopPx {
		return true, s.stopPx, -1, true
	}
	if s.nextIdx < len(s.levels) {
		lvl := s.levels[s.nextIdx]
		target := s.entryPx * lvl.Multiple
		if c.High >= target {
			idx := s.nextIdx
			s.nextIdx++
			fraction := lvl.Fraction
			if fraction > s.sizeLeft {
				fraction = s.sizeLeft
			}
			s.sizeLeft -= fraction
			return true, target, idx, false
		}
	}
	return false, 0, 0, false
}

// stepFull advances the ladder fully on this candle: a full standalone
// run realizes every level reachable on the candle (a single high can
// span several multiples) before moving to the next candle.
func (s *ladderState) stepFull(c types.Candle) (stoppedOut bool, done bool) {
	if s.hasStop && s.sizeLeft > 0 && c.Low <= s.stopPx {
		s.legs = append(s.legs, leg{s.stopPx, s.sizeLeft})
		s.sizeLeft = 0
		return true, true
	}
	for s.nextIdx < len(s.levels) && s.sizeLeft > 0 {
		lvl := s.levels[s.nextIdx]
		target := s.entryPx * lvl.Multiple
		if c.High < target {
			break
		}
		fraction := lvl.Fraction
		if fraction > s.sizeLeft {
			fraction = s.sizeLeft
		}
		s.legs = append(s.legs, leg{target, fraction})
		s.sizeLeft -= fraction
		s.nextIdx++
	}
	return false, s.sizeLeft <= 1e-12
}

func executeLadder(callID string, candles []types.Candle, entryIdx int, p types.Ladder, fees types.Fees) types.PolicyResult {
	entryPx := candles[entryIdx].Open
	st := newLadderState(entryPx, p)

	for i := entryIdx; i < len(candles); i++ {
		stoppedOut, done := st.stepFull(candles[i])
		if stoppedOut {
			r := finish(callID, candles, entryIdx, entryPx, i, st.legs, types.ExitStopLoss, true)
			return applyFees(r, fees)
		}
		if done {
			r := finish(callID, candles, entryIdx, entryPx, i, st.legs, types.ExitLadderDone, false)
			return applyFees(r, fees)
		}
	}
	last := len(candles) - 1
	if st.sizeLeft > 0 {
		st.legs = append(st.legs, leg{candles[last].Close, st.sizeLeft})
		st.sizeLeft = 0
	}
	r := finish(callID, candles, entryIdx, entryPx, last, st.legs, types.ExitEndOfData, false)
	return applyFees(r, fees)
}

// ---- Combo ----

// comboStepper is implemented by a per-inner-policy adapter used only
// while racing inside a Combo.
type comboStepper interface {
	step(c types.Candle) (fired bool, px float64, reason types.ExitReason)
}

type fixedStopStepper struct {
	entryPx float64
	stopPx  float64
	hasTP   bool
	tpPx    float64
}

func (s *fixedStopStepper) step(c types.Candle) (bool, float64, types.ExitReason) {
	if c.Low <= s.stopPx {
		return true, s.stopPx, types.ExitStopLoss
	}
	if s.hasTP && c.High >= s.tpPx {
		return true, s.tpPx, types.ExitTakeProfit
	}
	return false, 0, ""
}

type timeStopStepper struct {
	entryPx  float64
	deadline int64
	hasTP    bool
	tpPx     float64
}

func (s *timeStopStepper) step(c types.Candle) (bool, float64, types.ExitReason) {
	if s.hasTP && c.High >= s.tpPx {
		return true, s.tpPx, types.ExitTakeProfit
	}
	if c.TimestampMs() >= s.deadline {
		return true, c.Open, types.ExitTimeStop
	}
	return false, 0, ""
}

type trailingStopStepper struct {
	st *trailingState
}

func (s *trailingStopStepper) step(c types.Candle) (bool, float64, types.ExitReason) {
	fired, px := s.st.step(c)
	if fired {
		return true, px, types.ExitTrailingStop
	}
	return false, 0, ""
}

type ladderStepper struct {
	st *ladderState
}

func (s *ladderStepper) step(c types.Candle) (bool, float64, types.ExitReason) {
	fired, px, legIdx, isStop := s.st.stepLeg(c)
	if !fired {
		return false, 0, ""
	}
	if isStop {
		return true, px, types.ExitStopLoss
	}
	return true, px, types.LadderLegReason(legIdx)
}

func newStepper(entryPx float64, entryTsMs int64, p types.RiskPolicy) comboStepper {
	switch v := p.(type) {
	case types.FixedStop:
		s := &fixedStopStepper{entryPx: entryPx, stopPx: entryPx * (1 - v.StopPct)}
		if v.TakeProfitPct != nil {
			s.hasTP = true
			s.tpPx = entryPx * (1 + *v.TakeProfitPct)
		}
		return s
	case types.TimeStop:
		s := &timeStopStepper{entryPx: entryPx, deadline: entryTsMs + v.MaxHoldMs}
		if v.TakeProfitPct != nil {
			s.hasTP = true
			s.tpPx = entryPx * (1 + *v.TakeProfitPct)
		}
		return s
	case types.TrailingStop:
		return &trailingStopStepper{st: newTrailingState(entryPx, v)}
	case types.Ladder:
		return &ladderStepper{st: newLadderState(entryPx, v)}
	}
	return nil
}

func executeCombo(callID string, candles []types.Candle, entryIdx int, p types.Combo, fees types.Fees) types.PolicyResult {
	entryPx := candles[entryIdx].Open
	entryTsMs := candles[entryIdx].TimestampMs()

	steppers := make([]comboStepper, len(p.Policies))
	for i, inner := range p.Policies {
		steppers[i] = newStepper(entryPx, entryTsMs, inner)
	}

	for i := entryIdx; i < len(candles); i++ {
		c := candles[i]
		// Among inner policies firing on the same candle, the lowest
		// priority band wins; within a band, the lower inner index wins.
		winner, winPrio, winPx, winReason := -1, 0, 0.0, types.ExitReason("")
		for idx, st := range steppers {
			if st == nil {
				continue
			}
			fired, px, reason := st.step(c)
			prio := priorityTarget
			switch reason {
			case types.ExitStopLoss, types.ExitTrailingStop:
				prio = priorityStop
			case types.ExitTimeStop:
				prio = priorityTime
			}
			if fired && (winner < 0 || prio < winPrio) {
				winner, winPrio, winPx, winReason = idx, prio, px, reason
			}
		}
		if winner >= 0 {
			r := finish(callID, candles, entryIdx, entryPx, i, []leg{{winPx, 1}}, types.ComboReason(winner, winReason), winReason == types.ExitStopLoss)
			return applyFees(r, fees)
		}
	}
	last := len(candles) - 1
	r := finish(callID, candles, entryIdx, entryPx, last, []leg{{candles[last].Close, 1}}, types.ExitEndOfData, false)
	return applyFees(r, fees)
}
