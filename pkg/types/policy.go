package types

// RiskPolicy is the sealed set of exit-policy variants the execution
// engine can run. It is a tagged union: every concrete policy type
// implements the unexported marker method so no type outside this
// package can add a new variant (construction/validation lives in
// internal/policy, which is the only place RiskPolicy values should be
// built).
type RiskPolicy interface {
	isRiskPolicy()
	// Kind returns the variant's discriminator, used for dispatch in the
	// execution engine and for canonical ID encoding.
	Kind() PolicyKind
}

// PolicyKind discriminates RiskPolicy variants.
type PolicyKind string

const (
	PolicyKindFixedStop    PolicyKind = "fixed_stop"
	PolicyKindTimeStop     PolicyKind = "time_stop"
	PolicyKindTrailingStop PolicyKind = "trailing_stop"
	PolicyKindLadder       PolicyKind = "ladder"
	PolicyKindCombo        PolicyKind = "combo"
)

// FixedStop exits at a fixed percentage stop, with an optional take-profit.
type FixedStop struct {
	StopPct       float64
	TakeProfitPct *float64
}

func (FixedStop) isRiskPolicy()         {}
func (FixedStop) Kind() PolicyKind      { return PolicyKindFixedStop }

// TimeStop force-exits after a maximum holding period, with an optional
// take-profit checked first each candle (treated as a target).
type TimeStop struct {
	MaxHoldMs     int64
	TakeProfitPct *float64
}

func (TimeStop) isRiskPolicy()    {}
func (TimeStop) Kind() PolicyKind { return PolicyKindTimeStop }

// TrailingStop activates once profit crosses ActivationPct, then trails
// the watermark by TrailPct. HardStopPct, if set, puts a floor under the
// trailing stop that is never crossed below.
//
// HardStopPct only engages once the trailing stop has activated: before
// ActivationPct is reached there is no effective stop at all, so a
// position can fall further than HardStopPct while still unprofitable.
type TrailingStop struct {
	ActivationPct float64
	TrailPct      float64
	HardStopPct   *float64
}

func (TrailingStop) isRiskPolicy()    {}
func (TrailingStop) Kind() PolicyKind { return PolicyKindTrailingStop }

// LadderLevel is a single partial-exit rung: at Multiple * entry price,
// realize Fraction of the original position size.
type LadderLevel struct {
	Multiple float64
	Fraction float64
}

// Ladder realizes partial exits at ascending price multiples. Levels are
// assumed sorted by ascending Multiple with strictly increasing values
// and fractions summing to at most 1 (internal/policy enforces this at
// construction).
type Ladder struct {
	Levels  []LadderLevel
	StopPct *float64
}

func (Ladder) isRiskPolicy()    {}
func (Ladder) Kind() PolicyKind { return PolicyKindLadder }

// Combo runs its inner policies in parallel against the same candles;
// the first inner policy to emit a terminal exit wins. Nesting a Combo
// inside a Combo is rejected at construction.
type Combo struct {
	Policies []RiskPolicy
}

func (Combo) isRiskPolicy()    {}
func (Combo) Kind() PolicyKind { return PolicyKindCombo }

// Fees is the flat fee+slippage model applied once on entry and once on
// exit, symmetrically.
type Fees struct {
	TakerFeeBps   float64
	SlippageBps   float64
}

// BuyMultiplier and SellMultiplier implement spec.md §4.2's fee formula.
func (f Fees) BuyMultiplier() float64 {
	return 1 + (f.TakerFeeBps+f.SlippageBps)/10000
}

func (f Fees) SellMultiplier() float64 {
	return 1 - (f.TakerFeeBps+f.SlippageBps)/10000
}

// ExitReason enumerates why a position was closed.
type ExitReason string

const (
	ExitTakeProfit   ExitReason = "take_profit"
	ExitStopLoss     ExitReason = "stop_loss"
	ExitTimeStop     ExitReason = "time_stop"
	ExitTrailingStop ExitReason = "trailing_stop"
	ExitLadderDone   ExitReason = "ladder_done"
	ExitEndOfData    ExitReason = "end_of_data"
	ExitNoEntry      ExitReason = "no_entry"
)

// LadderLegReason formats the intermediate (non-terminal) ladder leg
// exit-reason tag, e.g. "ladder_1" for the first rung hit.
func LadderLegReason(index int) ExitReason {
	return ExitReason(ladderLegPrefix + itoa(index+1))
}

const ladderLegPrefix = "ladder_"

// ComboReason formats the combined exit reason for a Combo policy whose
// index-th inner policy won, preserving the inner reason per spec.md §3
// invariant 5.
func ComboReason(index int, inner ExitReason) ExitReason {
	return ExitReason("combo_" + itoa(index) + ":" + string(inner))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// PolicyResult is emitted once per (run, policy, call).
type PolicyResult struct {
	RunID  string
	PolicyID string
	CallID string

	RealizedReturnBps     float64
	StopOut               bool
	MaxAdverseExcursionBps float64
	TimeExposedMs         int64
	TailCapture           *float64 // realized/peak multiple in [0,1], nil if undefined

	EntryTsMs int64
	EntryPx   float64
	ExitTsMs  int64
	ExitPx    float64

	ExitReason ExitReason
}

// PolicyScore is the scorer's output for a single policy evaluated over a
// set of PolicyResult rows.
type PolicyScore struct {
	Score                float64 // -Inf if infeasible
	ConstraintsSatisfied bool
	Violations           []string
	TieBreakers          TieBreakers
	Metrics              ScoreMetrics
	ObjectiveBreakdown   *ObjectiveBreakdown
}

// TieBreakers carries the values used to break equal scores, in priority
// order: higher tail capture, then larger median-return proxy, then
// smaller drawdown magnitude.
type TieBreakers struct {
	AvgTailCapture     float64
	MedianReturnProxy  float64
	MedianDrawdownBps  float64 // magnitude, smaller is better
}

// ScoreMetrics carries the raw aggregate statistics the objective and
// constraints are computed from.
type ScoreMetrics struct {
	SampleSize          int
	StopOutRate         float64
	P95DrawdownBps      float64
	P95DDTo2xBps        float64 // p95 of PathMetrics.DDTo2xBps (dd_pre2x); feeds the objective's dd_penalty term
	AvgTimeExposedMs    float64
	MedianPeakMultiple  float64
	Hit2xRate           float64
	MedianT2xMinutes    float64
	P95PeakMultiple     float64
	P75PeakMultiple     float64
}

// ObjectiveBreakdown exposes the objective function's individual terms
// for diagnostics and reporting.
type ObjectiveBreakdown struct {
	Base          float64
	DDPenalty     float64
	TimingBoost   float64
	Consistency   float64
	TailBonus     float64
}

// Constraints are the hard feasibility gates the scorer applies before
// computing the objective.
type Constraints struct {
	MaxStopOutRate      float64
	MaxP95DrawdownBps   float64 // more negative is worse; this is a floor
	MaxTimeExposedMs    int64
}

// DefaultConstraints mirrors spec.md §4.3's stated defaults.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxStopOutRate:    0.30,
		MaxP95DrawdownBps: -3000,
		MaxTimeExposedMs:  4 * 60 * 60 * 1000,
	}
}

// ObjectiveConfig carries the scorer's tunable constants.
type ObjectiveConfig struct {
	K            float64
	BrutalMult   float64
	TargetMinutes float64
}

// DefaultObjectiveConfig mirrors spec.md §4.3's stated defaults.
func DefaultObjectiveConfig() ObjectiveConfig {
	return ObjectiveConfig{K: 5.0, BrutalMult: 10.0, TargetMinutes: 60}
}
