package types

// PathMetrics is the immutable "truth" row computed for a single call.
// It is a pure function of (candles, t0_ms, options) and never mutated
// after construction.
type PathMetrics struct {
	CallID string

	T0Ms int64
	P0   float64 // NaN if the anchor candle could not be located

	Hit2x bool
	Hit3x bool
	Hit4x bool

	T2xMs *int64
	T3xMs *int64
	T4xMs *int64

	DDBps       float64  // max drawdown from anchor onward, in bps (<= 0)
	DDTo2xBps   *float64 // drawdown restricted to [t0, t_2x]; nil if 2x never hit

	AlertToActivityMs *int64// time to first candle crossing +/- activation band; nil if never

	PeakMultiple float64 // max(high)/p0 over the full horizon
}

// PathMetricsOptions configures the Path-Metrics Computer.
type PathMetricsOptions struct {
	// ActivationPct is the alpha used for alert_to_activity_ms: a candle is
	// "active" once high >= p0*(1+alpha) or low <= p0*(1-alpha).
	ActivationPct float64
	// DDTo2xInclusive includes the 2x-touch candle itself in the
	// dd_to_2x_bps window when true (the spec's default).
	DDTo2xInclusive bool
}

// DefaultPathMetricsOptions mirrors spec.md §3's stated default (alpha=0.10).
func DefaultPathMetricsOptions() PathMetricsOptions {
	return PathMetricsOptions{
		ActivationPct:   0.10,
		DDTo2xInclusive: true,
	}
}
