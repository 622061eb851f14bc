package policy

import (
	"strconv"
	"strings"

	"github.com/atlas-desktop/callbacktest/pkg/types"
)

// ID is the single centralized stringifier for canonical policy IDs
// (spec.md §6 / §9: "stringification is centralized; every caller of the
// ID function receives exactly the same canonical form"). Float fields
// use a fixed decimal representation; absent optional fields use the
// literal sentinel "none".
func ID(p types.RiskPolicy) string {
	switch v := p.(type) {
	case types.FixedStop:
		return "fixed_stop_" + f(v.StopPct) + "_" + optF(v.TakeProfitPct)
	case types.TimeStop:
		return "time_stop_" + i(v.MaxHoldMs) + "_" + optF(v.TakeProfitPct)
	case types.TrailingStop:
		return "trailing_" + f(v.ActivationPct) + "_" + f(v.TrailPct) + "_" + optF(v.HardStopPct)
	case types.Ladder:
		legs := make([]string, len(v.Levels))
		for i, lvl := range v.Levels {
			legs[i] = f(lvl.Multiple) + "x" + f(lvl.Fraction)
		}
		return "ladder_" + strings.Join(legs, "_") + "_" + optF(v.StopPct)
	case types.Combo:
		parts := make([]string, len(v.Policies))
		for i, inner := range v.Policies {
			parts[i] = ID(inner)
		}
		return "combo_" + strings.Join(parts, "+")
	default:
		return "unknown_policy"
	}
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func i(v int64) string {
	return strconv.FormatInt(v, 10)
}

func optF(v *float64) string {
	if v == nil {
		return "none"
	}
	return f(*v)
}
