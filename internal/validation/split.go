// Package validation implements the Validation Split (spec.md C6) and
// Overfitting Detector (spec.md C7). The time_based strategy is grounded
// on the teacher's internal/backtester/walkforward.go window-partitioning
// shape, generalized from time windows to call partitions; the random
// strategy's shuffle uses a seeded linear-congruential generator rather than math/rand so
// a fixed seed reproduces byte-identical splits across runs and hosts.
package validation

import (
	"sort"

	"github.com/atlas-desktop/callbacktest/pkg/kernelerr"
	"github.com/atlas-desktop/callbacktest/pkg/types"
)

const lcgModulus = 233280

// lcg is the spec-mandated split RNG: state <- (state*9301+49297) mod
// 233280, draw = state/233280. It is deliberately not math/rand so the
// sequence is reproducible across Go versions and platforms.
type lcg struct {
	state int64
}

func newLCG(seed int64) *lcg {
	return &lcg{state: seed}
}

func (g *lcg) next() float64 {
	g.state = (g.state*9301 + 49297) % lcgModulus
	return float64(g.state) / lcgModulus
}

const defaultRandomSeed int64 = 42

// Split partitions calls per cfg.Strategy. It never mutates or reorders
// the caller's slice; calls are copied into Train/Validation by value.
func Split(calls []types.Call, cfg types.ValidationSplitConfig) (types.SplitResult, error) {
	if cfg.TrainFraction <= 0 || cfg.TrainFraction >= 1 {
		return types.SplitResult{}, &kernelerr.InvalidInputError{
			Field:  "train_fraction",
			Reason: "must be in (0,1)",
		}
	}

	switch cfg.Strategy {
	case types.SplitTimeBased:
		return splitTimeBased(calls, cfg)
	case types.SplitCallerBased:
		return splitCallerBased(calls, cfg)
	case types.SplitRandom:
		return splitRandom(calls, cfg)
	default:
		return types.SplitResult{}, &kernelerr.InvalidInputError{
			Field:  "strategy",
			Reason: "unknown split strategy: " + string(cfg.Strategy),
		}
	}
}

func splitTimeBased(calls []types.Call, cfg types.ValidationSplitConfig) (types.SplitResult, error) {
	sorted := append([]types.Call(nil), calls...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAtMs < sorted[j].CreatedAtMs })

	trainCount := roundFraction(cfg.TrainFraction, len(sorted))
	train := append([]types.Call(nil), sorted[:trainCount]...)
	val := append([]types.Call(nil), sorted[trainCount:]...)

	result := types.SplitResult{
		Train:         train,
		Validation:    val,
		Strategy:      types.SplitTimeBased,
		TrainFraction: cfg.TrainFraction,
	}
	if len(train) > 0 {
		result.TrainDateRange = &types.DateRange{StartMs: train[0].CreatedAtMs, EndMs: train[len(train)-1].CreatedAtMs}
	}
	if len(val) > 0 {
		result.ValDateRange = &types.DateRange{StartMs: val[0].CreatedAtMs, EndMs: val[len(val)-1].CreatedAtMs}
	}
	return result, nil
}

func splitCallerBased(calls []types.Call, cfg types.ValidationSplitConfig) (types.SplitResult, error) {
	counts := make(map[string]int)
	for _, c := range calls {
		counts[c.Caller]++
	}
	callers := make([]string, 0, len(counts))
	for name := range counts {
		callers = append(callers, name)
	}
	sort.Slice(callers, func(i, j int) bool {
		if counts[callers[i]] != counts[callers[j]] {
			return counts[callers[i]] > counts[callers[j]]
		}
		return callers[i] < callers[j]
	})

	trainCount := roundFraction(cfg.TrainFraction, len(callers))
	trainCallers := make(map[string]bool, trainCount)
	for _, name := range callers[:trainCount] {
		trainCallers[name] = true
	}

	var train, val []types.Call
	for _, c := range calls {
		if trainCallers[c.Caller] {
			train = append(train, c)
		} else {
			val = append(val, c)
		}
	}

	return types.SplitResult{
		Train:         train,
		Validation:    val,
		Strategy:      types.SplitCallerBased,
		TrainFraction: cfg.TrainFraction,
		TrainCallers:  append([]string(nil), callers[:trainCount]...),
		ValCallers:    append([]string(nil), callers[trainCount:]...),
	}, nil
}

func splitRandom(calls []types.Call, cfg types.ValidationSplitConfig) (types.SplitResult, error) {
	seed := defaultRandomSeed
	if cfg.RandomSeed != nil {
		seed = *cfg.RandomSeed
	}
	shuffled := append([]types.Call(nil), calls...)
	gen := newLCG(seed)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := int(gen.next() * float64(i+1))
		if j > i {
			j = i
		}
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	trainCount := roundFraction(cfg.TrainFraction, len(shuffled))
	usedSeed := seed
	return types.SplitResult{
		Train:         append([]types.Call(nil), shuffled[:trainCount]...),
		Validation:    append([]types.Call(nil), shuffled[trainCount:]...),
		Strategy:      types.SplitRandom,
		TrainFraction: cfg.TrainFraction,
		RandomSeed:    &usedSeed,
	}, nil
}

func roundFraction(frac float64, n int) int {
	count := int(frac*float64(n) + 0.5)
	if count > n {
		count = n
	}
	if count < 0 {
		count = 0
	}
	return count
}
