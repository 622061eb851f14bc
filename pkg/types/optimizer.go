package types

import "github.com/shopspring/decimal"

// OptimizerConfig is the single typed configuration struct the kernel
// accepts for C8 (spec.md §6: "optimization accepts a typed struct").
type OptimizerConfig struct {
	Constraints         Constraints
	Fees                Fees
	PolicyTypesEnabled  map[PolicyKind]bool // nil/empty means all enabled
	CallerGroupsFilter  []string            // nil means no filter
	PathMetrics         map[string]PathMetrics
	ValidationSplit     *ValidationSplitConfig // nil means no split, all calls are train
	Overfitting         OverfittingConfig
	Objective           ObjectiveConfig
	HighMultiplePercentileThreshold float64 // default 20, checked against p95 peak multiple
	HighMultipleMedianThreshold     float64 // default 5, checked against p75 peak multiple
}

// DefaultOptimizerConfig mirrors spec.md §4.6's stated defaults.
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		Constraints:                     DefaultConstraints(),
		Overfitting:                     DefaultOverfittingConfig(),
		Objective:                       DefaultObjectiveConfig(),
		HighMultiplePercentileThreshold: 20,
		HighMultipleMedianThreshold:     5,
	}
}

// CallerProfile summarizes a caller's historical peak-multiple
// distribution, computed from train calls only to avoid leakage into
// validation.
type CallerProfile struct {
	Caller          string
	IsHighMultiple  bool
	P95PeakMultiple float64
	P75PeakMultiple float64
	SampleSize      int
}

// EvaluatedPolicy is one row of the optimizer's ranked output.
type EvaluatedPolicy struct {
	PolicyID         string
	Policy           RiskPolicy
	TrainScore       PolicyScore
	ValidationScore  *PolicyScore
	Overfitting      *OverfittingReport
}

// BootstrapSummary is the optional bootstrap confidence band over the
// selected best policy's realized returns (see internal/montecarlo).
// Declared here, rather than as a montecarlo.Summary reference, so
// pkg/types has no dependency on an internal package.
type BootstrapSummary struct {
	Iterations   int
	MedianReturn decimal.Decimal
	P5Return     decimal.Decimal
	P95Return    decimal.Decimal
	Seed         int64
}

// OptimizationResult is C8's output for a single caller (or caller
// group).
type OptimizationResult struct {
	RunID                string
	BestPolicy           *EvaluatedPolicy
	BestPolicyConfidence *BootstrapSummary
	Ranked               []EvaluatedPolicy
	PoliciesEvaluated    int
	FeasiblePolicies     int
	Split                *SplitResult
	Profile              CallerProfile
}
