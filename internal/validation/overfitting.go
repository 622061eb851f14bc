package validation

import "github.com/atlas-desktop/callbacktest/pkg/types"

// DetectOverfitting compares a train-set score against its
// validation-set counterpart and classifies the gap's severity
// (spec.md C7). trainScore of zero is treated as a degenerate case
// where the relative gap is reported as zero to avoid a division by
// zero rather than flagging unbounded overfitting.
func DetectOverfitting(trainScore, validationScore float64, cfg types.OverfittingConfig) types.OverfittingReport {
	gap := trainScore - validationScore

	var relative float64
	if trainScore != 0 {
		relative = gap / absFloat(trainScore)
	}

	severity := types.OverfittingNone
	switch {
	case relative > cfg.SevereThreshold:
		severity = types.OverfittingSevere
	case relative > cfg.ModerateThreshold:
		severity = types.OverfittingModerate
	case relative > cfg.MildThreshold:
		severity = types.OverfittingMild
	}

	return types.OverfittingReport{
		Detected:           severity != types.OverfittingNone,
		Severity:           severity,
		ScoreGap:           gap,
		RelativeGapPercent: relative * 100,
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
