package validation_test

import (
	"testing"

	"github.com/atlas-desktop/callbacktest/internal/validation"
	"github.com/atlas-desktop/callbacktest/pkg/types"
)

func TestDetectOverfittingSeverityBands(t *testing.T) {
	cfg := types.DefaultOverfittingConfig()

	none := validation.DetectOverfitting(1.0, 0.98, cfg)
	if none.Detected || none.Severity != types.OverfittingNone {
		t.Fatalf("expected none, got %+v", none)
	}

	mild := validation.DetectOverfitting(1.0, 0.90, cfg)
	if mild.Severity != types.OverfittingMild {
		t.Fatalf("expected mild, got %+v", mild)
	}

	moderate := validation.DetectOverfitting(1.0, 0.80, cfg)
	if moderate.Severity != types.OverfittingModerate {
		t.Fatalf("expected moderate, got %+v", moderate)
	}

	severe := validation.DetectOverfitting(1.0, 0.60, cfg)
	if severe.Severity != types.OverfittingSevere {
		t.Fatalf("expected severe, got %+v", severe)
	}
}

func TestDetectOverfittingZeroTrainScoreNoDivideByZero(t *testing.T) {
	r := validation.DetectOverfitting(0, 0.1, types.DefaultOverfittingConfig())
	if r.RelativeGapPercent != 0 {
		t.Fatalf("expected relative gap 0 for zero train score, got %v", r.RelativeGapPercent)
	}
}
