package optimizer_test

import (
	"testing"

	"github.com/atlas-desktop/callbacktest/internal/optimizer"
	"github.com/atlas-desktop/callbacktest/pkg/types"
)

func TestProfileClassifiesHighMultipleCaller(t *testing.T) {
	calls := []types.Call{
		{ID: "1", Caller: "whale"},
		{ID: "2", Caller: "whale"},
		{ID: "3", Caller: "whale"},
		{ID: "4", Caller: "whale"},
	}
	pathMetrics := map[string]types.PathMetrics{
		"1": {PeakMultiple: 30},
		"2": {PeakMultiple: 25},
		"3": {PeakMultiple: 22},
		"4": {PeakMultiple: 28},
	}
	cfg := types.DefaultOptimizerConfig()
	profile := optimizer.Profile("whale", calls, pathMetrics, cfg)
	if !profile.IsHighMultiple {
		t.Fatalf("expected high-multiple classification, got %+v", profile)
	}
}

func TestProfileClassifiesLowMultipleCaller(t *testing.T) {
	calls := []types.Call{
		{ID: "1", Caller: "regular"},
		{ID: "2", Caller: "regular"},
	}
	pathMetrics := map[string]types.PathMetrics{
		"1": {PeakMultiple: 1.5},
		"2": {PeakMultiple: 1.8},
	}
	cfg := types.DefaultOptimizerConfig()
	profile := optimizer.Profile("regular", calls, pathMetrics, cfg)
	if profile.IsHighMultiple {
		t.Fatalf("expected non-high-multiple classification, got %+v", profile)
	}
}
