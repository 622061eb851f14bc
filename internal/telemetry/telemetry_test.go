package telemetry_test

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/atlas-desktop/callbacktest/internal/telemetry"
)

func counterValue(t *testing.T, m *telemetry.Metrics, name string) float64 {
	t.Helper()
	var families []*dto.MetricFamily
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		var sum float64
		for _, metric := range f.GetMetric() {
			if metric.Counter != nil {
				sum += metric.Counter.GetValue()
			}
		}
		return sum
	}
	return 0
}

func TestObservePolicyEvaluatedIncrementsCounterAndHistogram(t *testing.T) {
	m := telemetry.New()
	m.ObservePolicyEvaluated(5 * time.Millisecond)
	m.ObservePolicyEvaluated(10 * time.Millisecond)

	if got := counterValue(t, m, "policies_evaluated_total"); got != 2 {
		t.Fatalf("expected 2 policies evaluated, got %v", got)
	}

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var samples uint64
	for _, f := range families {
		if f.GetName() != "policy_evaluation_duration_seconds" {
			continue
		}
		for _, metric := range f.GetMetric() {
			samples += metric.GetHistogram().GetSampleCount()
		}
	}
	if samples != 2 {
		t.Fatalf("expected 2 histogram observations, got %d", samples)
	}
}

func TestIncCallEvaluatedLabelsByResult(t *testing.T) {
	m := telemetry.New()
	m.IncCallEvaluated("ok")
	m.IncCallEvaluated("ok")
	m.IncCallEvaluated("no_entry")

	if got := counterValue(t, m, "calls_evaluated_total"); got != 3 {
		t.Fatalf("expected 3 total calls evaluated, got %v", got)
	}
}

func TestIncExitReasonAndOptimizerRun(t *testing.T) {
	m := telemetry.New()
	m.IncExitReason("take_profit")
	m.IncOptimizerRun()

	if got := counterValue(t, m, "exit_reasons_total"); got != 1 {
		t.Fatalf("expected 1 exit reason recorded, got %v", got)
	}
	if got := counterValue(t, m, "optimizer_runs_total"); got != 1 {
		t.Fatalf("expected 1 optimizer run recorded, got %v", got)
	}
}
