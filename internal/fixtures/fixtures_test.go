package fixtures_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/atlas-desktop/callbacktest/internal/fixtures"
)

const sampleFixture = `{
  "calls": [
    {
      "id": "call-1",
      "caller": "whale",
      "token_address": "0xabc",
      "chain": "solana",
      "created_at_ms": 1000,
      "candles": [
        {"timestamp_s": 1, "open": 1.0, "high": 1.1, "low": 0.9, "close": 1.05, "volume": 10},
        {"timestamp_s": 61, "open": 1.05, "high": 1.2, "low": 1.0, "close": 1.1, "volume": 5}
      ]
    }
  ]
}`

func TestLoadParsesCallsAndCandles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.json")
	if err := os.WriteFile(path, []byte(sampleFixture), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ds, err := fixtures.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(ds.Calls))
	}
	call := ds.Calls[0]
	if call.Caller != "whale" {
		t.Fatalf("expected caller whale, got %s", call.Caller)
	}
	candles := ds.Candles(call)
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	if ds.AnchorMs(call) != 1000 {
		t.Fatalf("expected anchor 1000, got %d", ds.AnchorMs(call))
	}
}

func TestLoadRejectsMissingID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte(`{"calls":[{"caller":"x"}]}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := fixtures.Load(path); err == nil {
		t.Fatal("expected error for call missing id")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := fixtures.Load("/nonexistent/path.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
