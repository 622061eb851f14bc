// Package fixtures loads calls and their candle series from local JSON
// files for the demo CLI. It is read-only test/demo tooling, not a
// storage layer: no schema migrations, no database driver, just
// encoding/json against a file the caller points at.
//
// Grounded on guyghost-constantine's cmd/backtest DataLoader (a small
// loader that turns a file on disk into the backtester's native types)
// but reworked for JSON instead of CSV, since a Call carries caller and
// chain metadata a flat OHLCV CSV has no column for.
package fixtures

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/atlas-desktop/callbacktest/pkg/types"
)

// candleDoc mirrors types.Candle with JSON tags; the kernel's own Candle
// stays free of encoding concerns.
type candleDoc struct {
	TimestampS int64   `json:"timestamp_s"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	Volume     float64 `json:"volume"`
}

type callDoc struct {
	ID           string   `json:"id"`
	Caller       string   `json:"caller"`
	TokenAddress string   `json:"token_address"`
	Chain        string   `json:"chain"`
	CreatedAtMs  int64    `json:"created_at_ms"`
	PriceAtAlert *float64 `json:"price_at_alert,omitempty"`

	Candles []candleDoc `json:"candles"`
}

type fixtureDoc struct {
	Calls []callDoc `json:"calls"`
}

// Dataset is the result of loading a fixture file: every call plus its
// own candle series, ready to hand to an optimizer.CandleSource.
type Dataset struct {
	Calls         []types.Call
	CandlesByCall map[string][]types.Candle
	AnchorMsByID  map[string]int64
}

// Candles implements optimizer.CandleSource.
func (d Dataset) Candles(call types.Call) []types.Candle { return d.CandlesByCall[call.ID] }

// AnchorMs implements optimizer.CandleSource.
func (d Dataset) AnchorMs(call types.Call) int64 { return d.AnchorMsByID[call.ID] }

// Load reads a JSON fixture file of the shape:
//
//	{"calls": [{"id": "...", "caller": "...", "chain": "solana",
//	  "created_at_ms": 0, "candles": [{"timestamp_s": 0, "open": 1, ...}]}]}
func Load(path string) (Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("read fixture %s: %w", path, err)
	}

	var doc fixtureDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Dataset{}, fmt.Errorf("parse fixture %s: %w", path, err)
	}

	ds := Dataset{
		Calls:         make([]types.Call, 0, len(doc.Calls)),
		CandlesByCall: make(map[string][]types.Candle, len(doc.Calls)),
		AnchorMsByID:  make(map[string]int64, len(doc.Calls)),
	}

	for _, c := range doc.Calls {
		if c.ID == "" {
			return Dataset{}, fmt.Errorf("fixture %s: call missing id", path)
		}
		call := types.Call{
			ID:           c.ID,
			Caller:       c.Caller,
			TokenAddress: c.TokenAddress,
			Chain:        types.Chain(c.Chain),
			CreatedAtMs:  c.CreatedAtMs,
			PriceAtAlert: c.PriceAtAlert,
		}
		ds.Calls = append(ds.Calls, call)
		ds.AnchorMsByID[c.ID] = c.CreatedAtMs

		candles := make([]types.Candle, len(c.Candles))
		for i, cd := range c.Candles {
			candles[i] = types.Candle{
				TimestampS: cd.TimestampS,
				Open:       cd.Open,
				High:       cd.High,
				Low:        cd.Low,
				Close:      cd.Close,
				Volume:     cd.Volume,
			}
		}
		ds.CandlesByCall[c.ID] = candles
	}

	return ds, nil
}
