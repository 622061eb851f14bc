// Package idgen provides opaque identifier generation for run and
// evaluation bookkeeping. It is not used for anything the spec requires
// to be deterministic — canonical policy IDs are computed separately by
// internal/policy, which is a pure string encoding, not a random ID.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// New generates a unique ID with an optional prefix, grounded on the
// teacher's pkg/utils.GenerateID.
func New(prefix string) string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	id := hex.EncodeToString(buf)
	if prefix == "" {
		return id
	}
	return fmt.Sprintf("%s_%s", prefix, id)
}

// NewRunID returns a fresh optimizer/backtest run identifier.
func NewRunID() string {
	return "run_" + uuid.NewString()
}
