// Package kernelerr provides the kernel's typed error kinds. Every error
// raised by the core packages carries the offending input identifier so
// the surrounding orchestrator can report precisely, per spec.md §7.
package kernelerr

import "fmt"

// InvalidPolicyError is raised at policy construction when a variant's
// fields are inconsistent (e.g. ladder fractions summing above 1).
type InvalidPolicyError struct {
	PolicyID string
	Reason   string
}

func (e *InvalidPolicyError) Error() string {
	return fmt.Sprintf("invalid policy %q: %s", e.PolicyID, e.Reason)
}

// MalformedCandleError is raised when a candle carries a non-finite
// value or candles are out of chronological order.
type MalformedCandleError struct {
	CallID string
	Index  int
	Reason string
}

func (e *MalformedCandleError) Error() string {
	return fmt.Sprintf("malformed candle for call %q at index %d: %s", e.CallID, e.Index, e.Reason)
}

// InvalidInputError is raised for out-of-range or unrecognized
// configuration values (e.g. train_fraction outside (0,1)).
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Field, e.Reason)
}

// InsufficientDataError is not raised — it is returned as a non-fatal
// empty score sentinel by the scorer. It is defined here so callers can
// recognize the sentinel condition by type if they choose to inspect it,
// per spec.md §7 ("returned as a non-fatal empty score, not raised").
type InsufficientDataError struct {
	PolicyID string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data to score policy %q", e.PolicyID)
}
