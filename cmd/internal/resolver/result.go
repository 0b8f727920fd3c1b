package resolver

import (
	"encoding/json"
)

type Kind int

const (
	// Resolved means the catalog answered and the tiers were derived from it.
	Resolved Kind = iota
	// Degraded means discovery could not complete and both tiers hold the configured defaults.
	Degraded
)

func (k Kind) String() string {
	if k == Degraded {
		return "degraded"
	}
	return "resolved"
}

// Result is the outcome of a resolution. A degraded result is still a usable result: High and Low
// are always populated.
type Result struct {
	Kind  Kind
	High  string
	Low   string
	Cause error
}

func (r Result) IsDegraded() bool {
	return r.Kind == Degraded
}

// ForTier returns the model for "high" or "low". Anything else is treated as high.
func (r Result) ForTier(tier string) string {
	if tier == "low" {
		return r.Low
	}
	return r.High
}

type resultJson struct {
	High  string `json:"high"`
	Low   string `json:"low"`
	Error string `json:"error,omitempty"`
}

// MarshalJSON writes the discovery output format: "error" only appears on degraded results.
func (r Result) MarshalJSON() ([]byte, error) {
	output := resultJson{High: r.High, Low: r.Low}

	if r.IsDegraded() {
		output.Error = "discovery failed"
		if r.Cause != nil {
			output.Error = r.Cause.Error()
		}
	}

	return json.Marshal(output)
}

// EmptyResultError means an expected list came back empty.
type EmptyResultError struct {
	What string
}

func (e *EmptyResultError) Error() string {
	return e.What + " returned no entries"
}

// DefaultResult is the degraded result of the default configuration, for failures that happen
// before a resolver could be built.
func DefaultResult(cause error) Result {
	defaults := DefaultConfig()

	return Result{
		Kind:  Degraded,
		High:  defaults.DefaultHigh,
		Low:   defaults.DefaultLow,
		Cause: cause,
	}
}
