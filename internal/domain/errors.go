package domain

import "fmt"

// SchemaMismatch records a source row whose FIPS code is not in the county
// roster. Such rows are excluded from the join and reported; they signal a
// data-acquisition error upstream, not a fatal condition.
type SchemaMismatch struct {
	Source string `json:"source"`
	FIPS   string `json:"fips"`
}

func (m SchemaMismatch) String() string {
	return fmt.Sprintf("%s: unknown county %q", m.Source, m.FIPS)
}

// InvalidWeightConfigurationError reports a weight configuration that cannot
// be scored: weights not summing to 1.0 within tolerance, a negative weight,
// or a component with no usable variables. It is fatal for that configuration
// only; a sensitivity batch continues with the remaining configurations.
type InvalidWeightConfigurationError struct {
	Config string
	Reason string
}

func (e *InvalidWeightConfigurationError) Error() string {
	return fmt.Sprintf("invalid weight configuration %q: %s", e.Config, e.Reason)
}
