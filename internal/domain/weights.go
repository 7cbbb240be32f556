package domain

import (
	"fmt"
	"math"
)

// weightTolerance is the floating-point slack allowed when checking that a
// set of weights sums to 1.0.
const weightTolerance = 1e-3

// VariableWeight pairs a normalized variable with its intra-component weight.
type VariableWeight struct {
	Variable string  `json:"variable"`
	Weight   float64 `json:"weight"`
}

// ComponentDefinition is one named index dimension: the variables it
// aggregates with their intra-component weights (summing to 1.0) and its
// top-level weight in the final index. Definitions are ordered slices so
// scoring never depends on map iteration order.
type ComponentDefinition struct {
	Name      string           `json:"name"`
	Weight    float64          `json:"weight"`
	Variables []VariableWeight `json:"variables"`
}

// WeightConfig is a complete, named weighting scheme. It is configuration
// data, replaceable wholesale for sensitivity analysis.
type WeightConfig struct {
	Name       string                `json:"name"`
	Components []ComponentDefinition `json:"components"`
}

// Validate checks the configuration is scoreable: top-level weights sum to
// 1.0 within tolerance, every component's variable weights do too, every
// component lists at least one variable, and no weight is negative.
func (c WeightConfig) Validate() error {
	if len(c.Components) == 0 {
		return &InvalidWeightConfigurationError{Config: c.Name, Reason: "no components"}
	}

	var top float64
	for _, comp := range c.Components {
		if comp.Weight < 0 {
			return &InvalidWeightConfigurationError{
				Config: c.Name,
				Reason: fmt.Sprintf("component %q has negative weight %v", comp.Name, comp.Weight),
			}
		}
		top += comp.Weight

		if len(comp.Variables) == 0 {
			return &InvalidWeightConfigurationError{
				Config: c.Name,
				Reason: fmt.Sprintf("component %q lists no variables", comp.Name),
			}
		}
		var intra float64
		for _, vw := range comp.Variables {
			if vw.Weight < 0 {
				return &InvalidWeightConfigurationError{
					Config: c.Name,
					Reason: fmt.Sprintf("variable %q in component %q has negative weight %v", vw.Variable, comp.Name, vw.Weight),
				}
			}
			intra += vw.Weight
		}
		if math.Abs(intra-1.0) > weightTolerance {
			return &InvalidWeightConfigurationError{
				Config: c.Name,
				Reason: fmt.Sprintf("component %q variable weights sum to %.4f, want 1.0", comp.Name, intra),
			}
		}
	}
	if math.Abs(top-1.0) > weightTolerance {
		return &InvalidWeightConfigurationError{
			Config: c.Name,
			Reason: fmt.Sprintf("component weights sum to %.4f, want 1.0", top),
		}
	}
	return nil
}

// withTopWeights copies the default component structure with different
// top-level weights, keyed by component name.
func withTopWeights(name string, weights map[string]float64) WeightConfig {
	cfg := DefaultWeightConfig()
	cfg.Name = name
	for i := range cfg.Components {
		cfg.Components[i].Weight = weights[cfg.Components[i].Name]
	}
	return cfg
}

// DefaultWeightConfig is the baseline weighting: transportation 30%,
// labor market 35%, licensing 20%, policy 15%.
func DefaultWeightConfig() WeightConfig {
	return WeightConfig{
		Name: "baseline",
		Components: []ComponentDefinition{
			{
				Name:   "transportation",
				Weight: 0.30,
				Variables: []VariableWeight{
					{Variable: VarPctNoVehicle, Weight: 0.25},
					{Variable: VarAvgCommuteTime, Weight: 0.25},
					{Variable: VarPctBroadband, Weight: 0.25},
					{Variable: VarPctTransitServed, Weight: 0.25},
				},
			},
			{
				Name:   "labor_market",
				Weight: 0.35,
				Variables: []VariableWeight{
					{Variable: VarUnemploymentRate, Weight: 0.40},
					{Variable: VarEmploymentGrowth, Weight: 0.25},
					{Variable: VarPovertyRate, Weight: 0.20},
					{Variable: VarJobsPerAdult, Weight: 0.15},
				},
			},
			{
				Name:   "licensing",
				Weight: 0.20,
				Variables: []VariableWeight{
					{Variable: VarLicensingBurden, Weight: 1.0},
				},
			},
			{
				Name:   "policy",
				Weight: 0.15,
				Variables: []VariableWeight{
					{Variable: VarBanTheBoxScore, Weight: 0.50},
					{Variable: VarFairChanceScore, Weight: 0.50},
				},
			},
		},
	}
}

// DefaultScenarios are the alternative weighting schemes used for
// sensitivity analysis, in the order they are reported.
func DefaultScenarios() []WeightConfig {
	return []WeightConfig{
		withTopWeights("equal", map[string]float64{
			"transportation": 0.25, "labor_market": 0.25, "licensing": 0.25, "policy": 0.25,
		}),
		withTopWeights("labor_focused", map[string]float64{
			"transportation": 0.20, "labor_market": 0.50, "licensing": 0.15, "policy": 0.15,
		}),
		withTopWeights("transport_focused", map[string]float64{
			"transportation": 0.50, "labor_market": 0.25, "licensing": 0.15, "policy": 0.10,
		}),
		withTopWeights("policy_focused", map[string]float64{
			"transportation": 0.25, "labor_market": 0.25, "licensing": 0.20, "policy": 0.30,
		}),
	}
}
