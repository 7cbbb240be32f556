package domain

import (
	"encoding/json"
	"fmt"
	"os"
)

// weightFile is the on-disk shape of a weights override file.
type weightFile struct {
	Baseline  *WeightConfig  `json:"baseline"`
	Scenarios []WeightConfig `json:"scenarios"`
}

// LoadWeightFile reads a JSON weights file and returns the baseline
// configuration and the ordered sensitivity scenarios. Missing sections fall
// back to the defaults. Every configuration is validated before it is
// returned so a bad file fails at startup, not mid-run.
func LoadWeightFile(path string) (WeightConfig, []WeightConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return WeightConfig{}, nil, fmt.Errorf("read weights file: %w", err)
	}

	var wf weightFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return WeightConfig{}, nil, fmt.Errorf("parse weights file %s: %w", path, err)
	}

	baseline := DefaultWeightConfig()
	if wf.Baseline != nil {
		baseline = *wf.Baseline
	}
	scenarios := wf.Scenarios
	if scenarios == nil {
		scenarios = DefaultScenarios()
	}

	if err := baseline.Validate(); err != nil {
		return WeightConfig{}, nil, fmt.Errorf("weights file %s: %w", path, err)
	}
	for _, sc := range scenarios {
		if err := sc.Validate(); err != nil {
			return WeightConfig{}, nil, fmt.Errorf("weights file %s: %w", path, err)
		}
	}
	return baseline, scenarios, nil
}
