package domain

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ScoreSummary is descriptive statistics for the final score or one
// component sub-score across all counties that define it.
type ScoreSummary struct {
	Name     string  `json:"name"`
	Weight   float64 `json:"weight"`
	Counties int     `json:"counties"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// Summarize produces summary statistics for a result set: the REAI itself
// first (weight 1.0), then each component in configuration order.
func Summarize(rs ResultSet, cfg WeightConfig) []ScoreSummary {
	summaries := make([]ScoreSummary, 0, len(cfg.Components)+1)
	summaries = append(summaries, summarize("REAI", 1.0, rs.Results, func(r ReaiResult) Value {
		return r.REAI
	}))
	for _, comp := range cfg.Components {
		name := comp.Name
		summaries = append(summaries, summarize(name, comp.Weight, rs.Results, func(r ReaiResult) Value {
			return r.Component(name)
		}))
	}
	return summaries
}

func summarize(name string, weight float64, results []ReaiResult, pick func(ReaiResult) Value) ScoreSummary {
	values := make([]float64, 0, len(results))
	for _, r := range results {
		if v := pick(r); v.Defined {
			values = append(values, v.Float)
		}
	}
	s := ScoreSummary{Name: name, Weight: weight, Counties: len(values)}
	if len(values) == 0 {
		return s
	}
	s.Mean = stat.Mean(values, nil)
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	if len(values) > 1 {
		s.StdDev = stat.StdDev(values, nil)
	}
	return s
}
