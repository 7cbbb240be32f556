package domain

import (
	"sort"
	"time"
)

// ComponentScore is one component's 0-100 sub-score for a county. Absent
// when the county defines none of the component's variables.
type ComponentScore struct {
	Name  string `json:"name"`
	Score Value  `json:"score"`
}

// ReaiResult is one county's scored row: component sub-scores, final REAI
// score and rank. Immutable once produced.
type ReaiResult struct {
	FIPS       string           `json:"fips"`
	County     string           `json:"county"`
	Components []ComponentScore `json:"components"`
	REAI       Value            `json:"reai"`
	Rank       int              `json:"rank"`
}

// Component returns the named sub-score, absent if the configuration has no
// such component.
func (r ReaiResult) Component(name string) Value {
	for _, c := range r.Components {
		if c.Name == name {
			return c.Score
		}
	}
	return Value{}
}

// ResultSet holds every county's ReaiResult under one weight configuration,
// in ranked order (rank 1 first, ties broken by ascending FIPS).
type ResultSet struct {
	Config      string       `json:"config"`
	Results     []ReaiResult `json:"results"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// Score aggregates a normalized dataset into a ReaiResult set under the
// given weight configuration.
//
// Per county and component, the sub-score is the weighted average of the
// component's defined variables with the remaining intra-component weights
// renormalized to sum to 1.0. A component with no defined variables is
// absent, and the final score renormalizes the top-level weights over the
// components the county does have; it is absent only when every component
// is. Counties without a final score sort after all scored counties.
//
// Scoring is deterministic: identical inputs and weights yield identical
// results.
func Score(nd NormalizedDataset, cfg WeightConfig) (ResultSet, error) {
	if err := cfg.Validate(); err != nil {
		return ResultSet{}, err
	}

	results := make([]ReaiResult, len(nd.Records))
	for i := range nd.Records {
		results[i] = scoreCounty(&nd.Records[i], cfg)
	}
	rank(results)

	return ResultSet{
		Config:      cfg.Name,
		Results:     results,
		GeneratedAt: clock.Now().UTC(),
	}, nil
}

// scoreCounty computes one county's sub-scores and final score.
func scoreCounty(rec *CountyRecord, cfg WeightConfig) ReaiResult {
	result := ReaiResult{
		FIPS:       rec.FIPS,
		County:     rec.Name,
		Components: make([]ComponentScore, len(cfg.Components)),
	}

	var finalSum, finalWeight float64
	for i, comp := range cfg.Components {
		sub := componentScore(rec, comp)
		result.Components[i] = ComponentScore{Name: comp.Name, Score: sub}
		if sub.Defined {
			finalSum += comp.Weight * sub.Float
			finalWeight += comp.Weight
		}
	}
	if finalWeight > 0 {
		result.REAI = Defined(finalSum / finalWeight)
	}
	return result
}

// componentScore is the weighted average over the component's defined
// variables, with weights renormalized over what is present.
func componentScore(rec *CountyRecord, comp ComponentDefinition) Value {
	var sum, weight float64
	for _, vw := range comp.Variables {
		v := rec.Values[vw.Variable]
		if !v.Defined {
			continue
		}
		sum += vw.Weight * v.Float
		weight += vw.Weight
	}
	if weight == 0 {
		return Value{}
	}
	return Defined(sum / weight)
}

// rank orders results descending by final score (unscored counties last),
// ties broken by ascending FIPS, and assigns ranks 1..n in that order.
func rank(results []ReaiResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		switch {
		case a.REAI.Defined != b.REAI.Defined:
			return a.REAI.Defined
		case a.REAI.Defined && a.REAI.Float != b.REAI.Float:
			return a.REAI.Float > b.REAI.Float
		default:
			return a.FIPS < b.FIPS
		}
	})
	for i := range results {
		results[i].Rank = i + 1
	}
}
