package domain

import (
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// ScenarioCorrelation is one alternative configuration's rank agreement with
// the baseline. Error is set when the configuration could not be scored
// (invalid weights); the rest of the batch is unaffected.
type ScenarioCorrelation struct {
	Config   string  `json:"config"`
	Spearman float64 `json:"spearman"`
	Error    string  `json:"error,omitempty"`
}

// CountyStability summarizes how much one county's rank moves across all
// configurations, baseline included. A low range means the county's position
// is robust to the weighting choice.
type CountyStability struct {
	FIPS         string `json:"fips"`
	County       string `json:"county"`
	BaselineRank int    `json:"baseline_rank"`
	MinRank      int    `json:"min_rank"`
	MaxRank      int    `json:"max_rank"`
	RankRange    int    `json:"rank_range"`
}

// SensitivityResult is the full sensitivity analysis: the baseline result
// set, the alternative result sets in input order, per-scenario rank
// correlations against the baseline, and per-county rank stability.
type SensitivityResult struct {
	Baseline     ResultSet             `json:"baseline"`
	Scenarios    []ResultSet           `json:"scenarios"`
	Correlations []ScenarioCorrelation `json:"correlations"`
	Counties     []CountyStability     `json:"counties"`
	GeneratedAt  time.Time             `json:"generated_at"`
}

// Analyze scores the normalized dataset under the baseline and each
// alternative configuration and assembles the sensitivity summary. Scenario
// scoring runs concurrently (each invocation reads the same immutable
// dataset) but the output preserves input order. An invalid scenario is
// recorded in Correlations and skipped; only an invalid baseline is fatal.
func Analyze(nd NormalizedDataset, baseline WeightConfig, scenarios []WeightConfig) (SensitivityResult, error) {
	base, err := Score(nd, baseline)
	if err != nil {
		return SensitivityResult{}, err
	}

	type outcome struct {
		rs  ResultSet
		err error
	}
	outcomes := make([]outcome, len(scenarios))

	var wg sync.WaitGroup
	for i, sc := range scenarios {
		wg.Add(1)
		go func(i int, sc WeightConfig) {
			defer wg.Done()
			rs, err := Score(nd, sc)
			outcomes[i] = outcome{rs: rs, err: err}
		}(i, sc)
	}
	wg.Wait()

	result := SensitivityResult{
		Baseline:     base,
		Correlations: make([]ScenarioCorrelation, len(scenarios)),
		GeneratedAt:  clock.Now().UTC(),
	}
	scored := []ResultSet{base}
	for i, sc := range scenarios {
		if outcomes[i].err != nil {
			result.Correlations[i] = ScenarioCorrelation{Config: sc.Name, Error: outcomes[i].err.Error()}
			continue
		}
		rs := outcomes[i].rs
		result.Scenarios = append(result.Scenarios, rs)
		scored = append(scored, rs)
		result.Correlations[i] = ScenarioCorrelation{
			Config:   sc.Name,
			Spearman: spearman(base, rs),
		}
	}
	result.Counties = stability(scored)
	return result, nil
}

// spearman computes the Spearman rank correlation between two result sets.
// Ranks are already deterministic integers (ties broken by FIPS), so this is
// the Pearson correlation of the aligned rank vectors.
func spearman(a, b ResultSet) float64 {
	rb := make(map[string]float64, len(b.Results))
	for _, r := range b.Results {
		rb[r.FIPS] = float64(r.Rank)
	}

	x := make([]float64, 0, len(a.Results))
	y := make([]float64, 0, len(a.Results))
	for _, r := range a.Results {
		other, ok := rb[r.FIPS]
		if !ok {
			continue
		}
		x = append(x, float64(r.Rank))
		y = append(y, other)
	}
	if len(x) < 2 {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// stability computes per-county min/max/range of rank over all scored
// configurations, returned in ascending FIPS order.
func stability(sets []ResultSet) []CountyStability {
	byFIPS := map[string]*CountyStability{}
	for si, rs := range sets {
		for _, r := range rs.Results {
			s, ok := byFIPS[r.FIPS]
			if !ok {
				s = &CountyStability{FIPS: r.FIPS, County: r.County, MinRank: r.Rank, MaxRank: r.Rank}
				byFIPS[r.FIPS] = s
			}
			if si == 0 {
				s.BaselineRank = r.Rank
			}
			if r.Rank < s.MinRank {
				s.MinRank = r.Rank
			}
			if r.Rank > s.MaxRank {
				s.MaxRank = r.Rank
			}
		}
	}

	out := make([]CountyStability, 0, len(byFIPS))
	for _, s := range byFIPS {
		s.RankRange = s.MaxRank - s.MinRank
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FIPS < out[j].FIPS })
	return out
}
