package domain

import (
	"fmt"
	"sort"
)

// MissingPolicyKind selects how an absent observation is handled at build time.
type MissingPolicyKind string

const (
	// MissingExclude propagates absence: the county is excluded from any
	// computation involving the variable.
	MissingExclude MissingPolicyKind = "exclude"
	// MissingImputeMean fills absences with the state mean of the variable,
	// computed over the counties that define it.
	MissingImputeMean MissingPolicyKind = "impute_mean"
	// MissingImputeValue fills absences with a configured constant.
	MissingImputeValue MissingPolicyKind = "impute_value"
)

// MissingPolicy is the handling rule for one variable's absent observations.
type MissingPolicy struct {
	Kind  MissingPolicyKind `json:"kind"`
	Value float64           `json:"value,omitempty"` // constant for MissingImputeValue
}

// MissingPolicySet resolves a missing policy per variable, falling back to
// Default for variables without an explicit entry.
type MissingPolicySet struct {
	Default     MissingPolicy            `json:"default"`
	PerVariable map[string]MissingPolicy `json:"per_variable,omitempty"`
}

// For returns the policy in effect for a variable.
func (s MissingPolicySet) For(variable string) MissingPolicy {
	if p, ok := s.PerVariable[variable]; ok {
		return p
	}
	return s.Default
}

// ExcludeMissing is the default policy set: propagate absence everywhere.
func ExcludeMissing() MissingPolicySet {
	return MissingPolicySet{Default: MissingPolicy{Kind: MissingExclude}}
}

// BuildReport captures everything about a build that downstream consumers
// need for reproducibility: the policy that was applied, the excluded rows,
// and per-variable imputation and residual-missing counts.
type BuildReport struct {
	Policy     MissingPolicySet `json:"policy"`
	Mismatches []SchemaMismatch `json:"mismatches,omitempty"`
	Imputed    map[string]int   `json:"imputed,omitempty"`
	Missing    map[string]int   `json:"missing,omitempty"`
}

// BuildMasterDataset joins all source tables on the county FIPS code into one
// schema-consistent MasterDataset. The join is a full outer join over the
// fixed roster: a source missing a county yields absent values for that
// county rather than dropping the county, and a source row with an unknown
// FIPS code is excluded and reported in the BuildReport. The missing policy
// is applied per variable after the join and recorded in the report.
//
// Fails only on structural errors: two sources declaring the same variable,
// or an impute_mean policy for a variable no county defines.
func BuildMasterDataset(sources []SourceTable, policy MissingPolicySet) (MasterDataset, BuildReport, error) {
	report := BuildReport{
		Policy:  policy,
		Imputed: map[string]int{},
		Missing: map[string]int{},
	}

	variables, err := collectSchema(sources)
	if err != nil {
		return MasterDataset{}, BuildReport{}, err
	}

	roster := Roster()
	records := make([]CountyRecord, len(roster))
	for i, c := range roster {
		values := make(map[string]Value, len(variables))
		for _, v := range variables {
			values[v] = Value{}
		}
		records[i] = CountyRecord{FIPS: c.FIPS, Name: c.Name, Values: values}
	}
	index := make(map[string]int, len(records))
	for i, rec := range records {
		index[rec.FIPS] = i
	}

	for _, src := range sources {
		// Iterate rows in sorted FIPS order so mismatch reporting is stable.
		fipsCodes := make([]string, 0, len(src.Rows))
		for fips := range src.Rows {
			fipsCodes = append(fipsCodes, fips)
		}
		sort.Strings(fipsCodes)

		for _, fips := range fipsCodes {
			i, ok := index[fips]
			if !ok {
				report.Mismatches = append(report.Mismatches, SchemaMismatch{Source: src.Name, FIPS: fips})
				continue
			}
			row := src.Rows[fips]
			for _, v := range src.Variables {
				if raw, ok := row[v]; ok {
					records[i].Values[v] = Defined(raw)
				}
			}
		}
	}

	master := MasterDataset{Variables: variables, Records: records}
	if err := applyMissingPolicy(&master, policy, &report); err != nil {
		return MasterDataset{}, BuildReport{}, err
	}
	return master, report, nil
}

// collectSchema gathers the union of source variables, rejecting duplicates,
// and returns them sorted.
func collectSchema(sources []SourceTable) ([]string, error) {
	seen := map[string]string{}
	var variables []string
	for _, src := range sources {
		for _, v := range src.Variables {
			if prev, dup := seen[v]; dup {
				return nil, fmt.Errorf("variable %q provided by both %q and %q", v, prev, src.Name)
			}
			seen[v] = src.Name
			variables = append(variables, v)
		}
	}
	sort.Strings(variables)
	return variables, nil
}

// applyMissingPolicy fills or preserves absences per variable according to
// the policy set, recording imputation and residual-missing counts.
func applyMissingPolicy(master *MasterDataset, policy MissingPolicySet, report *BuildReport) error {
	for _, variable := range master.Variables {
		p := policy.For(variable)

		var fill Value
		switch p.Kind {
		case MissingExclude:
			// leave absent
		case MissingImputeValue:
			fill = Defined(p.Value)
		case MissingImputeMean:
			mean, ok := stateMean(master.Records, variable)
			if !ok {
				return fmt.Errorf("impute_mean for %q: no county defines it", variable)
			}
			fill = Defined(mean)
		default:
			return fmt.Errorf("unknown missing policy %q for %q", p.Kind, variable)
		}

		for i := range master.Records {
			if master.Records[i].Values[variable].Defined {
				continue
			}
			if fill.Defined {
				master.Records[i].Values[variable] = fill
				report.Imputed[variable]++
			} else {
				report.Missing[variable]++
			}
		}
	}
	return nil
}

// stateMean averages a variable over the counties that define it, iterating
// records in roster order for deterministic accumulation.
func stateMean(records []CountyRecord, variable string) (float64, bool) {
	var sum float64
	var n int
	for i := range records {
		if v := records[i].Values[variable]; v.Defined {
			sum += v.Float
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
