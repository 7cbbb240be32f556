package domain

// Polarity declares how a raw variable relates to accessibility.
type Polarity string

const (
	// HigherIsBetter maps the maximum raw value to 100.
	HigherIsBetter Polarity = "higher_is_better"
	// LowerIsBetter maps the minimum raw value to 100.
	LowerIsBetter Polarity = "lower_is_better"
)

// Canonical raw variable names produced by the loader.
const (
	VarPctNoVehicle      = "pct_no_vehicle"
	VarAvgCommuteTime    = "avg_commute_time"
	VarPctBroadband      = "pct_broadband"
	VarPctTransitServed  = "pct_transit_served"
	VarUnemploymentRate  = "unemployment_rate"
	VarEmploymentGrowth  = "employment_growth"
	VarPovertyRate       = "poverty_rate"
	VarJobsPerAdult      = "jobs_per_adult"
	VarLicensingBurden   = "licensing_burden_index"
	VarBanTheBoxScore    = "ban_the_box_score"
	VarFairChanceScore   = "fair_chance_score"
)

// DefaultPolarities is the polarity lookup table for all canonical variables.
// The normalizer takes polarities as a parameter; this is the default set
// matching the canonical sources.
func DefaultPolarities() map[string]Polarity {
	return map[string]Polarity{
		VarPctNoVehicle:     LowerIsBetter,
		VarAvgCommuteTime:   LowerIsBetter,
		VarPctBroadband:     HigherIsBetter,
		VarPctTransitServed: HigherIsBetter,
		VarUnemploymentRate: LowerIsBetter,
		VarEmploymentGrowth: HigherIsBetter,
		VarPovertyRate:      LowerIsBetter,
		VarJobsPerAdult:     HigherIsBetter,
		VarLicensingBurden:  LowerIsBetter,
		VarBanTheBoxScore:   HigherIsBetter,
		VarFairChanceScore:  HigherIsBetter,
	}
}
