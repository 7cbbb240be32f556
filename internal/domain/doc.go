// Package domain implements the Reentry Employment Accessibility Index (REAI),
// a county-level composite index of structural employment accessibility for
// returning citizens.
//
// # Geography
//
// The unit of analysis is the county, identified by its 5-digit FIPS code
// (state prefix "37" for North Carolina plus a 3-digit county code). The
// roster of 100 NC counties is fixed and compiled in; it never grows or
// shrinks during a run, and every dataset is joined against it. A source row
// carrying a FIPS code outside the roster signals an upstream acquisition
// error and is excluded, never silently joined.
//
// # Variables
//
// Raw variables arrive from ten tabular sources, already mapped to canonical
// names by the loader. Each variable declares a polarity:
//
//	higher-is-better:  pct_broadband, pct_transit_served, employment_growth,
//	                   jobs_per_adult, ban_the_box_score, fair_chance_score
//	lower-is-better:   pct_no_vehicle, avg_commute_time, unemployment_rate,
//	                   poverty_rate, licensing_burden_index
//
// Absent values stay absent through the whole pipeline. Every record carries
// the full variable schema with an explicit Defined flag, so "missing" is
// always distinguishable from zero.
//
// # Index construction
//
// Each variable is min-max rescaled to 0-100 across the counties that define
// it, inverted for lower-is-better variables. A variable with no variance
// (max == min) maps every county to the midpoint 50 and is flagged as
// degenerate in the normalization metadata.
//
// Four weighted components aggregate the normalized variables:
// transportation (0.30), labor_market (0.35), licensing (0.20) and
// policy (0.15). Within a component, weights over a county's defined
// variables are renormalized to sum to 1.0, so a missing input degrades
// precision without disqualifying the county. A component with no defined
// variables is absent for that county and the remaining top-level weights
// are renormalized the same way. The final REAI score is therefore always
// in [0, 100] whenever at least one component is defined.
//
// Ranking sorts descending by final score, ties broken by ascending FIPS
// code. Scoring is fully deterministic: definitions are ordered slices,
// counties are processed in roster order, and no map iteration touches any
// accumulation path, so identical inputs produce identical results.
//
// # Sensitivity
//
// Because any fixed weighting is a policy choice, the analyzer rescores the
// same normalized dataset under alternative weight configurations and
// reports, per county, the rank range across all configurations and, per
// configuration, the Spearman correlation of its ranking against the
// baseline.
package domain
