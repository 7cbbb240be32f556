package domain

// Value is a raw or normalized observation that may be absent. The zero
// Value is absent; absence is carried explicitly so downstream consumers can
// always tell "missing" from zero.
type Value struct {
	Float   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

// Defined wraps a float in a defined Value.
func Defined(f float64) Value {
	return Value{Float: f, Defined: true}
}

// CountyRecord is one county's row: identity plus the full variable schema.
// Every record in a dataset carries the same set of variable keys; an absent
// observation is stored as the zero Value, never omitted.
type CountyRecord struct {
	FIPS   string           `json:"fips"`
	Name   string           `json:"name"`
	Values map[string]Value `json:"values"`
}

// SourceTable is one raw dataset as delivered by the loader: rows keyed by
// FIPS code, each row mapping the source's canonical variable names to
// values. A county missing from Rows, or a variable missing from a row,
// means the observation is absent.
type SourceTable struct {
	Name      string
	Variables []string
	Rows      map[string]map[string]float64
}

// MasterDataset is the full outer join of all source tables over the county
// roster: exactly one record per roster county, FIPS ascending, all records
// sharing the same variable schema.
type MasterDataset struct {
	Variables []string
	Records   []CountyRecord
}
