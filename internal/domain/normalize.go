package domain

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// NormalizationMeta describes how one variable was rescaled.
type NormalizationMeta struct {
	Polarity     Polarity `json:"polarity"`
	Min          float64  `json:"min"`
	Max          float64  `json:"max"`
	DefinedCount int      `json:"defined_count"`
	// Degenerate marks a variable with no variance across counties: every
	// defined value was mapped to the midpoint 50 and the variable carries
	// no ranking information.
	Degenerate bool `json:"degenerate"`
}

// NormalizedDataset holds the 0-100 rescaled counterpart of a MasterDataset
// plus per-variable normalization metadata. It is immutable once produced.
type NormalizedDataset struct {
	Variables []string
	Records   []CountyRecord
	Meta      map[string]NormalizationMeta
}

// Normalize min-max rescales every master variable to [0, 100] using the
// declared polarity: the best observed raw value maps to 100 and the worst
// to 0. Absent raw values remain absent. A variable whose defined values are
// all equal is degenerate; every county receives 50 and the metadata flags
// it so downstream consumers can detect a non-informative input.
//
// Min-max (rather than z-scores) keeps every variable in the same bounded,
// interpretable range the composite needs.
func Normalize(master MasterDataset, polarities map[string]Polarity) (NormalizedDataset, error) {
	nd := NormalizedDataset{
		Variables: append([]string(nil), master.Variables...),
		Records:   make([]CountyRecord, len(master.Records)),
		Meta:      make(map[string]NormalizationMeta, len(master.Variables)),
	}
	for i, rec := range master.Records {
		values := make(map[string]Value, len(master.Variables))
		for _, v := range master.Variables {
			values[v] = Value{}
		}
		nd.Records[i] = CountyRecord{FIPS: rec.FIPS, Name: rec.Name, Values: values}
	}

	for _, variable := range master.Variables {
		polarity, ok := polarities[variable]
		if !ok {
			return NormalizedDataset{}, fmt.Errorf("no polarity declared for variable %q", variable)
		}

		defined := make([]float64, 0, len(master.Records))
		for i := range master.Records {
			if v := master.Records[i].Values[variable]; v.Defined {
				defined = append(defined, v.Float)
			}
		}

		meta := NormalizationMeta{Polarity: polarity, DefinedCount: len(defined)}
		if len(defined) > 0 {
			meta.Min = floats.Min(defined)
			meta.Max = floats.Max(defined)
			meta.Degenerate = meta.Min == meta.Max
		}
		nd.Meta[variable] = meta

		if len(defined) == 0 {
			continue
		}
		for i := range master.Records {
			raw := master.Records[i].Values[variable]
			if !raw.Defined {
				continue
			}
			nd.Records[i].Values[variable] = Defined(rescale(raw.Float, meta))
		}
	}

	return nd, nil
}

// rescale maps one raw value to [0, 100] under the variable's metadata.
func rescale(raw float64, meta NormalizationMeta) float64 {
	if meta.Degenerate {
		return 50
	}
	scaled := 100 * (raw - meta.Min) / (meta.Max - meta.Min)
	if meta.Polarity == LowerIsBetter {
		return 100 - scaled
	}
	return scaled
}

// DegenerateVariables lists the flagged variables in schema order.
func (nd NormalizedDataset) DegenerateVariables() []string {
	var out []string
	for _, v := range nd.Variables {
		if nd.Meta[v].Degenerate {
			out = append(out, v)
		}
	}
	return out
}
