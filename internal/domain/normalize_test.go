package domain_test

import (
	"testing"

	"github.com/couchcryptid/reai-pipeline/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countyVals struct {
	fips string
	name string
	vals map[string]float64 // missing key = absent
}

func makeMaster(variables []string, rows []countyVals) domain.MasterDataset {
	master := domain.MasterDataset{Variables: variables}
	for _, row := range rows {
		values := make(map[string]domain.Value, len(variables))
		for _, v := range variables {
			if raw, ok := row.vals[v]; ok {
				values[v] = domain.Defined(raw)
			} else {
				values[v] = domain.Value{}
			}
		}
		master.Records = append(master.Records, domain.CountyRecord{
			FIPS: row.fips, Name: row.name, Values: values,
		})
	}
	return master
}

func TestNormalize_HigherIsBetter(t *testing.T) {
	master := makeMaster([]string{"pct_broadband"}, []countyVals{
		{fips: "37001", vals: map[string]float64{"pct_broadband": 70}},
		{fips: "37003", vals: map[string]float64{"pct_broadband": 85}},
		{fips: "37005", vals: map[string]float64{"pct_broadband": 95}},
	})

	nd, err := domain.Normalize(master, map[string]domain.Polarity{
		"pct_broadband": domain.HigherIsBetter,
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.0, nd.Records[0].Values["pct_broadband"].Float, 1e-12)
	assert.InDelta(t, 60.0, nd.Records[1].Values["pct_broadband"].Float, 1e-12)
	assert.InDelta(t, 100.0, nd.Records[2].Values["pct_broadband"].Float, 1e-12)

	meta := nd.Meta["pct_broadband"]
	assert.Equal(t, 70.0, meta.Min)
	assert.Equal(t, 95.0, meta.Max)
	assert.Equal(t, 3, meta.DefinedCount)
	assert.False(t, meta.Degenerate)
}

func TestNormalize_LowerIsBetter(t *testing.T) {
	master := makeMaster([]string{"unemployment_rate"}, []countyVals{
		{fips: "37001", vals: map[string]float64{"unemployment_rate": 3.0}},
		{fips: "37003", vals: map[string]float64{"unemployment_rate": 5.0}},
		{fips: "37005", vals: map[string]float64{"unemployment_rate": 7.0}},
	})

	nd, err := domain.Normalize(master, map[string]domain.Polarity{
		"unemployment_rate": domain.LowerIsBetter,
	})
	require.NoError(t, err)

	// Lowest unemployment is best: min maps to 100, max to 0.
	assert.InDelta(t, 100.0, nd.Records[0].Values["unemployment_rate"].Float, 1e-12)
	assert.InDelta(t, 50.0, nd.Records[1].Values["unemployment_rate"].Float, 1e-12)
	assert.InDelta(t, 0.0, nd.Records[2].Values["unemployment_rate"].Float, 1e-12)
}

func TestNormalize_BoundsHold(t *testing.T) {
	master := makeMaster([]string{"v"}, []countyVals{
		{fips: "37001", vals: map[string]float64{"v": -12.5}},
		{fips: "37003", vals: map[string]float64{"v": 0}},
		{fips: "37005", vals: map[string]float64{"v": 3.33}},
		{fips: "37007", vals: map[string]float64{"v": 981.2}},
	})

	nd, err := domain.Normalize(master, map[string]domain.Polarity{"v": domain.HigherIsBetter})
	require.NoError(t, err)

	for _, rec := range nd.Records {
		v := rec.Values["v"]
		require.True(t, v.Defined)
		assert.GreaterOrEqual(t, v.Float, 0.0)
		assert.LessOrEqual(t, v.Float, 100.0)
	}
}

func TestNormalize_DegenerateVariable(t *testing.T) {
	master := makeMaster([]string{"licensing_burden_index"}, []countyVals{
		{fips: "37001", vals: map[string]float64{"licensing_burden_index": 65}},
		{fips: "37003", vals: map[string]float64{"licensing_burden_index": 65}},
		{fips: "37005", vals: map[string]float64{"licensing_burden_index": 65}},
	})

	nd, err := domain.Normalize(master, map[string]domain.Polarity{
		"licensing_burden_index": domain.LowerIsBetter,
	})
	require.NoError(t, err)

	for _, rec := range nd.Records {
		assert.Equal(t, domain.Defined(50), rec.Values["licensing_burden_index"])
	}
	assert.True(t, nd.Meta["licensing_burden_index"].Degenerate)
	assert.Equal(t, []string{"licensing_burden_index"}, nd.DegenerateVariables())
}

func TestNormalize_AbsentStaysAbsent(t *testing.T) {
	master := makeMaster([]string{"poverty_rate"}, []countyVals{
		{fips: "37001", vals: map[string]float64{"poverty_rate": 10}},
		{fips: "37003", vals: map[string]float64{}},
		{fips: "37005", vals: map[string]float64{"poverty_rate": 20}},
	})

	nd, err := domain.Normalize(master, map[string]domain.Polarity{
		"poverty_rate": domain.LowerIsBetter,
	})
	require.NoError(t, err)

	assert.False(t, nd.Records[1].Values["poverty_rate"].Defined)
	assert.Equal(t, 2, nd.Meta["poverty_rate"].DefinedCount)
}

func TestNormalize_MissingPolarityFails(t *testing.T) {
	master := makeMaster([]string{"mystery"}, []countyVals{
		{fips: "37001", vals: map[string]float64{"mystery": 1}},
	})

	_, err := domain.Normalize(master, map[string]domain.Polarity{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery")
}
