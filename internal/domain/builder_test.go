package domain_test

import (
	"testing"

	"github.com/couchcryptid/reai-pipeline/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sourceTable(name, variable string, rows map[string]float64) domain.SourceTable {
	t := domain.SourceTable{
		Name:      name,
		Variables: []string{variable},
		Rows:      map[string]map[string]float64{},
	}
	for fips, v := range rows {
		t.Rows[fips] = map[string]float64{variable: v}
	}
	return t
}

func TestBuildMasterDataset_FullOuterJoin(t *testing.T) {
	sources := []domain.SourceTable{
		sourceTable("unemployment", "unemployment_rate", map[string]float64{
			"37001": 4.2,
			"37003": 5.1,
		}),
		// poverty covers a county unemployment does not, and vice versa.
		sourceTable("poverty", "poverty_rate", map[string]float64{
			"37001": 14.0,
			"37005": 19.5,
		}),
	}

	master, report, err := domain.BuildMasterDataset(sources, domain.ExcludeMissing())
	require.NoError(t, err)

	assert.Len(t, master.Records, domain.CountyCount)
	assert.Equal(t, []string{"poverty_rate", "unemployment_rate"}, master.Variables)
	assert.Empty(t, report.Mismatches)

	byFIPS := map[string]domain.CountyRecord{}
	for _, rec := range master.Records {
		byFIPS[rec.FIPS] = rec
	}

	assert.Equal(t, domain.Defined(4.2), byFIPS["37001"].Values["unemployment_rate"])
	assert.Equal(t, domain.Defined(14.0), byFIPS["37001"].Values["poverty_rate"])

	// 37005 is missing from unemployment but must not be dropped.
	assert.False(t, byFIPS["37005"].Values["unemployment_rate"].Defined)
	assert.Equal(t, domain.Defined(19.5), byFIPS["37005"].Values["poverty_rate"])
}

func TestBuildMasterDataset_SchemaConsistent(t *testing.T) {
	sources := []domain.SourceTable{
		sourceTable("unemployment", "unemployment_rate", map[string]float64{"37001": 4.2}),
	}

	master, _, err := domain.BuildMasterDataset(sources, domain.ExcludeMissing())
	require.NoError(t, err)

	for _, rec := range master.Records {
		require.Len(t, rec.Values, len(master.Variables), "county %s", rec.FIPS)
		for _, v := range master.Variables {
			_, ok := rec.Values[v]
			require.True(t, ok, "county %s missing schema key %s", rec.FIPS, v)
		}
	}
}

func TestBuildMasterDataset_UnknownFIPSExcluded(t *testing.T) {
	sources := []domain.SourceTable{
		sourceTable("unemployment", "unemployment_rate", map[string]float64{
			"37001": 4.2,
			"99999": 9.9, // not in the roster
		}),
	}

	master, report, err := domain.BuildMasterDataset(sources, domain.ExcludeMissing())
	require.NoError(t, err)

	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, domain.SchemaMismatch{Source: "unemployment", FIPS: "99999"}, report.Mismatches[0])
	assert.Len(t, master.Records, domain.CountyCount)
	for _, rec := range master.Records {
		assert.NotEqual(t, "99999", rec.FIPS)
	}
}

func TestBuildMasterDataset_DuplicateVariable(t *testing.T) {
	sources := []domain.SourceTable{
		sourceTable("a", "unemployment_rate", map[string]float64{"37001": 4.2}),
		sourceTable("b", "unemployment_rate", map[string]float64{"37003": 5.0}),
	}

	_, _, err := domain.BuildMasterDataset(sources, domain.ExcludeMissing())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unemployment_rate")
}

func TestBuildMasterDataset_ExcludePolicyKeepsAbsence(t *testing.T) {
	sources := []domain.SourceTable{
		sourceTable("unemployment", "unemployment_rate", map[string]float64{"37001": 4.0}),
	}

	master, report, err := domain.BuildMasterDataset(sources, domain.ExcludeMissing())
	require.NoError(t, err)

	assert.Equal(t, domain.CountyCount-1, report.Missing["unemployment_rate"])
	assert.Empty(t, report.Imputed)

	var absent int
	for _, rec := range master.Records {
		if !rec.Values["unemployment_rate"].Defined {
			absent++
		}
	}
	assert.Equal(t, domain.CountyCount-1, absent)
}

func TestBuildMasterDataset_ImputeMean(t *testing.T) {
	sources := []domain.SourceTable{
		sourceTable("unemployment", "unemployment_rate", map[string]float64{
			"37001": 4.0,
			"37003": 8.0,
		}),
	}
	policy := domain.MissingPolicySet{Default: domain.MissingPolicy{Kind: domain.MissingImputeMean}}

	master, report, err := domain.BuildMasterDataset(sources, policy)
	require.NoError(t, err)

	assert.Equal(t, domain.CountyCount-2, report.Imputed["unemployment_rate"])
	assert.Empty(t, report.Missing)
	assert.Equal(t, policy, report.Policy)

	for _, rec := range master.Records {
		v := rec.Values["unemployment_rate"]
		require.True(t, v.Defined, "county %s", rec.FIPS)
		switch rec.FIPS {
		case "37001":
			assert.InDelta(t, 4.0, v.Float, 1e-12)
		case "37003":
			assert.InDelta(t, 8.0, v.Float, 1e-12)
		default:
			assert.InDelta(t, 6.0, v.Float, 1e-12)
		}
	}
}

func TestBuildMasterDataset_ImputeConstant(t *testing.T) {
	sources := []domain.SourceTable{
		sourceTable("policy", "ban_the_box_score", map[string]float64{"37001": 75}),
	}
	policy := domain.MissingPolicySet{
		Default: domain.MissingPolicy{Kind: domain.MissingExclude},
		PerVariable: map[string]domain.MissingPolicy{
			"ban_the_box_score": {Kind: domain.MissingImputeValue, Value: 50},
		},
	}

	master, report, err := domain.BuildMasterDataset(sources, policy)
	require.NoError(t, err)
	assert.Equal(t, domain.CountyCount-1, report.Imputed["ban_the_box_score"])

	for _, rec := range master.Records {
		if rec.FIPS == "37001" {
			continue
		}
		assert.Equal(t, domain.Defined(50), rec.Values["ban_the_box_score"])
	}
}

func TestBuildMasterDataset_ImputeMeanWithoutData(t *testing.T) {
	src := domain.SourceTable{
		Name:      "empty",
		Variables: []string{"unemployment_rate"},
		Rows:      map[string]map[string]float64{},
	}
	policy := domain.MissingPolicySet{Default: domain.MissingPolicy{Kind: domain.MissingImputeMean}}

	_, _, err := domain.BuildMasterDataset([]domain.SourceTable{src}, policy)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "impute_mean")
}
