package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/couchcryptid/reai-pipeline/internal/domain"
	"github.com/couchcryptid/reai-pipeline/internal/observability"
	"github.com/couchcryptid/reai-pipeline/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockLoader struct {
	sources []domain.SourceTable
	err     error
}

func (m *mockLoader) LoadSources(_ context.Context) ([]domain.SourceTable, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.sources, nil
}

type mockSink struct {
	name   string
	err    error
	writes []*pipeline.RunOutput
}

func (m *mockSink) Name() string { return m.name }

func (m *mockSink) WriteRun(_ context.Context, out *pipeline.RunOutput) error {
	if m.err != nil {
		return m.err
	}
	m.writes = append(m.writes, out)
	return nil
}

func newTestMetrics() *observability.Metrics {
	// Use unregistered collectors to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func testSources() []domain.SourceTable {
	vars := []string{domain.VarUnemploymentRate, domain.VarPovertyRate}
	rows := map[string]map[string]float64{}
	for i, c := range domain.Roster() {
		rows[c.FIPS] = map[string]float64{
			domain.VarUnemploymentRate: 3 + float64(i)*0.05,
			domain.VarPovertyRate:      10 + float64(i)*0.1,
		}
	}
	return []domain.SourceTable{{Name: "labor", Variables: vars, Rows: rows}}
}

func testConfig() domain.WeightConfig {
	return domain.WeightConfig{
		Name: "test",
		Components: []domain.ComponentDefinition{
			{Name: "labor", Weight: 1.0, Variables: []domain.VariableWeight{
				{Variable: domain.VarUnemploymentRate, Weight: 0.5},
				{Variable: domain.VarPovertyRate, Weight: 0.5},
			}},
		},
	}
}

func testPolarities() map[string]domain.Polarity {
	return map[string]domain.Polarity{
		domain.VarUnemploymentRate: domain.LowerIsBetter,
		domain.VarPovertyRate:      domain.LowerIsBetter,
	}
}

func newTestPipeline(loader pipeline.SourceLoader, sinks ...pipeline.ResultSink) *pipeline.Pipeline {
	return pipeline.New(loader, sinks, slog.Default(), newTestMetrics(),
		testConfig(), []domain.WeightConfig{testConfig()},
		domain.ExcludeMissing(), testPolarities())
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	sink := &mockSink{name: "mem"}
	p := newTestPipeline(&mockLoader{sources: testSources()}, sink)

	require.NoError(t, p.Run(context.Background()))
	require.Len(t, sink.writes, 1)

	out := sink.writes[0]
	assert.NotEmpty(t, out.RunID)
	assert.Len(t, out.Baseline.Results, domain.CountyCount)
	assert.Equal(t, 1, out.Baseline.Results[0].Rank)
	assert.Len(t, out.Sensitivity.Scenarios, 1)
	assert.NotEmpty(t, out.Summary)
	assert.False(t, out.FinishedAt.Before(out.StartedAt))
}

func TestPipeline_Run_SetsLatestAndReady(t *testing.T) {
	p := newTestPipeline(&mockLoader{sources: testSources()})

	require.Error(t, p.CheckReadiness(context.Background()))
	assert.Nil(t, p.Latest())

	require.NoError(t, p.Run(context.Background()))

	require.NoError(t, p.CheckReadiness(context.Background()))
	latest := p.Latest()
	require.NotNil(t, latest)
	assert.Len(t, latest.Baseline.Results, domain.CountyCount)
}

func TestPipeline_Run_LoaderFailure(t *testing.T) {
	sink := &mockSink{name: "mem"}
	p := newTestPipeline(&mockLoader{err: errors.New("disk gone")}, sink)

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load sources")
	assert.Empty(t, sink.writes)
	require.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_SinkFailureDoesNotBlockOthers(t *testing.T) {
	broken := &mockSink{name: "broken", err: errors.New("write failed")}
	working := &mockSink{name: "working"}
	p := newTestPipeline(&mockLoader{sources: testSources()}, broken, working)

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink broken")
	assert.Len(t, working.writes, 1)

	// The run itself still succeeded.
	require.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_InvalidBaselineFails(t *testing.T) {
	bad := testConfig()
	bad.Components[0].Weight = 0.5
	p := pipeline.New(&mockLoader{sources: testSources()}, nil, slog.Default(), newTestMetrics(),
		bad, nil, domain.ExcludeMissing(), testPolarities())

	err := p.Run(context.Background())
	var invalid *domain.InvalidWeightConfigurationError
	require.ErrorAs(t, err, &invalid)
}

func TestPipeline_Run_InvalidScenarioIsNotFatal(t *testing.T) {
	bad := testConfig()
	bad.Name = "broken_scenario"
	bad.Components[0].Weight = 0.5
	sink := &mockSink{name: "mem"}
	p := pipeline.New(&mockLoader{sources: testSources()}, []pipeline.ResultSink{sink},
		slog.Default(), newTestMetrics(),
		testConfig(), []domain.WeightConfig{bad}, domain.ExcludeMissing(), testPolarities())

	require.NoError(t, p.Run(context.Background()))
	require.Len(t, sink.writes, 1)

	out := sink.writes[0]
	assert.Empty(t, out.Sensitivity.Scenarios)
	require.Len(t, out.Sensitivity.Correlations, 1)
	assert.Equal(t, "broken_scenario", out.Sensitivity.Correlations[0].Config)
	assert.NotEmpty(t, out.Sensitivity.Correlations[0].Error)
}
