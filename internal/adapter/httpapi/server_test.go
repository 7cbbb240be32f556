package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/couchcryptid/reai-pipeline/internal/adapter/httpapi"
	"github.com/couchcryptid/reai-pipeline/internal/domain"
	"github.com/couchcryptid/reai-pipeline/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	out *pipeline.RunOutput
}

func (f *fakeProvider) Latest() *pipeline.RunOutput { return f.out }

func (f *fakeProvider) CheckReadiness(_ context.Context) error {
	if f.out == nil {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

func completedRun() *pipeline.RunOutput {
	baseline := domain.ResultSet{
		Config: "baseline",
		Results: []domain.ReaiResult{
			{FIPS: "37183", County: "Wake", Rank: 1, REAI: domain.Defined(81.25)},
			{FIPS: "37001", County: "Alamance", Rank: 2, REAI: domain.Defined(60.5)},
		},
	}
	return &pipeline.RunOutput{
		RunID:    "run-1",
		Baseline: baseline,
		Sensitivity: domain.SensitivityResult{
			Baseline: baseline,
			Correlations: []domain.ScenarioCorrelation{
				{Config: "equal", Spearman: 0.98},
			},
			Counties: []domain.CountyStability{
				{FIPS: "37001", County: "Alamance", BaselineRank: 2, MinRank: 1, MaxRank: 2, RankRange: 1},
			},
		},
		Summary: []domain.ScoreSummary{
			{Name: "REAI", Weight: 1.0, Counties: 2, Mean: 70.875},
		},
	}
}

func doRequest(t *testing.T, srv *httpapi.Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	srv := httpapi.NewServer(":0", &fakeProvider{}, slog.Default())
	rec := doRequest(t, srv, http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}

func TestReadyz_BeforeFirstRun(t *testing.T) {
	srv := httpapi.NewServer(":0", &fakeProvider{}, slog.Default())
	rec := doRequest(t, srv, http.MethodGet, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not ready", decode(t, rec)["status"])
}

func TestReadyz_AfterRun(t *testing.T) {
	srv := httpapi.NewServer(":0", &fakeProvider{out: completedRun()}, slog.Default())
	rec := doRequest(t, srv, http.MethodGet, "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := httpapi.NewServer(":0", &fakeProvider{}, slog.Default())
	rec := doRequest(t, srv, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRankings_BeforeFirstRun(t *testing.T) {
	srv := httpapi.NewServer(":0", &fakeProvider{}, slog.Default())
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/rankings")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "no completed run")
}

func TestRankings(t *testing.T) {
	srv := httpapi.NewServer(":0", &fakeProvider{out: completedRun()}, slog.Default())
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/rankings")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "run-1", body["run_id"])
	assert.Equal(t, "baseline", body["config"])
	results := body["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	assert.Equal(t, "37183", first["fips"])
	assert.Equal(t, float64(1), first["rank"])
}

func TestRanking_ByFIPS(t *testing.T) {
	srv := httpapi.NewServer(":0", &fakeProvider{out: completedRun()}, slog.Default())
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/rankings/37001")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Alamance", body["county"])
	assert.Equal(t, float64(2), body["rank"])
}

func TestRanking_UnknownFIPS(t *testing.T) {
	srv := httpapi.NewServer(":0", &fakeProvider{out: completedRun()}, slog.Default())
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/rankings/37999")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "37999")
}

func TestSensitivity(t *testing.T) {
	srv := httpapi.NewServer(":0", &fakeProvider{out: completedRun()}, slog.Default())
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/sensitivity")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	correlations := body["correlations"].([]any)
	require.Len(t, correlations, 1)
	assert.Equal(t, "equal", correlations[0].(map[string]any)["config"])
}

func TestSummary(t *testing.T) {
	srv := httpapi.NewServer(":0", &fakeProvider{out: completedRun()}, slog.Default())
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/summary")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	summary := body["summary"].([]any)
	require.Len(t, summary, 1)
	assert.Equal(t, "REAI", summary[0].(map[string]any)["name"])

	// Always an array, even with no degenerate variables.
	assert.NotNil(t, body["degenerate"])
}
