package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/reai-pipeline/internal/domain"
	"github.com/couchcryptid/reai-pipeline/internal/observability"
)

// SourceLoader reads every configured source table from wherever it lives.
type SourceLoader interface {
	LoadSources(ctx context.Context) ([]domain.SourceTable, error)
}

// ResultSink receives the output of one completed run. Sinks are independent:
// one sink failing does not stop delivery to the others.
type ResultSink interface {
	Name() string
	WriteRun(ctx context.Context, out *RunOutput) error
}

// RunOutput is everything one pipeline run produces, handed to each sink and
// retained for the HTTP API.
type RunOutput struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Master      domain.MasterDataset
	Report      domain.BuildReport
	Normalized  domain.NormalizedDataset
	Baseline    domain.ResultSet
	Sensitivity domain.SensitivityResult
	Summary     []domain.ScoreSummary
}

// Pipeline orchestrates the load-build-normalize-score-analyze sequence and
// fans the result out to the configured sinks.
type Pipeline struct {
	loader  SourceLoader
	sinks   []ResultSink
	logger  *slog.Logger
	metrics *observability.Metrics

	baseline   domain.WeightConfig
	scenarios  []domain.WeightConfig
	policy     domain.MissingPolicySet
	polarities map[string]domain.Polarity

	latest atomic.Pointer[RunOutput]
	ready  atomic.Bool
	runs   atomic.Int64
}

// New creates a Pipeline with the given loader, sinks, and observability.
func New(loader SourceLoader, sinks []ResultSink, logger *slog.Logger, metrics *observability.Metrics,
	baseline domain.WeightConfig, scenarios []domain.WeightConfig,
	policy domain.MissingPolicySet, polarities map[string]domain.Polarity) *Pipeline {
	return &Pipeline{
		loader:     loader,
		sinks:      sinks,
		logger:     logger,
		metrics:    metrics,
		baseline:   baseline,
		scenarios:  scenarios,
		policy:     policy,
		polarities: polarities,
	}
}

// CheckReadiness returns nil once at least one run has completed, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Latest returns the most recent run output, or nil before the first run.
func (p *Pipeline) Latest() *RunOutput {
	return p.latest.Load()
}

// Run executes one full pipeline pass. The run fails fast on structural
// errors (unreadable sources, duplicate variables, an invalid baseline);
// sink errors are joined and returned after every sink has been attempted.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	runID := fmt.Sprintf("run-%d-%d", domain.Now().UTC().Unix(), p.runs.Add(1))

	p.logger.Info("pipeline run started", "run_id", runID,
		"baseline", p.baseline.Name, "scenarios", len(p.scenarios))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	out, err := p.execute(ctx, runID)
	if err != nil {
		p.metrics.RunFailures.Inc()
		p.logger.Error("pipeline run failed", "run_id", runID, "error", err)
		return err
	}

	out.FinishedAt = domain.Now().UTC()
	p.latest.Store(out)
	p.ready.Store(true)

	p.metrics.RunsTotal.Inc()
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.metrics.LastRunUnixTS.Set(float64(out.FinishedAt.Unix()))

	sinkErr := p.deliver(ctx, out)

	p.logger.Info("pipeline run finished", "run_id", runID,
		"counties", len(out.Baseline.Results),
		"duration", time.Since(start).Round(time.Millisecond))
	return sinkErr
}

// execute runs the domain stages in order.
func (p *Pipeline) execute(ctx context.Context, runID string) (*RunOutput, error) {
	out := &RunOutput{RunID: runID, StartedAt: domain.Now().UTC()}

	sources, err := p.loader.LoadSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}
	p.logger.Info("sources loaded", "run_id", runID, "sources", len(sources))

	out.Master, out.Report, err = domain.BuildMasterDataset(sources, p.policy)
	if err != nil {
		return nil, fmt.Errorf("build master dataset: %w", err)
	}
	p.observeBuild(runID, out.Report)

	out.Normalized, err = domain.Normalize(out.Master, p.polarities)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	if degenerate := out.Normalized.DegenerateVariables(); len(degenerate) > 0 {
		p.logger.Warn("degenerate variables detected", "run_id", runID, "variables", degenerate)
		p.metrics.DegenerateVariables.Set(float64(len(degenerate)))
	} else {
		p.metrics.DegenerateVariables.Set(0)
	}

	out.Sensitivity, err = domain.Analyze(out.Normalized, p.baseline, p.scenarios)
	if err != nil {
		return nil, fmt.Errorf("sensitivity analysis: %w", err)
	}
	out.Baseline = out.Sensitivity.Baseline
	out.Summary = domain.Summarize(out.Baseline, p.baseline)

	scored := 0
	for _, r := range out.Baseline.Results {
		if r.REAI.Defined {
			scored++
		}
	}
	p.metrics.CountiesScored.Set(float64(scored))
	p.metrics.ConfigurationsScored.Add(float64(1 + len(out.Sensitivity.Scenarios)))

	for _, c := range out.Sensitivity.Correlations {
		if c.Error != "" {
			p.logger.Warn("scenario skipped", "run_id", runID, "config", c.Config, "error", c.Error)
			continue
		}
		p.logger.Info("scenario scored", "run_id", runID, "config", c.Config, "spearman", c.Spearman)
	}
	return out, nil
}

// observeBuild logs and counts the join-time anomalies from a build report.
func (p *Pipeline) observeBuild(runID string, report domain.BuildReport) {
	for _, m := range report.Mismatches {
		p.logger.Warn("source row excluded", "run_id", runID, "source", m.Source, "fips", m.FIPS)
	}
	p.metrics.SchemaMismatches.Add(float64(len(report.Mismatches)))

	var imputed int
	for _, n := range report.Imputed {
		imputed += n
	}
	if imputed > 0 {
		p.logger.Info("missing values imputed", "run_id", runID,
			"policy", report.Policy.Default.Kind, "count", imputed)
		p.metrics.ImputedValues.Add(float64(imputed))
	}
}

// deliver writes the run to every sink, joining failures so one broken sink
// never hides another's error or blocks its delivery.
func (p *Pipeline) deliver(ctx context.Context, out *RunOutput) error {
	var errs []error
	for _, sink := range p.sinks {
		if err := sink.WriteRun(ctx, out); err != nil {
			p.logger.Error("sink write failed", "run_id", out.RunID, "sink", sink.Name(), "error", err)
			errs = append(errs, fmt.Errorf("sink %s: %w", sink.Name(), err))
			continue
		}
		p.logger.Info("run delivered", "run_id", out.RunID, "sink", sink.Name())
	}
	return errors.Join(errs...)
}
