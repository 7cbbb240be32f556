// Package sqlite persists run results so past index runs stay queryable and
// reproducible after the process restarts.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/reai-pipeline/internal/pipeline"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	config      TEXT NOT NULL,
	counties    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS scores (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	fips   TEXT NOT NULL,
	county TEXT NOT NULL,
	reai   REAL,
	rank   INTEGER NOT NULL,
	PRIMARY KEY (run_id, fips)
);

CREATE TABLE IF NOT EXISTS component_scores (
	run_id    TEXT NOT NULL REFERENCES runs(run_id),
	fips      TEXT NOT NULL,
	component TEXT NOT NULL,
	score     REAL,
	PRIMARY KEY (run_id, fips, component)
);

CREATE TABLE IF NOT EXISTS correlations (
	run_id   TEXT NOT NULL REFERENCES runs(run_id),
	config   TEXT NOT NULL,
	spearman REAL,
	error    TEXT,
	PRIMARY KEY (run_id, config)
);

CREATE TABLE IF NOT EXISTS stability (
	run_id        TEXT NOT NULL REFERENCES runs(run_id),
	fips          TEXT NOT NULL,
	county        TEXT NOT NULL,
	baseline_rank INTEGER NOT NULL,
	min_rank      INTEGER NOT NULL,
	max_rank      INTEGER NOT NULL,
	rank_range    INTEGER NOT NULL,
	PRIMARY KEY (run_id, fips)
);
`

// Store is a pipeline.ResultSink backed by a local SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite serializes writes; one connection avoids lock contention.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Name identifies the sink in logs.
func (s *Store) Name() string { return "sqlite" }

// WriteRun persists one run in a single transaction.
func (s *Store) WriteRun(ctx context.Context, out *pipeline.RunOutput) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertRun(ctx, tx, out); err != nil {
		return err
	}
	if err := insertScores(ctx, tx, out); err != nil {
		return err
	}
	if err := insertSensitivity(ctx, tx, out); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Info("run persisted", "run_id", out.RunID, "counties", len(out.Baseline.Results))
	return nil
}

func insertRun(ctx context.Context, tx *sql.Tx, out *pipeline.RunOutput) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, config, counties) VALUES (?, ?, ?, ?, ?)`,
		out.RunID,
		out.StartedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		out.FinishedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		out.Baseline.Config,
		len(out.Baseline.Results),
	)
	return err
}

func insertScores(ctx context.Context, tx *sql.Tx, out *pipeline.RunOutput) error {
	scoreStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO scores (run_id, fips, county, reai, rank) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer scoreStmt.Close()

	compStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO component_scores (run_id, fips, component, score) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer compStmt.Close()

	for _, r := range out.Baseline.Results {
		var reai any
		if r.REAI.Defined {
			reai = r.REAI.Float
		}
		if _, err := scoreStmt.ExecContext(ctx, out.RunID, r.FIPS, r.County, reai, r.Rank); err != nil {
			return fmt.Errorf("insert score %s: %w", r.FIPS, err)
		}
		for _, c := range r.Components {
			var score any
			if c.Score.Defined {
				score = c.Score.Float
			}
			if _, err := compStmt.ExecContext(ctx, out.RunID, r.FIPS, c.Name, score); err != nil {
				return fmt.Errorf("insert component %s/%s: %w", r.FIPS, c.Name, err)
			}
		}
	}
	return nil
}

func insertSensitivity(ctx context.Context, tx *sql.Tx, out *pipeline.RunOutput) error {
	for _, c := range out.Sensitivity.Correlations {
		var spearman any
		if c.Error == "" {
			spearman = c.Spearman
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO correlations (run_id, config, spearman, error) VALUES (?, ?, ?, ?)`,
			out.RunID, c.Config, spearman, c.Error); err != nil {
			return fmt.Errorf("insert correlation %s: %w", c.Config, err)
		}
	}
	for _, s := range out.Sensitivity.Counties {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stability (run_id, fips, county, baseline_rank, min_rank, max_rank, rank_range)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			out.RunID, s.FIPS, s.County, s.BaselineRank, s.MinRank, s.MaxRank, s.RankRange); err != nil {
			return fmt.Errorf("insert stability %s: %w", s.FIPS, err)
		}
	}
	return nil
}

// RunCount reports how many runs are stored, for readiness and tooling.
func (s *Store) RunCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n)
	return n, err
}
