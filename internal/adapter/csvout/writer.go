// Package csvout writes the ranking and sensitivity CSV artifacts consumed
// by external reporting tools. Column names are a contract; changing them
// breaks downstream consumers.
package csvout

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/reai-pipeline/internal/domain"
	"github.com/couchcryptid/reai-pipeline/internal/pipeline"
)

const (
	rankingsFile    = "reai_rankings.csv"
	sensitivityFile = "reai_sensitivity.csv"
)

// Writer is a pipeline.ResultSink that writes CSV artifacts to a directory.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates a Writer targeting the given output directory.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// Name identifies the sink in logs.
func (w *Writer) Name() string { return "csv" }

// WriteRun writes both artifacts for one run. Files are replaced atomically
// per file: a partially written artifact never lands under its final name.
func (w *Writer) WriteRun(_ context.Context, out *pipeline.RunOutput) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	if err := w.writeRankings(out); err != nil {
		return fmt.Errorf("%s: %w", rankingsFile, err)
	}
	if err := w.writeSensitivity(out); err != nil {
		return fmt.Errorf("%s: %w", sensitivityFile, err)
	}
	w.logger.Info("csv artifacts written", "run_id", out.RunID, "dir", w.dir)
	return nil
}

// writeRankings emits one row per county in ranked order:
// fips, county, <component>_score..., reai, rank.
func (w *Writer) writeRankings(out *pipeline.RunOutput) error {
	components := componentNames(out.Baseline)

	header := []string{"fips", "county"}
	for _, c := range components {
		header = append(header, c+"_score")
	}
	header = append(header, "reai", "rank")

	rows := [][]string{header}
	for _, r := range out.Baseline.Results {
		row := []string{r.FIPS, r.County}
		for _, c := range components {
			row = append(row, formatScore(r.Component(c)))
		}
		row = append(row, formatScore(r.REAI), strconv.Itoa(r.Rank))
		rows = append(rows, row)
	}
	return w.writeFile(rankingsFile, rows)
}

// writeSensitivity emits correlation summary rows followed by per-county
// rank movement across all configurations.
func (w *Writer) writeSensitivity(out *pipeline.RunOutput) error {
	rows := [][]string{{"section", "fips", "county", "config", "spearman", "baseline_rank", "min_rank", "max_rank", "rank_range"}}

	for _, c := range out.Sensitivity.Correlations {
		spearman := ""
		if c.Error == "" {
			spearman = strconv.FormatFloat(c.Spearman, 'f', 4, 64)
		}
		rows = append(rows, []string{"correlation", "", "", c.Config, spearman, "", "", "", ""})
	}
	for _, s := range out.Sensitivity.Counties {
		rows = append(rows, []string{
			"county", s.FIPS, s.County, "", "",
			strconv.Itoa(s.BaselineRank),
			strconv.Itoa(s.MinRank),
			strconv.Itoa(s.MaxRank),
			strconv.Itoa(s.RankRange),
		})
	}
	return w.writeFile(sensitivityFile, rows)
}

// writeFile writes rows to a temp file in the target directory and renames
// it into place.
func (w *Writer) writeFile(name string, rows [][]string) error {
	tmp, err := os.CreateTemp(w.dir, name+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	cw := csv.NewWriter(tmp)
	if err := cw.WriteAll(rows); err != nil {
		tmp.Close()
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(w.dir, name))
}

// componentNames reads the component order from the first result; every
// result in a set shares the same configuration.
func componentNames(rs domain.ResultSet) []string {
	if len(rs.Results) == 0 {
		return nil
	}
	names := make([]string, len(rs.Results[0].Components))
	for i, c := range rs.Results[0].Components {
		names[i] = c.Name
	}
	return names
}

// formatScore renders a score with two decimals, or an empty cell when the
// county has no defined value.
func formatScore(v domain.Value) string {
	if !v.Defined {
		return ""
	}
	return strconv.FormatFloat(v.Float, 'f', 2, 64)
}
