// Package csvsource loads the raw source tables from a directory of CSV
// files, one file per upstream publisher.
package csvsource

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/reai-pipeline/internal/domain"
)

// SourceDef maps one source file to the variables it publishes. Every file
// shares the leading fips,county columns; the remaining columns are the
// source's variables.
type SourceDef struct {
	File      string
	Name      string
	Variables []string
}

// SourceDefs is the canonical set of source files, in load order.
func SourceDefs() []SourceDef {
	return []SourceDef{
		{File: "vehicle_access.csv", Name: "vehicle_access", Variables: []string{domain.VarPctNoVehicle}},
		{File: "commute_times.csv", Name: "commute_times", Variables: []string{domain.VarAvgCommuteTime}},
		{File: "broadband.csv", Name: "broadband", Variables: []string{domain.VarPctBroadband}},
		{File: "transit_coverage.csv", Name: "transit_coverage", Variables: []string{domain.VarPctTransitServed}},
		{File: "unemployment.csv", Name: "unemployment", Variables: []string{domain.VarUnemploymentRate}},
		{File: "employment_growth.csv", Name: "employment_growth", Variables: []string{domain.VarEmploymentGrowth}},
		{File: "poverty.csv", Name: "poverty", Variables: []string{domain.VarPovertyRate}},
		{File: "job_density.csv", Name: "job_density", Variables: []string{domain.VarJobsPerAdult}},
		{File: "licensing.csv", Name: "licensing", Variables: []string{domain.VarLicensingBurden}},
		{File: "reentry_policy.csv", Name: "reentry_policy", Variables: []string{domain.VarBanTheBoxScore, domain.VarFairChanceScore}},
	}
}

// Loader reads the canonical source CSVs from a directory.
type Loader struct {
	dir    string
	defs   []SourceDef
	logger *slog.Logger
}

// NewLoader creates a Loader over the given directory.
func NewLoader(dir string, logger *slog.Logger) *Loader {
	return &Loader{dir: dir, defs: SourceDefs(), logger: logger}
}

// LoadSources reads every configured source file. A missing file or a missing
// declared column is fatal; a malformed numeric cell is logged and treated as
// absent so one bad row never sinks a whole run.
func (l *Loader) LoadSources(ctx context.Context) ([]domain.SourceTable, error) {
	tables := make([]domain.SourceTable, 0, len(l.defs))
	for _, def := range l.defs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		table, err := l.loadOne(def)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", def.Name, err)
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func (l *Loader) loadOne(def SourceDef) (domain.SourceTable, error) {
	path := filepath.Join(l.dir, def.File)
	f, err := os.Open(path)
	if err != nil {
		return domain.SourceTable{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return domain.SourceTable{}, fmt.Errorf("read csv: %w", err)
	}
	if len(all) < 2 {
		return domain.SourceTable{}, fmt.Errorf("no data rows in %s", def.File)
	}

	colIdx := map[string]int{}
	for i, h := range all[0] {
		colIdx[strings.TrimSpace(h)] = i
	}
	if _, ok := colIdx["fips"]; !ok {
		return domain.SourceTable{}, fmt.Errorf("%s: missing fips column", def.File)
	}
	for _, v := range def.Variables {
		if _, ok := colIdx[v]; !ok {
			return domain.SourceTable{}, fmt.Errorf("%s: missing column %q", def.File, v)
		}
	}

	table := domain.SourceTable{
		Name:      def.Name,
		Variables: append([]string(nil), def.Variables...),
		Rows:      make(map[string]map[string]float64, len(all)-1),
	}
	for i, row := range all[1:] {
		fips := get(row, colIdx, "fips")
		if fips == "" {
			l.logger.Warn("row without fips skipped", "source", def.Name, "line", i+2)
			continue
		}
		values := map[string]float64{}
		for _, v := range def.Variables {
			cell := get(row, colIdx, v)
			if cell == "" {
				continue // absent observation
			}
			parsed, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				l.logger.Warn("unparseable cell treated as absent",
					"source", def.Name, "line", i+2, "variable", v, "value", cell)
				continue
			}
			values[v] = parsed
		}
		table.Rows[fips] = values
	}
	return table, nil
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
