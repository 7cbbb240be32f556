// Command gensample writes a deterministic synthetic dataset: the ten source
// CSVs over all 100 counties, with value ranges matching the real upstream
// publications. A fixed seed keeps the fixture reproducible so tests and
// demos can assert on exact scores.
//
// Usage:
//
//	go run ./cmd/gensample -out data/sources
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/reai-pipeline/internal/adapter/csvsource"
	"github.com/couchcryptid/reai-pipeline/internal/domain"
)

const seed = 42

// rangeDef is the value range for one generated variable. Constant variables
// (min == max) model state-level scores that do not vary by county.
type rangeDef struct {
	min, max float64
	decimals int
}

// ranges mirror the real publications: state-level licensing burden and
// ban-the-box scores are constants, everything else varies by county.
var ranges = map[string]rangeDef{
	domain.VarPctNoVehicle:     {3, 15, 1},
	domain.VarAvgCommuteTime:   {18, 35, 1},
	domain.VarPctBroadband:     {65, 95, 1},
	domain.VarPctTransitServed: {0, 100, 1},
	domain.VarUnemploymentRate: {2.5, 8.0, 1},
	domain.VarEmploymentGrowth: {-3, 6, 2},
	domain.VarPovertyRate:      {8, 25, 1},
	domain.VarJobsPerAdult:     {0.25, 1.15, 3},
	domain.VarLicensingBurden:  {65, 65, 0},
	domain.VarBanTheBoxScore:   {75, 75, 0},
	domain.VarFairChanceScore:  {50, 90, 1},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/sources", "output directory for generated source CSVs")
	flag.Parse()

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(seed))
	roster := domain.Roster()

	for _, def := range csvsource.SourceDefs() {
		if err := writeSource(*out, def, roster, rng); err != nil {
			return fmt.Errorf("generate %s: %w", def.File, err)
		}
		log.Printf("%s: %d rows, %d variables", def.File, len(roster), len(def.Variables))
	}
	log.Printf("wrote %d source files to %s", len(csvsource.SourceDefs()), *out)
	return nil
}

func writeSource(dir string, def csvsource.SourceDef, roster []domain.County, rng *rand.Rand) error {
	f, err := os.Create(filepath.Join(dir, def.File))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"fips", "county"}, def.Variables...)
	if err := w.Write(header); err != nil {
		return err
	}

	for _, c := range roster {
		row := []string{c.FIPS, c.Name}
		for _, v := range def.Variables {
			r, ok := ranges[v]
			if !ok {
				return fmt.Errorf("no range defined for variable %q", v)
			}
			row = append(row, formatValue(sample(rng, r), r.decimals))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func sample(rng *rand.Rand, r rangeDef) float64 {
	if r.min == r.max {
		return r.min
	}
	return r.min + rng.Float64()*(r.max-r.min)
}

func formatValue(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
