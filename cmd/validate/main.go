// Command validate performs integrity checks on a source data directory
// before it is fed to the index service: every canonical file present and
// parseable, county coverage against the roster, stray FIPS codes, and
// zero-variance variables that would carry no ranking information.
//
// Usage:
//
//	go run ./cmd/validate -data-dir data/sources
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/couchcryptid/reai-pipeline/internal/adapter/csvsource"
	"github.com/couchcryptid/reai-pipeline/internal/domain"
)

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", "", "directory containing the source CSV files")
	flag.Parse()

	if *dataDir == "" {
		flag.Usage()
		os.Exit(1)
	}
	if code := run(*dataDir); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir string) int {
	fmt.Println("=== Source Data Validation ===")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	loader := csvsource.NewLoader(dataDir, logger)
	sources, err := loader.LoadSources(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load sources: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateCoverage(sources),
		validateStrayFIPS(sources),
		validateVariance(sources),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-40s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateCoverage reports counties every source is missing. Missing counties
// are not fatal at run time (the join keeps them with absent values), but a
// source that covers few counties usually signals a broken extract.
func validateCoverage(sources []domain.SourceTable) *phase {
	p := &phase{name: "Phase 1: County Coverage"}
	roster := domain.Roster()

	for _, src := range sources {
		var missing []string
		for _, c := range roster {
			if _, ok := src.Rows[c.FIPS]; !ok {
				missing = append(missing, c.FIPS)
			}
		}
		switch {
		case len(missing) == 0:
		case len(missing) <= 5:
			p.errorf("%s: missing counties %v", src.Name, missing)
		default:
			p.errorf("%s: missing %d of %d counties", src.Name, len(missing), len(roster))
		}

		// Per-variable absent observations, informational.
		for _, v := range src.Variables {
			var absent int
			for _, row := range src.Rows {
				if _, ok := row[v]; !ok {
					absent++
				}
			}
			if absent > 0 {
				fmt.Printf("  note: %s/%s: %d absent observations\n", src.Name, v, absent)
			}
		}
	}
	return p
}

// validateStrayFIPS flags rows whose FIPS code is not a known county. The
// join excludes them, so they indicate bad upstream data.
func validateStrayFIPS(sources []domain.SourceTable) *phase {
	p := &phase{name: "Phase 2: Stray FIPS Codes"}
	for _, src := range sources {
		var stray []string
		for fips := range src.Rows {
			if !domain.KnownCounty(fips) {
				stray = append(stray, fips)
			}
		}
		sort.Strings(stray)
		for _, fips := range stray {
			p.errorf("%s: unknown FIPS %q", src.Name, fips)
		}
	}
	return p
}

// validateVariance flags variables whose observed values are all equal.
// These normalize to the midpoint for every county and rank nothing.
func validateVariance(sources []domain.SourceTable) *phase {
	p := &phase{name: "Phase 3: Variable Variance"}
	for _, src := range sources {
		for _, v := range src.Variables {
			first := true
			var ref float64
			constant := true
			var n int
			for _, row := range src.Rows {
				val, ok := row[v]
				if !ok {
					continue
				}
				n++
				if first {
					ref, first = val, false
				} else if val != ref {
					constant = false
				}
			}
			if n > 1 && constant {
				fmt.Printf("  note: %s/%s is constant (%g) and will normalize to 50 for every county\n",
					src.Name, v, ref)
			}
		}
	}
	return p
}
