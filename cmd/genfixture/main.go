// Command genfixture generates synthetic OISST-style griddap CSV fixtures
// and the matching expected-event JSON for the test suites. It uses the
// actual domain detector so the expected output tracks real pipeline
// behavior.
//
// Usage:
//
//	go run ./cmd/genfixture -out internal/adapter/erddap/testdata
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/scottwales/marine-heatwaves/internal/domain"
)

var detectedAt = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

const (
	baseTemp  = 15.0
	spikeTemp = 18.0
	region    = "fixture"
)

func main() {
	outDir := flag.String("out", "testdata", "directory for generated fixtures")
	flag.Parse()

	if err := run(*outDir); err != nil {
		log.Fatal(err)
	}
}

func run(outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	dates, temps := syntheticSeries()

	csvPath := filepath.Join(outDir, "sst_fixture.csv")
	if err := writeGriddapCSV(csvPath, dates, temps); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d days)\n", csvPath, len(dates))

	events, err := expectedEvents(dates, temps)
	if err != nil {
		return err
	}

	jsonPath := filepath.Join(outDir, "expected_events.json")
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}
	if err := os.WriteFile(jsonPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", jsonPath, err)
	}
	fmt.Printf("wrote %s (%d events)\n", jsonPath, len(events))
	return nil
}

// syntheticSeries builds three years of flat 15 °C days with a 10-day
// +3 °C spike in February of the final year.
func syntheticSeries() ([]time.Time, []float64) {
	start := time.Date(2013, time.January, 1, 12, 0, 0, 0, time.UTC)
	end := time.Date(2015, time.December, 31, 12, 0, 0, 0, time.UTC)
	spikeStart := time.Date(2015, time.February, 1, 0, 0, 0, 0, time.UTC)
	spikeEnd := time.Date(2015, time.February, 10, 23, 0, 0, 0, time.UTC)

	var dates []time.Time
	var temps []float64
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		v := baseTemp
		if d.After(spikeStart) && d.Before(spikeEnd) {
			v = spikeTemp
		}
		dates = append(dates, d)
		temps = append(temps, v)
	}
	return dates, temps
}

// writeGriddapCSV emits the series as an ERDDAP griddap CSV response over a
// 2x2 cell box, units row included.
func writeGriddapCSV(path string, dates []time.Time, temps []float64) error {
	var b strings.Builder
	b.WriteString("time,zlev,latitude,longitude,sst\n")
	b.WriteString("UTC,m,degrees_north,degrees_east,degree_C\n")

	lats := []float64{-40.125, -39.875}
	lons := []float64{150.125, 150.375}
	for i, d := range dates {
		for _, lat := range lats {
			for _, lon := range lons {
				fmt.Fprintf(&b, "%s,0.0,%g,%g,%g\n", d.Format(time.RFC3339), lat, lon, temps[i])
			}
		}
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// expectedEvents runs the real detector over the series with the 2013-2014
// base period and a frozen clock.
func expectedEvents(dates []time.Time, temps []float64) ([]domain.Event, error) {
	domain.SetClock(clockwork.NewFakeClockAt(detectedAt))
	defer domain.SetClock(nil)

	s, err := domain.NewSeries(dates, temps)
	if err != nil {
		return nil, err
	}

	params := domain.DefaultClimatologyParams()
	params.BaseStartYear = 2013
	params.BaseEndYear = 2014

	clim, err := domain.BuildClimatology(s, params)
	if err != nil {
		return nil, fmt.Errorf("build climatology: %w", err)
	}
	events, err := domain.DetectEvents(region, s, clim, domain.DefaultDetectParams())
	if err != nil {
		return nil, fmt.Errorf("detect events: %w", err)
	}
	return events, nil
}
