// Command validate performs integrity checks across the Parquet artifacts an
// analysis run leaves behind: the daily series with its aligned climatology
// and the detected events. It verifies the series is contiguous, re-runs the
// detector over the stored series, and checks every event for internal
// consistency.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -series data/mhw_series.parquet \
//	  -events data/mhw_events.parquet
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/scottwales/marine-heatwaves/internal/adapter/parquet"
	"github.com/scottwales/marine-heatwaves/internal/domain"
)

const dateLayout = "2006-01-02"

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	seriesPath := flag.String("series", "", "path to the series Parquet artifact")
	eventsPath := flag.String("events", "", "path to the events Parquet artifact")
	region := flag.String("region", "", "region name used for event IDs (default: taken from the events file)")
	minDuration := flag.Int("min-duration", domain.DefaultDetectParams().MinDuration, "minimum event duration in days")
	maxGap := flag.Int("max-gap", domain.DefaultDetectParams().MaxGap, "largest below-threshold gap joined into an event")
	flag.Parse()

	if *seriesPath == "" || *eventsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	params := domain.DetectParams{MinDuration: *minDuration, MaxGap: *maxGap}
	if code := run(*seriesPath, *eventsPath, *region, params); code != 0 {
		os.Exit(code)
	}
}

func run(seriesPath, eventsPath, region string, params domain.DetectParams) int {
	fmt.Println("=== Marine Heatwave Artifact Validation ===")
	fmt.Println()

	seriesRows, err := parquet.ReadSeries(seriesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load series parquet: %v\n", err)
		return 1
	}
	eventRows, err := parquet.ReadEvents(eventsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load events parquet: %v\n", err)
		return 1
	}

	if region == "" && len(eventRows) > 0 {
		region = eventRows[0].Region
	}

	phases := []*phase{
		validateSeriesIntegrity(seriesRows),
		validateDetectionConsistency(seriesRows, eventRows, region, params),
		validateEventIntegrity(eventRows, seriesRows, region),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d series rows, %d events\n", len(seriesRows), len(eventRows))

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

// ── Phase 1: Series Integrity ──
// Validates the stored daily series: parseable dates at a strict daily
// cadence and a finite climatology on every row.

func validateSeriesIntegrity(rows []parquet.SeriesRow) *phase {
	p := &phase{name: "Phase 1: Series Integrity"}

	if len(rows) == 0 {
		p.errorf("series file has no rows")
		return p
	}

	var prev time.Time
	for i, row := range rows {
		d, err := time.Parse(dateLayout, row.Date)
		if err != nil {
			p.errorf("row %d: bad date %q: %v", i, row.Date, err)
			continue
		}
		if i > 0 && d.Sub(prev) != 24*time.Hour {
			p.errorf("row %d: date %s does not follow %s by one day", i, row.Date, prev.Format(dateLayout))
		}
		prev = d

		if math.IsNaN(row.Seasonal) || math.IsInf(row.Seasonal, 0) {
			p.errorf("row %d (%s): seasonal baseline is %g", i, row.Date, row.Seasonal)
		}
		if math.IsNaN(row.Threshold) || math.IsInf(row.Threshold, 0) {
			p.errorf("row %d (%s): threshold is %g", i, row.Date, row.Threshold)
		}
	}
	return p
}

// ── Phase 2: Detection Consistency ──
// Re-runs the detector over the stored series and climatology and compares
// the result with the stored events. IDs are derived from region and event
// dates, so a matching re-run reproduces them exactly.

func validateDetectionConsistency(seriesRows []parquet.SeriesRow, eventRows []parquet.EventRow, region string, params domain.DetectParams) *phase {
	p := &phase{name: "Phase 2: Detection Consistency"}

	s, clim, err := rebuildSeries(seriesRows)
	if err != nil {
		p.errorf("rebuild series: %v", err)
		return p
	}

	events, err := domain.DetectEvents(region, s, clim, params)
	if err != nil {
		p.errorf("re-run detection: %v", err)
		return p
	}

	if len(events) != len(eventRows) {
		p.errorf("event count: detector found %d, events file has %d", len(events), len(eventRows))
		return p
	}

	for i, got := range eventRows {
		want := events[i]
		if got.ID != want.ID {
			p.errorf("event %d: ID: expected %q, got %q", i, want.ID, got.ID)
		}
		if got.Start != want.Start.Format(dateLayout) {
			p.errorf("event %d: start: expected %s, got %s", i, want.Start.Format(dateLayout), got.Start)
		}
		if got.End != want.End.Format(dateLayout) {
			p.errorf("event %d: end: expected %s, got %s", i, want.End.Format(dateLayout), got.End)
		}
		if got.PeakDate != want.PeakDate.Format(dateLayout) {
			p.errorf("event %d: peak_date: expected %s, got %s", i, want.PeakDate.Format(dateLayout), got.PeakDate)
		}
		if int(got.DurationDays) != want.Duration {
			p.errorf("event %d: duration: expected %d, got %d", i, want.Duration, got.DurationDays)
		}
		if got.Category != want.Category {
			p.errorf("event %d: category: expected %q, got %q", i, want.Category, got.Category)
		}
		if !floatEq(got.MaxIntensity, want.MaxIntensity) {
			p.errorf("event %d: max_intensity: expected %g, got %g", i, want.MaxIntensity, got.MaxIntensity)
		}
		if !floatEq(got.MeanIntensity, want.MeanIntensity) {
			p.errorf("event %d: mean_intensity: expected %g, got %g", i, want.MeanIntensity, got.MeanIntensity)
		}
		if !floatEq(got.CumIntensity, want.CumIntensity) {
			p.errorf("event %d: cum_intensity: expected %g, got %g", i, want.CumIntensity, got.CumIntensity)
		}
	}
	return p
}

// rebuildSeries reconstructs the observed series and its aligned climatology
// from stored rows.
func rebuildSeries(rows []parquet.SeriesRow) (domain.Series, domain.Climatology, error) {
	dates := make([]time.Time, len(rows))
	temps := make([]float64, len(rows))
	seas := make([]float64, len(rows))
	thresh := make([]float64, len(rows))
	for i, row := range rows {
		d, err := time.Parse(dateLayout, row.Date)
		if err != nil {
			return domain.Series{}, domain.Climatology{}, fmt.Errorf("row %d: %w", i, err)
		}
		dates[i] = d
		temps[i] = row.SST
		seas[i] = row.Seasonal
		thresh[i] = row.Threshold
	}
	s, err := domain.NewSeries(dates, temps)
	if err != nil {
		return domain.Series{}, domain.Climatology{}, err
	}
	return s, domain.Climatology{Seas: seas, Thresh: thresh}, nil
}

// ── Phase 3: Event Integrity ──
// Validates each stored event on its own terms: ordered dates, consistent
// duration and intensities, and a category from the known scale.

var validCategories = map[string]bool{
	"moderate": true, "strong": true, "severe": true, "extreme": true,
}

func validateEventIntegrity(eventRows []parquet.EventRow, seriesRows []parquet.SeriesRow, region string) *phase {
	p := &phase{name: "Phase 3: Event Integrity"}

	var firstDate, lastDate string
	if len(seriesRows) > 0 {
		firstDate = seriesRows[0].Date
		lastDate = seriesRows[len(seriesRows)-1].Date
	}

	for i, e := range eventRows {
		pf := func(format string, args ...any) {
			p.errorf("event %d (ID %s): "+format, append([]any{i, e.ID}, args...)...)
		}

		if e.ID == "" {
			pf("id is empty")
		} else if region != "" && !strings.HasPrefix(e.ID, region+"-") {
			pf("id %q doesn't start with region prefix %q-", e.ID, region)
		}
		if e.Region != region && region != "" {
			pf("region is %q (expected %q)", e.Region, region)
		}

		start, startErr := time.Parse(dateLayout, e.Start)
		end, endErr := time.Parse(dateLayout, e.End)
		peak, peakErr := time.Parse(dateLayout, e.PeakDate)
		if startErr != nil || endErr != nil || peakErr != nil {
			pf("unparseable dates start=%q end=%q peak=%q", e.Start, e.End, e.PeakDate)
			continue
		}
		if end.Before(start) {
			pf("end %s precedes start %s", e.End, e.Start)
		}
		if peak.Before(start) || peak.After(end) {
			pf("peak %s outside [%s, %s]", e.PeakDate, e.Start, e.End)
		}
		if days := int(end.Sub(start).Hours()/24) + 1; days != int(e.DurationDays) {
			pf("duration %d does not match date span %d", e.DurationDays, days)
		}
		if firstDate != "" && (e.Start < firstDate || e.End > lastDate) {
			pf("event dates outside series range [%s, %s]", firstDate, lastDate)
		}

		if !validCategories[e.Category] {
			pf("category %q not in {moderate, strong, severe, extreme}", e.Category)
		}
		if e.MaxIntensity < e.MeanIntensity && !floatEq(e.MaxIntensity, e.MeanIntensity) {
			pf("max_intensity %g below mean_intensity %g", e.MaxIntensity, e.MeanIntensity)
		}
		if !floatEq(e.CumIntensity, e.MeanIntensity*float64(e.DurationDays)) {
			pf("cum_intensity %g does not equal mean %g over %d days", e.CumIntensity, e.MeanIntensity, e.DurationDays)
		}
		if e.DetectedAt == 0 {
			pf("detected_at is zero")
		}
	}
	return p
}

// ── Helpers ──

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
