package domain

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

const daysPerYear = 366

// ClimatologyParams controls how the seasonal baseline and threshold are
// estimated from a series.
type ClimatologyParams struct {
	// Percentile of the pooled day-of-year distribution used as the event
	// threshold, in (0, 1).
	Percentile float64

	// WindowHalfWidth is the number of days either side of each day of year
	// pooled into its distribution.
	WindowHalfWidth int

	// SmoothWidth is the width in days of the circular moving average
	// applied to the raw baseline and threshold.
	SmoothWidth int

	// BaseStartYear and BaseEndYear bound the years contributing to the
	// climatology (inclusive). Both zero means every year in the series.
	BaseStartYear int
	BaseEndYear   int
}

// DefaultClimatologyParams are the conventional MHW analysis settings:
// 90th percentile, ±5-day pooling, 31-day smoothing, full-series base period.
func DefaultClimatologyParams() ClimatologyParams {
	return ClimatologyParams{
		Percentile:      0.9,
		WindowHalfWidth: 5,
		SmoothWidth:     31,
	}
}

// Climatology is the seasonal baseline and threshold for a series.
// Seas and Thresh align 1:1 with the observations the climatology was built
// against; the underlying day-of-year tables are periodic.
type Climatology struct {
	Seas   []float64
	Thresh []float64

	seasByDOY   [daysPerYear]float64
	threshByDOY [daysPerYear]float64
}

// SeasonalFor returns the seasonal baseline for a date.
func (c Climatology) SeasonalFor(t time.Time) float64 {
	return c.seasByDOY[dayOfYear366(t)-1]
}

// ThresholdFor returns the event threshold for a date.
func (c Climatology) ThresholdFor(t time.Time) float64 {
	return c.threshByDOY[dayOfYear366(t)-1]
}

// BuildClimatology estimates the day-of-year seasonal baseline and threshold
// from the series and aligns them with its observations.
//
// For each of the 366 day-of-year slots it pools every valid base-period
// observation within ±WindowHalfWidth days (wrapping across the year
// boundary), takes the mean as the baseline and the configured percentile as
// the threshold, then smooths both tables with a circular moving average.
// A series too short to populate every slot's pool is an error.
func BuildClimatology(s Series, p ClimatologyParams) (Climatology, error) {
	if s.Len() == 0 {
		return Climatology{}, fmt.Errorf("build climatology: empty series")
	}
	if len(s.Dates) != len(s.Temps) {
		return Climatology{}, fmt.Errorf("build climatology: %d dates but %d temps", len(s.Dates), len(s.Temps))
	}
	if p.Percentile <= 0 || p.Percentile >= 1 {
		return Climatology{}, fmt.Errorf("build climatology: percentile %v outside (0, 1)", p.Percentile)
	}

	// Bucket valid base-period observations by day-of-year slot.
	var buckets [daysPerYear][]float64
	for i, t := range s.Dates {
		if !inBasePeriod(t, p) || !validTemp(s.Temps[i]) {
			continue
		}
		d := dayOfYear366(t) - 1
		buckets[d] = append(buckets[d], s.Temps[i])
	}

	var seasRaw, threshRaw [daysPerYear]float64
	for d := range daysPerYear {
		pool := pooledWindow(&buckets, d, p.WindowHalfWidth)
		if len(pool) == 0 {
			return Climatology{}, fmt.Errorf("build climatology: no observations within %d days of day-of-year %d", p.WindowHalfWidth, d+1)
		}
		sort.Float64s(pool)
		seasRaw[d] = stat.Mean(pool, nil)
		threshRaw[d] = stat.Quantile(p.Percentile, stat.Empirical, pool, nil)
	}

	c := Climatology{
		seasByDOY:   smoothCircular(seasRaw, p.SmoothWidth),
		threshByDOY: smoothCircular(threshRaw, p.SmoothWidth),
	}

	c.Seas = make([]float64, s.Len())
	c.Thresh = make([]float64, s.Len())
	for i, t := range s.Dates {
		d := dayOfYear366(t) - 1
		c.Seas[i] = c.seasByDOY[d]
		c.Thresh[i] = c.threshByDOY[d]
	}
	return c, nil
}

func inBasePeriod(t time.Time, p ClimatologyParams) bool {
	if p.BaseStartYear == 0 && p.BaseEndYear == 0 {
		return true
	}
	return t.Year() >= p.BaseStartYear && t.Year() <= p.BaseEndYear
}

// pooledWindow gathers the bucket contents for slots within ±halfWidth of
// slot d, wrapping across the year boundary.
func pooledWindow(buckets *[daysPerYear][]float64, d, halfWidth int) []float64 {
	var pool []float64
	for off := -halfWidth; off <= halfWidth; off++ {
		slot := ((d+off)%daysPerYear + daysPerYear) % daysPerYear
		pool = append(pool, buckets[slot]...)
	}
	return pool
}

// smoothCircular applies a centered moving average of the given width to a
// periodic day-of-year table. Width values below 2 leave the table unchanged.
func smoothCircular(table [daysPerYear]float64, width int) [daysPerYear]float64 {
	if width < 2 {
		return table
	}
	half := width / 2
	var out [daysPerYear]float64
	for d := range daysPerYear {
		var sum float64
		var n int
		for off := -half; off <= half; off++ {
			slot := ((d+off)%daysPerYear + daysPerYear) % daysPerYear
			sum += table[slot]
			n++
		}
		out[d] = sum / float64(n)
	}
	return out
}
