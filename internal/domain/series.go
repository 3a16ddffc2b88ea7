package domain

import (
	"fmt"
	"math"
	"time"
)

// Series is an ordered daily sequence of (date, SST) observations.
// Dates and Temps are parallel slices; cadence is assumed strictly daily.
// Missing observations are NaN.
type Series struct {
	Dates []time.Time
	Temps []float64
}

// NewSeries pairs dates with temperatures, rejecting mismatched lengths.
func NewSeries(dates []time.Time, temps []float64) (Series, error) {
	if len(dates) != len(temps) {
		return Series{}, fmt.Errorf("series length mismatch: %d dates, %d temps", len(dates), len(temps))
	}
	return Series{Dates: dates, Temps: temps}, nil
}

// Len returns the number of observations.
func (s Series) Len() int { return len(s.Dates) }

// dayOfYear366 maps a date onto a fixed 366-day calendar (1-based).
// In non-leap years every day from March 1 onward shifts up by one, so a
// calendar date occupies the same slot regardless of leap status. Slot 60
// (February 29) only receives direct observations in leap years.
func dayOfYear366(t time.Time) int {
	doy := t.YearDay()
	if !isLeapYear(t.Year()) && doy >= 60 {
		doy++
	}
	return doy
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// validTemp reports whether v is a usable observation.
func validTemp(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
