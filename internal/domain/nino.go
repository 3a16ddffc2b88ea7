package domain

import (
	"fmt"
	"math"
)

// AnomalySeries returns the series of deviations from the seasonal baseline.
// Invalid observations stay NaN.
func AnomalySeries(s Series, clim Climatology) (Series, error) {
	if s.Len() != len(clim.Seas) {
		return Series{}, fmt.Errorf("anomaly series: series length %d does not match climatology length %d", s.Len(), len(clim.Seas))
	}
	anom := make([]float64, s.Len())
	for i, v := range s.Temps {
		anom[i] = v - clim.Seas[i]
	}
	return Series{Dates: s.Dates, Temps: anom}, nil
}

// RunningMean smooths a series with a centered moving average of the given
// width in days, shrinking the window at the edges. Invalid observations are
// excluded from each window; a window with no valid values yields NaN.
func RunningMean(s Series, width int) Series {
	if width < 2 || s.Len() == 0 {
		return s
	}
	half := width / 2
	out := make([]float64, s.Len())
	for i := range s.Temps {
		lo := max(i-half, 0)
		hi := min(i+half, s.Len()-1)
		var sum float64
		var n int
		for j := lo; j <= hi; j++ {
			if !validTemp(s.Temps[j]) {
				continue
			}
			sum += s.Temps[j]
			n++
		}
		if n == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(n)
	}
	return Series{Dates: s.Dates, Temps: out}
}

// Nino34Index computes the Niño 3.4 index from the area-mean SST series of
// the Niño 3.4 box: the smoothed deviation from the series' own day-of-year
// climatology. The climatology parameters decide the base period; the
// percentile threshold is built but unused here.
func Nino34Index(s Series, climParams ClimatologyParams, smoothDays int) (Series, error) {
	clim, err := BuildClimatology(s, climParams)
	if err != nil {
		return Series{}, fmt.Errorf("nino 3.4 climatology: %w", err)
	}
	anom, err := AnomalySeries(s, clim)
	if err != nil {
		return Series{}, err
	}
	return RunningMean(anom, smoothDays), nil
}
