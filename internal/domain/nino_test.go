package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnomalySeries(t *testing.T) {
	s := dailySeries(2015, 2015, flat(15))
	clim := Climatology{
		Seas:   make([]float64, s.Len()),
		Thresh: make([]float64, s.Len()),
	}
	for i := range clim.Seas {
		clim.Seas[i] = 14
	}
	s.Temps[10] = math.NaN()

	anom, err := AnomalySeries(s, clim)
	require.NoError(t, err)
	require.Equal(t, s.Len(), anom.Len())
	assert.InDelta(t, 1.0, anom.Temps[0], 1e-9)
	assert.True(t, math.IsNaN(anom.Temps[10]))
	assert.Equal(t, s.Dates[0], anom.Dates[0])
}

func TestAnomalySeries_LengthMismatch(t *testing.T) {
	s := dailySeries(2015, 2015, flat(15))
	_, err := AnomalySeries(s, Climatology{Seas: []float64{14}})
	require.Error(t, err)
}

func TestRunningMean(t *testing.T) {
	dates := make([]time.Time, 5)
	for i := range dates {
		dates[i] = time.Date(2015, time.January, i+1, 12, 0, 0, 0, time.UTC)
	}

	t.Run("centered window", func(t *testing.T) {
		s := Series{Dates: dates, Temps: []float64{0, 0, 3, 0, 0}}
		out := RunningMean(s, 3)
		assert.InDelta(t, 0.0, out.Temps[0], 1e-9) // edge window: {0, 0}
		assert.InDelta(t, 1.0, out.Temps[1], 1e-9)
		assert.InDelta(t, 1.0, out.Temps[2], 1e-9)
		assert.InDelta(t, 1.0, out.Temps[3], 1e-9)
		assert.InDelta(t, 0.0, out.Temps[4], 1e-9)
	})

	t.Run("skips invalid observations", func(t *testing.T) {
		s := Series{Dates: dates, Temps: []float64{1, math.NaN(), 3, 1, 1}}
		out := RunningMean(s, 3)
		assert.InDelta(t, 2.0, out.Temps[1], 1e-9) // mean of {1, 3}
	})

	t.Run("all invalid window is NaN", func(t *testing.T) {
		s := Series{Dates: dates, Temps: []float64{math.NaN(), math.NaN(), math.NaN(), 1, 1}}
		out := RunningMean(s, 3)
		assert.True(t, math.IsNaN(out.Temps[1]))
	})

	t.Run("width below two is identity", func(t *testing.T) {
		s := Series{Dates: dates, Temps: []float64{0, 0, 3, 0, 0}}
		out := RunningMean(s, 1)
		assert.InDelta(t, 3.0, out.Temps[2], 1e-9)
	})
}

func TestNino34Index_FlatSeries(t *testing.T) {
	s := dailySeries(2012, 2015, flat(27))

	p := DefaultClimatologyParams()
	p.BaseStartYear = 2012
	p.BaseEndYear = 2015

	idx, err := Nino34Index(s, p, 31)
	require.NoError(t, err)
	require.Equal(t, s.Len(), idx.Len())
	for i := 0; i < idx.Len(); i += 97 {
		assert.InDelta(t, 0.0, idx.Temps[i], 1e-9)
	}
}

func TestNino34Index_WarmYearIsPositive(t *testing.T) {
	// 2015 runs 1 °C warm against a 2012-2014 base period: the smoothed
	// index should sit near +1 through 2015 and near the long-term split
	// elsewhere.
	s := dailySeries(2012, 2015, func(d time.Time) float64 {
		if d.Year() == 2015 {
			return 28
		}
		return 27
	})

	p := DefaultClimatologyParams()
	p.BaseStartYear = 2012
	p.BaseEndYear = 2014

	idx, err := Nino34Index(s, p, 31)
	require.NoError(t, err)

	mid2015 := time.Date(2015, time.July, 1, 12, 0, 0, 0, time.UTC)
	mid2013 := time.Date(2013, time.July, 1, 12, 0, 0, 0, time.UTC)
	for i, d := range idx.Dates {
		switch {
		case d.Equal(mid2015):
			assert.InDelta(t, 1.0, idx.Temps[i], 1e-9)
		case d.Equal(mid2013):
			assert.InDelta(t, 0.0, idx.Temps[i], 1e-9)
		}
	}
}
