package parquet

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scottwales/marine-heatwaves/internal/domain"
)

func testExporter() *Exporter {
	return NewExporter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestWriteEvents_RoundTrip(t *testing.T) {
	detectedAt := time.Date(2024, time.June, 1, 9, 30, 0, 0, time.UTC)
	events := []domain.Event{
		{
			ID:            "tasman-sea-1a2b3c4d",
			Region:        "tasman-sea",
			Start:         time.Date(2015, time.February, 1, 12, 0, 0, 0, time.UTC),
			End:           time.Date(2015, time.February, 10, 12, 0, 0, 0, time.UTC),
			Duration:      10,
			PeakDate:      time.Date(2015, time.February, 5, 12, 0, 0, 0, time.UTC),
			MaxIntensity:  3.1,
			MeanIntensity: 2.2,
			CumIntensity:  22,
			Category:      "strong",
			DetectedAt:    detectedAt,
		},
		{
			ID:       "tasman-sea-99eeff00",
			Region:   "tasman-sea",
			Start:    time.Date(2015, time.November, 20, 12, 0, 0, 0, time.UTC),
			End:      time.Date(2015, time.November, 26, 12, 0, 0, 0, time.UTC),
			Duration: 7,
			PeakDate: time.Date(2015, time.November, 23, 12, 0, 0, 0, time.UTC),
			Category: "moderate",
		},
	}

	path := filepath.Join(t.TempDir(), "events.parquet")
	require.NoError(t, testExporter().WriteEvents(events, path))

	rows, err := ReadEvents(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "tasman-sea-1a2b3c4d", rows[0].ID)
	assert.Equal(t, "2015-02-01", rows[0].Start)
	assert.Equal(t, "2015-02-10", rows[0].End)
	assert.Equal(t, int32(10), rows[0].DurationDays)
	assert.Equal(t, "2015-02-05", rows[0].PeakDate)
	assert.Equal(t, "strong", rows[0].Category)
	assert.Equal(t, detectedAt.Unix(), rows[0].DetectedAt)
	assert.Equal(t, "2015-11-20", rows[1].Start)
}

func TestWriteEvents_EmptyFileStillReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.parquet")
	require.NoError(t, testExporter().WriteEvents(nil, path))
	rows, err := ReadEvents(path)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWriteSeries_RoundTrip(t *testing.T) {
	s := domain.Series{
		Dates: []time.Time{
			time.Date(2015, time.January, 1, 12, 0, 0, 0, time.UTC),
			time.Date(2015, time.January, 2, 12, 0, 0, 0, time.UTC),
		},
		Temps: []float64{18.2, 18.4},
	}
	clim := domain.Climatology{
		Seas:   []float64{17.9, 17.95},
		Thresh: []float64{18.6, 18.65},
	}

	path := filepath.Join(t.TempDir(), "series.parquet")
	require.NoError(t, testExporter().WriteSeries(s, clim, path))

	rows, err := ReadSeries(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2015-01-01", rows[0].Date)
	assert.Equal(t, 18.2, rows[0].SST)
	assert.Equal(t, 17.9, rows[0].Seasonal)
	assert.Equal(t, 18.6, rows[0].Threshold)
}

func TestWriteSeries_LengthMismatch(t *testing.T) {
	s := domain.Series{
		Dates: []time.Time{time.Date(2015, time.January, 1, 12, 0, 0, 0, time.UTC)},
		Temps: []float64{18.2},
	}
	err := testExporter().WriteSeries(s, domain.Climatology{}, filepath.Join(t.TempDir(), "series.parquet"))
	require.Error(t, err)
}
