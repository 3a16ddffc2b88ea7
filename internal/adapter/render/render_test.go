package render

import (
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scottwales/marine-heatwaves/internal/domain"
)

func testRenderer() *Renderer {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testSeries(n int) (domain.Series, domain.Climatology) {
	dates := make([]time.Time, n)
	temps := make([]float64, n)
	seas := make([]float64, n)
	thresh := make([]float64, n)
	for i := range dates {
		dates[i] = time.Date(2015, time.January, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, i)
		temps[i] = 18 + math.Sin(float64(i)/10)
		seas[i] = 18
		thresh[i] = 18.8
	}
	return domain.Series{Dates: dates, Temps: temps}, domain.Climatology{Seas: seas, Thresh: thresh}
}

func requirePNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, "\x89PNG", string(data[:4]))
}

func TestRenderSST(t *testing.T) {
	s, clim := testSeries(120)
	events := []domain.Event{
		{StartIndex: 20, EndIndex: 30, Start: s.Dates[20], End: s.Dates[30]},
		{StartIndex: 70, EndIndex: 76, Start: s.Dates[70], End: s.Dates[76]},
	}

	path := filepath.Join(t.TempDir(), "mhw.png")
	require.NoError(t, testRenderer().RenderSST(s, clim, events, "Marine heatwaves: test 2015", path))
	requirePNG(t, path)
}

func TestRenderSST_HandlesMissingValues(t *testing.T) {
	s, clim := testSeries(60)
	s.Temps[10] = math.NaN()
	s.Temps[11] = math.NaN()

	path := filepath.Join(t.TempDir(), "mhw.png")
	require.NoError(t, testRenderer().RenderSST(s, clim, nil, "gapped", path))
	requirePNG(t, path)
}

func TestRenderSST_EmptySeries(t *testing.T) {
	err := testRenderer().RenderSST(domain.Series{}, domain.Climatology{}, nil, "empty", "unused.png")
	require.ErrorContains(t, err, "empty series")
}

func TestRenderNino(t *testing.T) {
	s, _ := testSeries(365)
	for i := range s.Temps {
		s.Temps[i] = math.Sin(float64(i) / 30)
	}

	path := filepath.Join(t.TempDir(), "nino34.png")
	require.NoError(t, testRenderer().RenderNino(s, path))
	requirePNG(t, path)
}

func TestRenderNino_EmptySeries(t *testing.T) {
	err := testRenderer().RenderNino(domain.Series{}, "unused.png")
	require.ErrorContains(t, err, "empty series")
}
