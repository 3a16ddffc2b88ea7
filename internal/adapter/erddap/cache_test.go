package erddap

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scottwales/marine-heatwaves/internal/observability"
)

func TestCachedFetcher(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	dir := t.TempDir()
	metrics := observability.NewMetricsForTesting()
	f := NewCachedFetcher(testClient(t, srv.URL), dir, discardLogger(), metrics)

	g, err := f.FetchYear(t.Context(), 2015, testBox)
	require.NoError(t, err)
	require.Len(t, g.Times, 2)
	assert.Equal(t, 1, requests)

	// Second fetch must come from disk.
	g, err = f.FetchYear(t.Context(), 2015, testBox)
	require.NoError(t, err)
	require.Len(t, g.Times, 2)
	assert.Equal(t, 1, requests)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SlabCache.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SlabCache.WithLabelValues("hit")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ncdcOisst21Agg_2015_-41_-39_150_151.csv", entries[0].Name())
}

func TestCachedFetcher_CorruptEntryRefetches(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := NewCachedFetcher(testClient(t, srv.URL), dir, discardLogger(), observability.NewMetricsForTesting())

	path := f.slabPath(2015, testBox)
	require.NoError(t, os.WriteFile(path, []byte("not,a,griddap\nresponse\n"), 0o644))

	g, err := f.FetchYear(t.Context(), 2015, testBox)
	require.NoError(t, err)
	require.Len(t, g.Times, 2)
	assert.Equal(t, 1, requests)

	// The refetch replaced the corrupt entry.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(data))
}

func TestCachedFetcher_DistinctBoxesDistinctEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := NewCachedFetcher(testClient(t, srv.URL), dir, discardLogger(), observability.NewMetricsForTesting())

	a := f.slabPath(2015, testBox)
	b := f.slabPath(2016, testBox)
	assert.NotEqual(t, a, b)
	assert.Equal(t, dir, filepath.Dir(a))
}
