package erddap

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/scottwales/marine-heatwaves/internal/grid"
	"github.com/scottwales/marine-heatwaves/internal/observability"
)

// CachedFetcher wraps a Client with an on-disk slab cache. Raw CSV responses
// are stored per (dataset, year, box) so repeated runs over the same window
// never re-download.
type CachedFetcher struct {
	inner   *Client
	dir     string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCachedFetcher creates a cache decorator around an ERDDAP client.
func NewCachedFetcher(inner *Client, dir string, logger *slog.Logger, metrics *observability.Metrics) *CachedFetcher {
	return &CachedFetcher{inner: inner, dir: dir, logger: logger, metrics: metrics}
}

// FetchYear returns the cached slab when present, downloading and caching it
// otherwise. A cached file that no longer parses is refetched.
func (f *CachedFetcher) FetchYear(ctx context.Context, year int, box grid.Box) (*grid.Grid, error) {
	path := f.slabPath(year, box)

	if data, err := os.ReadFile(path); err == nil {
		g, perr := ParseCSV(bytes.NewReader(data))
		if perr == nil {
			f.metrics.SlabCache.WithLabelValues("hit").Inc()
			return g, nil
		}
		f.logger.Warn("cached slab unreadable, refetching", "path", path, "error", perr)
	}
	f.metrics.SlabCache.WithLabelValues("miss").Inc()

	body, err := f.inner.fetchRawYear(ctx, year, box)
	if err != nil {
		return nil, err
	}

	g, err := ParseCSV(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %d slab: %w", year, err)
	}

	if err := f.store(path, body); err != nil {
		// A failed cache write costs a re-download later, nothing more.
		f.logger.Warn("cache slab write failed", "path", path, "error", err)
	}
	return g, nil
}

// store writes the slab via a temp file and atomic rename so a crash never
// leaves a truncated cache entry behind.
func (f *CachedFetcher) store(path string, body []byte) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return fmt.Errorf("write temp slab: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename slab: %w", err)
	}
	return nil
}

func (f *CachedFetcher) slabPath(year int, box grid.Box) string {
	name := fmt.Sprintf("%s_%d_%g_%g_%g_%g.csv",
		f.inner.dataset, year, box.LatMin, box.LatMax, box.LonMin, box.LonMax)
	return filepath.Join(f.dir, name)
}
