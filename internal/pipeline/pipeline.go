package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/scottwales/marine-heatwaves/internal/config"
	"github.com/scottwales/marine-heatwaves/internal/domain"
	"github.com/scottwales/marine-heatwaves/internal/grid"
	"github.com/scottwales/marine-heatwaves/internal/observability"
)

// SlabFetcher retrieves one calendar year of gridded SST for a box.
type SlabFetcher interface {
	FetchYear(ctx context.Context, year int, box grid.Box) (*grid.Grid, error)
}

// Analyzer turns area-mean series into detection results.
type Analyzer interface {
	// DetectEvents builds the climatology for the series and finds the
	// marine heatwaves in it.
	DetectEvents(s domain.Series) ([]domain.Event, domain.Climatology, error)

	// AnomalyIndex computes the smoothed Niño 3.4 anomaly from the area-mean
	// series of the Niño 3.4 box.
	AnomalyIndex(s domain.Series) (domain.Series, error)
}

// Renderer draws the output plots.
type Renderer interface {
	RenderSST(s domain.Series, clim domain.Climatology, events []domain.Event, title, path string) error
	RenderNino(anom domain.Series, path string) error
}

// Exporter writes columnar result files.
type Exporter interface {
	WriteEvents(events []domain.Event, path string) error
	WriteSeries(s domain.Series, clim domain.Climatology, path string) error
}

// EventSink publishes detected events downstream.
type EventSink interface {
	Publish(ctx context.Context, events []domain.Event) error
}

// Pipeline orchestrates the fetch-reduce-detect-render run.
type Pipeline struct {
	fetcher  SlabFetcher
	analyzer Analyzer
	renderer Renderer
	exporter Exporter
	sink     EventSink // nil disables publication

	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Pipeline with the given stages and observability. Pass a nil
// sink to disable event publication.
func New(f SlabFetcher, a Analyzer, r Renderer, e Exporter, sink EventSink,
	cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fetcher:  f,
		analyzer: a,
		renderer: r,
		exporter: e,
		sink:     sink,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once the pipeline has landed at least one slab,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not fetched any data yet")
	}
	return nil
}

// Run executes one full analysis: fetch the yearly slabs for the region and
// the Niño 3.4 box, reduce each to an area-mean series, detect events and
// the anomaly index, and write the output artifacts. Any stage failure
// aborts the run.
func (p *Pipeline) Run(ctx context.Context) error {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	p.logger.Info("pipeline started",
		"region", p.cfg.RegionName,
		"box", p.cfg.Region.String(),
		"start_year", p.cfg.StartYear,
		"end_year", p.cfg.EndYear,
	)

	regionGrid, err := p.fetchRange(ctx, p.cfg.Region)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", p.cfg.RegionName, err)
	}
	ninoGrid, err := p.fetchRange(ctx, grid.Nino34Box)
	if err != nil {
		return fmt.Errorf("fetch nino 3.4: %w", err)
	}

	start := time.Date(p.cfg.StartYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(p.cfg.EndYear, time.December, 31, 23, 59, 59, 0, time.UTC)
	regionSeries := regionGrid.Window(start, end).AreaMean()
	ninoSeries := ninoGrid.Window(start, end).AreaMean()

	detectStart := time.Now()
	events, clim, err := p.analyzer.DetectEvents(regionSeries)
	if err != nil {
		return fmt.Errorf("detect events: %w", err)
	}
	p.metrics.DetectDuration.Observe(time.Since(detectStart).Seconds())
	p.metrics.EventsDetected.Add(float64(len(events)))
	p.logger.Info("detection complete", "events", len(events), "days", regionSeries.Len())

	anom, err := p.analyzer.AnomalyIndex(ninoSeries)
	if err != nil {
		return fmt.Errorf("nino 3.4 index: %w", err)
	}

	if err := p.writeArtifacts(regionSeries, clim, events, anom); err != nil {
		return err
	}

	if p.sink != nil {
		if err := p.sink.Publish(ctx, events); err != nil {
			return fmt.Errorf("publish events: %w", err)
		}
		p.metrics.EventsPublished.Add(float64(len(events)))
		p.logger.Info("events published", "count", len(events))
	}

	p.logger.Info("pipeline complete")
	return nil
}

// fetchRange fetches and stitches the configured year range for a box, with
// per-slab retry.
func (p *Pipeline) fetchRange(ctx context.Context, box grid.Box) (*grid.Grid, error) {
	var combined *grid.Grid
	for year := p.cfg.StartYear; year <= p.cfg.EndYear; year++ {
		fetchStart := time.Now()
		g, err := p.fetchWithRetry(ctx, year, box)
		if err != nil {
			return nil, err
		}
		// Servers round the requested bounds to their grid, so re-slice to
		// keep only cells inside the box.
		g = g.Subset(box)
		p.metrics.SlabsFetched.Inc()
		p.metrics.SlabFetchDuration.Observe(time.Since(fetchStart).Seconds())
		p.ready.Store(true)

		if combined == nil {
			combined = g
			continue
		}
		if err := combined.AppendTime(g); err != nil {
			return nil, fmt.Errorf("stitch %d: %w", year, err)
		}
	}
	return combined, nil
}

// fetchWithRetry fetches one slab with exponential backoff: start at 200ms,
// double each retry, cap at 5s, give up after the configured attempt count.
func (p *Pipeline) fetchWithRetry(ctx context.Context, year int, box grid.Box) (*grid.Grid, error) {
	backoff := 200 * time.Millisecond
	const maxBackoff = 5 * time.Second

	attempts := max(p.cfg.FetchRetries, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		g, err := p.fetcher.FetchYear(ctx, year, box)
		if err == nil {
			return g, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		p.logger.Warn("slab fetch failed",
			"year", year,
			"attempt", attempt,
			"attempts", attempts,
			"error", err,
		)
		p.metrics.FetchRetries.Inc()

		if attempt == attempts {
			break
		}
		if !sleepWithContext(ctx, backoff) {
			return nil, ctx.Err()
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
	return nil, fmt.Errorf("fetch %d slab after %d attempts: %w", year, attempts, lastErr)
}

// writeArtifacts renders the plots and writes the Parquet exports into the
// output directory.
func (p *Pipeline) writeArtifacts(s domain.Series, clim domain.Climatology, events []domain.Event, anom domain.Series) error {
	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	title := fmt.Sprintf("Marine heatwaves: %s %d-%d", p.cfg.RegionName, p.cfg.StartYear, p.cfg.EndYear)
	sstPlot := filepath.Join(p.cfg.OutputDir, fmt.Sprintf("mhw_%s.png", p.cfg.RegionName))
	if err := p.renderer.RenderSST(s, clim, events, title, sstPlot); err != nil {
		return err
	}
	p.metrics.ArtifactsWritten.WithLabelValues("plot").Inc()

	ninoPlot := filepath.Join(p.cfg.OutputDir, "nino34.png")
	if err := p.renderer.RenderNino(anom, ninoPlot); err != nil {
		return err
	}
	p.metrics.ArtifactsWritten.WithLabelValues("plot").Inc()

	eventsFile := filepath.Join(p.cfg.OutputDir, "mhw_events.parquet")
	if err := p.exporter.WriteEvents(events, eventsFile); err != nil {
		return err
	}
	p.metrics.ArtifactsWritten.WithLabelValues("parquet").Inc()

	seriesFile := filepath.Join(p.cfg.OutputDir, "mhw_series.parquet")
	if err := p.exporter.WriteSeries(s, clim, seriesFile); err != nil {
		return err
	}
	p.metrics.ArtifactsWritten.WithLabelValues("parquet").Inc()

	return nil
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
