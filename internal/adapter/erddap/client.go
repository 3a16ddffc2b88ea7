// Package erddap fetches OISST subsets from a NOAA ERDDAP griddap endpoint.
//
// A griddap request encodes the time window and bounding box directly in the
// URL and the server returns the sliced sub-grid as CSV, one row per
// (time, lat, lon) cell, so the yearly remote files never have to be
// downloaded whole.
package erddap

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/scottwales/marine-heatwaves/internal/config"
	"github.com/scottwales/marine-heatwaves/internal/grid"
)

// Client fetches yearly SST slabs over HTTP.
type Client struct {
	baseURL    string
	dataset    string
	variable   string
	hasDepth   bool
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an ERDDAP griddap client for the configured dataset.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimSuffix(cfg.ERDDAPBaseURL, "/"),
		dataset:  cfg.DatasetID,
		variable: cfg.DatasetVariable,
		hasDepth: cfg.DatasetHasDepth,
		httpClient: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		logger: logger,
	}
}

// FetchYear downloads and parses one calendar year of the dataset restricted
// to the box.
func (c *Client) FetchYear(ctx context.Context, year int, box grid.Box) (*grid.Grid, error) {
	body, err := c.fetchRawYear(ctx, year, box)
	if err != nil {
		return nil, err
	}
	g, err := ParseCSV(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %d slab: %w", year, err)
	}
	return g, nil
}

// fetchRawYear performs the griddap request and returns the raw CSV body.
func (c *Client) fetchRawYear(ctx context.Context, year int, box grid.Box) ([]byte, error) {
	fullURL := c.queryURL(year, box)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.logger.Debug("fetching slab", "year", year, "box", box.String(), "url", fullURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("griddap request for %d: %w", year, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("erddap error for %d: status %d: %s", year, resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read griddap response for %d: %w", year, err)
	}
	return body, nil
}

// queryURL builds the griddap slice expression for one calendar year.
// OISST analysis timestamps sit at 12:00 UTC.
func (c *Client) queryURL(year int, box grid.Box) string {
	start := fmt.Sprintf("%d-01-01T12:00:00Z", year)
	end := fmt.Sprintf("%d-12-31T12:00:00Z", year)

	var q strings.Builder
	fmt.Fprintf(&q, "%s[(%s):(%s)]", c.variable, start, end)
	if c.hasDepth {
		q.WriteString("[(0.0):(0.0)]")
	}
	fmt.Fprintf(&q, "[(%g):(%g)][(%g):(%g)]", box.LatMin, box.LatMax, box.LonMin, box.LonMax)

	return fmt.Sprintf("%s/griddap/%s.csv?%s", c.baseURL, c.dataset, q.String())
}

// ParseCSV reads a griddap CSV response into a grid. The format is a header
// row naming the columns (time, optional zlev, latitude, longitude, then the
// variable), a units row, and one data row per cell with "NaN" for land.
func ParseCSV(r io.Reader) (*grid.Grid, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	timeCol, latCol, lonCol := -1, -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "time":
			timeCol = i
		case "latitude", "lat":
			latCol = i
		case "longitude", "lon":
			lonCol = i
		}
	}
	if timeCol < 0 || latCol < 0 || lonCol < 0 {
		return nil, fmt.Errorf("missing coordinate columns in header %v", header)
	}
	// The variable is always the last column in a griddap response.
	valCol := len(header) - 1
	if valCol == timeCol || valCol == latCol || valCol == lonCol {
		return nil, fmt.Errorf("no variable column in header %v", header)
	}

	type cell struct {
		t        time.Time
		lat, lon float64
		v        float64
	}
	var cells []cell
	timeSet := map[time.Time]struct{}{}
	latSet := map[float64]struct{}{}
	lonSet := map[float64]struct{}{}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(rec) <= valCol {
			return nil, fmt.Errorf("short row %v", rec)
		}

		t, err := time.Parse(time.RFC3339, strings.TrimSpace(rec[timeCol]))
		if err != nil {
			// The second line of a griddap response carries units, not data.
			if len(cells) == 0 {
				continue
			}
			return nil, fmt.Errorf("parse time %q: %w", rec[timeCol], err)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(rec[latCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("parse latitude %q: %w", rec[latCol], err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(rec[lonCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("parse longitude %q: %w", rec[lonCol], err)
		}

		v := math.NaN()
		if raw := strings.TrimSpace(rec[valCol]); raw != "" && raw != "NaN" {
			v, err = strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("parse value %q: %w", rec[valCol], err)
			}
		}

		cells = append(cells, cell{t: t.UTC(), lat: lat, lon: lon, v: v})
		timeSet[t.UTC()] = struct{}{}
		latSet[lat] = struct{}{}
		lonSet[lon] = struct{}{}
	}

	if len(cells) == 0 {
		return nil, fmt.Errorf("empty griddap response")
	}

	times := sortedTimes(timeSet)
	lats := sortedFloats(latSet)
	lons := sortedFloats(lonSet)

	timeIdx := make(map[time.Time]int, len(times))
	for i, t := range times {
		timeIdx[t] = i
	}
	latIdx := make(map[float64]int, len(lats))
	for i, v := range lats {
		latIdx[v] = i
	}
	lonIdx := make(map[float64]int, len(lons))
	for i, v := range lons {
		lonIdx[v] = i
	}

	g := grid.New(times, lats, lons)
	for _, c := range cells {
		g.Values[timeIdx[c.t]][latIdx[c.lat]][lonIdx[c.lon]] = c.v
	}
	return g, nil
}

func sortedTimes(set map[time.Time]struct{}) []time.Time {
	out := make([]time.Time, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func sortedFloats(set map[float64]struct{}) []float64 {
	out := make([]float64, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}
