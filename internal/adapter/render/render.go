// Package render draws the analysis plots with gonum/plot.
package render

import (
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/scottwales/marine-heatwaves/internal/domain"
)

var (
	sstColor    = color.NRGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
	seasColor   = color.NRGBA{R: 0x31, G: 0x82, B: 0xbd, A: 0xff}
	threshColor = color.NRGBA{R: 0x2c, G: 0xa2, B: 0x5f, A: 0xff}
	eventFill   = color.NRGBA{R: 0xde, G: 0x2d, B: 0x26, A: 0x60}
	refColor    = color.NRGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
)

// Renderer writes PNG plots of the detection results.
type Renderer struct {
	width, height vg.Length
	logger        *slog.Logger
}

// New creates a Renderer with the conventional wide time-series aspect.
func New(logger *slog.Logger) *Renderer {
	return &Renderer{width: 12 * vg.Inch, height: 5 * vg.Inch, logger: logger}
}

// RenderSST draws the SST series with its seasonal baseline and threshold,
// shading each detected event between the threshold and the observed curve,
// and saves the plot to path.
func (r *Renderer) RenderSST(s domain.Series, clim domain.Climatology, events []domain.Event, title, path string) error {
	if s.Len() == 0 {
		return fmt.Errorf("render sst: empty series")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "SST (°C)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}

	// Shade events underneath the curves.
	for _, ev := range events {
		poly, err := plotter.NewPolygon(eventOutline(s, clim, ev))
		if err != nil {
			return fmt.Errorf("render sst: event polygon: %w", err)
		}
		poly.Color = eventFill
		poly.LineStyle.Color = color.NRGBA{}
		p.Add(poly)
	}

	sst, err := seriesLine(s.Dates, s.Temps, sstColor, nil)
	if err != nil {
		return fmt.Errorf("render sst: %w", err)
	}
	seas, err := seriesLine(s.Dates, clim.Seas, seasColor, nil)
	if err != nil {
		return fmt.Errorf("render sst: %w", err)
	}
	thresh, err := seriesLine(s.Dates, clim.Thresh, threshColor, []vg.Length{vg.Points(4), vg.Points(3)})
	if err != nil {
		return fmt.Errorf("render sst: %w", err)
	}

	p.Add(sst, seas, thresh)
	p.Legend.Add("SST", sst)
	p.Legend.Add("climatology", seas)
	p.Legend.Add("threshold", thresh)
	p.Legend.Top = true

	if err := p.Save(r.width, r.height, path); err != nil {
		return fmt.Errorf("render sst: save %s: %w", path, err)
	}
	r.logger.Info("wrote sst plot", "path", path, "events", len(events))
	return nil
}

// RenderNino draws the Niño 3.4 anomaly with the conventional ±0.5 °C
// El Niño / La Niña reference lines and saves the plot to path.
func (r *Renderer) RenderNino(anom domain.Series, path string) error {
	if anom.Len() == 0 {
		return fmt.Errorf("render nino: empty series")
	}

	p := plot.New()
	p.Title.Text = "Niño 3.4 index"
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "SST anomaly (°C)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}

	line, err := seriesLine(anom.Dates, anom.Temps, seasColor, nil)
	if err != nil {
		return fmt.Errorf("render nino: %w", err)
	}
	p.Add(line)

	x0 := float64(anom.Dates[0].Unix())
	x1 := float64(anom.Dates[anom.Len()-1].Unix())
	for _, y := range []float64{-0.5, 0, 0.5} {
		ref, err := plotter.NewLine(plotter.XYs{{X: x0, Y: y}, {X: x1, Y: y}})
		if err != nil {
			return fmt.Errorf("render nino: reference line: %w", err)
		}
		ref.LineStyle.Color = refColor
		ref.LineStyle.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		p.Add(ref)
	}

	if err := p.Save(r.width, r.height, path); err != nil {
		return fmt.Errorf("render nino: save %s: %w", path, err)
	}
	r.logger.Info("wrote nino plot", "path", path)
	return nil
}

// seriesLine builds a line through the valid points of a series.
func seriesLine(dates []time.Time, values []float64, c color.Color, dashes []vg.Length) (*plotter.Line, error) {
	xys := make(plotter.XYs, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(dates[i].Unix()), Y: v})
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = vg.Points(1)
	line.LineStyle.Dashes = dashes
	return line, nil
}

// eventOutline traces the observed curve across the event span and back
// along the threshold, closing the shaded region.
func eventOutline(s domain.Series, clim domain.Climatology, ev domain.Event) plotter.XYs {
	var xys plotter.XYs
	for i := ev.StartIndex; i <= ev.EndIndex && i < s.Len(); i++ {
		if math.IsNaN(s.Temps[i]) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(s.Dates[i].Unix()), Y: s.Temps[i]})
	}
	for i := min(ev.EndIndex, s.Len()-1); i >= ev.StartIndex; i-- {
		xys = append(xys, plotter.XY{X: float64(s.Dates[i].Unix()), Y: clim.Thresh[i]})
	}
	return xys
}
