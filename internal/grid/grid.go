// Package grid holds gridded SST subsets and reduces them to area-mean
// daily series.
package grid

import (
	"fmt"
	"math"
	"time"

	"github.com/scottwales/marine-heatwaves/internal/domain"
)

// Box is a latitude/longitude bounding box, degrees north and degrees east
// on the dataset's longitude convention (OISST uses 0–360).
type Box struct {
	LatMin, LatMax float64
	LonMin, LonMax float64
}

// Nino34Box is the equatorial Pacific box defining the Niño 3.4 index:
// 5°S–5°N, 170°W–120°W (190°E–240°E).
var Nino34Box = Box{LatMin: -5, LatMax: 5, LonMin: 190, LonMax: 240}

func (b Box) String() string {
	return fmt.Sprintf("[%g:%g]N [%g:%g]E", b.LatMin, b.LatMax, b.LonMin, b.LonMax)
}

// Grid is a time x latitude x longitude SST array with coordinate axes.
// Values[t][j][i] is the cell at Times[t], Lats[j], Lons[i]; NaN marks land
// or missing cells. Axes are strictly increasing.
type Grid struct {
	Times  []time.Time
	Lats   []float64
	Lons   []float64
	Values [][][]float64
}

// New allocates a grid of NaN cells over the given axes.
func New(times []time.Time, lats, lons []float64) *Grid {
	values := make([][][]float64, len(times))
	for t := range values {
		values[t] = make([][]float64, len(lats))
		for j := range values[t] {
			row := make([]float64, len(lons))
			for i := range row {
				row[i] = math.NaN()
			}
			values[t][j] = row
		}
	}
	return &Grid{Times: times, Lats: lats, Lons: lons, Values: values}
}

// Subset restricts the grid to cells inside the box. The time axis is shared
// with the receiver; cell values are copied by reference per row.
func (g *Grid) Subset(box Box) *Grid {
	var jIdx, iIdx []int
	var lats, lons []float64
	for j, lat := range g.Lats {
		if lat >= box.LatMin && lat <= box.LatMax {
			jIdx = append(jIdx, j)
			lats = append(lats, lat)
		}
	}
	for i, lon := range g.Lons {
		if lon >= box.LonMin && lon <= box.LonMax {
			iIdx = append(iIdx, i)
			lons = append(lons, lon)
		}
	}

	values := make([][][]float64, len(g.Times))
	for t := range g.Times {
		values[t] = make([][]float64, len(jIdx))
		for jj, j := range jIdx {
			row := make([]float64, len(iIdx))
			for ii, i := range iIdx {
				row[ii] = g.Values[t][j][i]
			}
			values[t][jj] = row
		}
	}
	return &Grid{Times: g.Times, Lats: lats, Lons: lons, Values: values}
}

// AreaMean reduces the spatial dimensions to a daily series by averaging
// valid cells with cosine-latitude weights, so high-latitude cells do not
// over-count relative to their surface area. A time step with no valid cells
// yields NaN.
func (g *Grid) AreaMean() domain.Series {
	temps := make([]float64, len(g.Times))
	weights := make([]float64, len(g.Lats))
	for j, lat := range g.Lats {
		weights[j] = math.Cos(lat * math.Pi / 180)
	}

	for t := range g.Times {
		var sum, wsum float64
		for j := range g.Lats {
			for i := range g.Lons {
				v := g.Values[t][j][i]
				if math.IsNaN(v) {
					continue
				}
				sum += v * weights[j]
				wsum += weights[j]
			}
		}
		if wsum == 0 {
			temps[t] = math.NaN()
			continue
		}
		temps[t] = sum / wsum
	}
	return domain.Series{Dates: g.Times, Temps: temps}
}

// AppendTime concatenates another grid along the time axis. The spatial axes
// must match and the other grid's times must follow the receiver's.
func (g *Grid) AppendTime(other *Grid) error {
	if !axesEqual(g.Lats, other.Lats) || !axesEqual(g.Lons, other.Lons) {
		return fmt.Errorf("append grid: spatial axes differ (%dx%d vs %dx%d)",
			len(g.Lats), len(g.Lons), len(other.Lats), len(other.Lons))
	}
	if len(g.Times) > 0 && len(other.Times) > 0 && !other.Times[0].After(g.Times[len(g.Times)-1]) {
		return fmt.Errorf("append grid: time %s does not follow %s",
			other.Times[0].Format(time.RFC3339), g.Times[len(g.Times)-1].Format(time.RFC3339))
	}
	g.Times = append(g.Times, other.Times...)
	g.Values = append(g.Values, other.Values...)
	return nil
}

// Window restricts the grid to time steps with start <= t <= end.
func (g *Grid) Window(start, end time.Time) *Grid {
	lo := 0
	for lo < len(g.Times) && g.Times[lo].Before(start) {
		lo++
	}
	hi := len(g.Times)
	for hi > lo && g.Times[hi-1].After(end) {
		hi--
	}
	return &Grid{Times: g.Times[lo:hi], Lats: g.Lats, Lons: g.Lons, Values: g.Values[lo:hi]}
}

func axesEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
