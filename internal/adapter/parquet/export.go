// Package parquet exports detection results as columnar files for
// downstream analysis tooling.
package parquet

import (
	"fmt"
	"log/slog"
	"os"

	parquetgo "github.com/parquet-go/parquet-go"

	"github.com/scottwales/marine-heatwaves/internal/domain"
)

// EventRow matches the events Parquet schema. Dates are ISO strings,
// timestamps epoch seconds.
type EventRow struct {
	ID            string  `parquet:"id"`
	Region        string  `parquet:"region"`
	Start         string  `parquet:"start"`
	End           string  `parquet:"end"`
	DurationDays  int32   `parquet:"duration_days"`
	PeakDate      string  `parquet:"peak_date"`
	MaxIntensity  float64 `parquet:"max_intensity"`
	MeanIntensity float64 `parquet:"mean_intensity"`
	CumIntensity  float64 `parquet:"cum_intensity"`
	Category      string  `parquet:"category"`
	DetectedAt    int64   `parquet:"detected_at"`
}

// SeriesRow matches the daily series Parquet schema: the observed SST with
// its aligned climatology.
type SeriesRow struct {
	Date      string  `parquet:"date"`
	SST       float64 `parquet:"sst"`
	Seasonal  float64 `parquet:"seasonal"`
	Threshold float64 `parquet:"threshold"`
}

const dateLayout = "2006-01-02"

// Exporter writes detection results to Parquet files.
type Exporter struct {
	logger *slog.Logger
}

// NewExporter creates a Parquet exporter.
func NewExporter(logger *slog.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// WriteEvents writes the detected events to path.
func (e *Exporter) WriteEvents(events []domain.Event, path string) error {
	rows := make([]EventRow, len(events))
	for i, ev := range events {
		rows[i] = EventRow{
			ID:            ev.ID,
			Region:        ev.Region,
			Start:         ev.Start.Format(dateLayout),
			End:           ev.End.Format(dateLayout),
			DurationDays:  int32(ev.Duration),
			PeakDate:      ev.PeakDate.Format(dateLayout),
			MaxIntensity:  ev.MaxIntensity,
			MeanIntensity: ev.MeanIntensity,
			CumIntensity:  ev.CumIntensity,
			Category:      ev.Category,
			DetectedAt:    ev.DetectedAt.Unix(),
		}
	}
	if err := writeRows(path, rows); err != nil {
		return fmt.Errorf("write events parquet: %w", err)
	}
	e.logger.Info("wrote events parquet", "path", path, "rows", len(rows))
	return nil
}

// WriteSeries writes the daily series and its aligned climatology to path.
func (e *Exporter) WriteSeries(s domain.Series, clim domain.Climatology, path string) error {
	if s.Len() != len(clim.Seas) {
		return fmt.Errorf("write series parquet: series length %d does not match climatology length %d", s.Len(), len(clim.Seas))
	}
	rows := make([]SeriesRow, s.Len())
	for i := range rows {
		rows[i] = SeriesRow{
			Date:      s.Dates[i].Format(dateLayout),
			SST:       s.Temps[i],
			Seasonal:  clim.Seas[i],
			Threshold: clim.Thresh[i],
		}
	}
	if err := writeRows(path, rows); err != nil {
		return fmt.Errorf("write series parquet: %w", err)
	}
	e.logger.Info("wrote series parquet", "path", path, "rows", len(rows))
	return nil
}

func writeRows[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := parquetgo.NewGenericWriter[T](f)
	if _, err := w.Write(rows); err != nil {
		f.Close()
		return err
	}
	if err := w.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
