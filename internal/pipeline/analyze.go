package pipeline

import (
	"log/slog"

	"github.com/scottwales/marine-heatwaves/internal/config"
	"github.com/scottwales/marine-heatwaves/internal/domain"
)

// MHWAnalyzer implements Analyzer using the domain detection functions.
type MHWAnalyzer struct {
	region         string
	climParams     domain.ClimatologyParams
	detectParams   domain.DetectParams
	ninoSmoothDays int
	logger         *slog.Logger
}

// NewAnalyzer creates an MHWAnalyzer from the configured detector parameters.
func NewAnalyzer(cfg *config.Config, logger *slog.Logger) *MHWAnalyzer {
	return &MHWAnalyzer{
		region:         cfg.RegionName,
		climParams:     cfg.Climatology,
		detectParams:   cfg.Detect,
		ninoSmoothDays: cfg.NinoSmoothDays,
		logger:         logger,
	}
}

func (a *MHWAnalyzer) DetectEvents(s domain.Series) ([]domain.Event, domain.Climatology, error) {
	clim, err := domain.BuildClimatology(s, a.climParams)
	if err != nil {
		return nil, domain.Climatology{}, err
	}
	events, err := domain.DetectEvents(a.region, s, clim, a.detectParams)
	if err != nil {
		return nil, domain.Climatology{}, err
	}
	for _, ev := range events {
		a.logger.Debug("event detected",
			"id", ev.ID,
			"start", ev.Start.Format("2006-01-02"),
			"end", ev.End.Format("2006-01-02"),
			"max_intensity", ev.MaxIntensity,
			"category", ev.Category,
		)
	}
	return events, clim, nil
}

func (a *MHWAnalyzer) AnomalyIndex(s domain.Series) (domain.Series, error) {
	return domain.Nino34Index(s, a.climParams, a.ninoSmoothDays)
}
