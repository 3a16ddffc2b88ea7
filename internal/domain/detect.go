package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// DetectParams controls event qualification.
type DetectParams struct {
	// MinDuration is the minimum run length, in days, for a threshold
	// exceedance to qualify as an event.
	MinDuration int

	// MaxGap is the largest below-threshold gap, in days, bridged when
	// merging adjacent qualifying events.
	MaxGap int
}

// DefaultDetectParams are the conventional settings: 5-day minimum
// duration, 2-day join gap.
func DefaultDetectParams() DetectParams {
	return DetectParams{MinDuration: 5, MaxGap: 2}
}

// Event is a detected marine heatwave. Intensities are deviations from the
// seasonal baseline in °C; CumIntensity integrates them over the event
// (°C·days at daily cadence).
type Event struct {
	ID     string    `json:"id"`
	Region string    `json:"region"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`

	// StartIndex and EndIndex locate the event in the source series
	// (inclusive on both ends).
	StartIndex int `json:"start_index"`
	EndIndex   int `json:"end_index"`

	Duration      int       `json:"duration_days"`
	PeakDate      time.Time `json:"peak_date"`
	MaxIntensity  float64   `json:"max_intensity"`
	MeanIntensity float64   `json:"mean_intensity"`
	CumIntensity  float64   `json:"cum_intensity"`
	Category      string    `json:"category"`

	DetectedAt time.Time `json:"detected_at"`
}

// DetectEvents finds marine heatwaves in a series given its climatology.
//
// Days strictly above the threshold are flagged, contiguous flagged runs
// shorter than MinDuration are discarded, and surviving runs separated by
// at most MaxGap days are merged. Every event satisfies
// start <= end <= series end, and MaxIntensity is the largest deviation from
// the seasonal baseline between start and end.
func DetectEvents(region string, s Series, clim Climatology, p DetectParams) ([]Event, error) {
	if s.Len() != len(clim.Seas) || s.Len() != len(clim.Thresh) {
		return nil, fmt.Errorf("detect events: series length %d does not match climatology (%d seas, %d thresh)",
			s.Len(), len(clim.Seas), len(clim.Thresh))
	}
	if p.MinDuration < 1 {
		return nil, fmt.Errorf("detect events: min duration %d below 1", p.MinDuration)
	}

	runs := exceedanceRuns(s, clim)

	// Drop runs too short to qualify, then bridge small gaps between the
	// survivors. Ordering matters: a sub-minimum run never contributes to a
	// merged event.
	qualified := runs[:0]
	for _, r := range runs {
		if r.end-r.start+1 >= p.MinDuration {
			qualified = append(qualified, r)
		}
	}
	merged := joinRuns(qualified, p.MaxGap)

	events := make([]Event, 0, len(merged))
	for _, r := range merged {
		events = append(events, summarizeEvent(region, s, clim, r))
	}
	return events, nil
}

// run is a contiguous index range, inclusive on both ends.
type run struct {
	start, end int
}

// exceedanceRuns returns the maximal contiguous runs of days strictly above
// the threshold. NaN observations never exceed.
func exceedanceRuns(s Series, clim Climatology) []run {
	var runs []run
	inRun := false
	var start int
	for i := range s.Temps {
		above := validTemp(s.Temps[i]) && s.Temps[i] > clim.Thresh[i]
		switch {
		case above && !inRun:
			start = i
			inRun = true
		case !above && inRun:
			runs = append(runs, run{start: start, end: i - 1})
			inRun = false
		}
	}
	if inRun {
		runs = append(runs, run{start: start, end: len(s.Temps) - 1})
	}
	return runs
}

// joinRuns merges runs separated by gaps of at most maxGap days.
func joinRuns(runs []run, maxGap int) []run {
	if len(runs) == 0 {
		return nil
	}
	merged := []run{runs[0]}
	for _, r := range runs[1:] {
		last := &merged[len(merged)-1]
		if r.start-last.end-1 <= maxGap {
			last.end = r.end
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// summarizeEvent computes the intensity statistics for a merged run.
func summarizeEvent(region string, s Series, clim Climatology, r run) Event {
	peak := r.start
	var maxAnom, sumAnom float64
	for i := r.start; i <= r.end; i++ {
		anom := s.Temps[i] - clim.Seas[i]
		if !validTemp(s.Temps[i]) {
			continue
		}
		sumAnom += anom
		if i == r.start || anom > maxAnom {
			maxAnom = anom
			peak = i
		}
	}

	duration := r.end - r.start + 1
	ev := Event{
		Region:        region,
		Start:         s.Dates[r.start],
		End:           s.Dates[r.end],
		StartIndex:    r.start,
		EndIndex:      r.end,
		Duration:      duration,
		PeakDate:      s.Dates[peak],
		MaxIntensity:  maxAnom,
		MeanIntensity: sumAnom / float64(duration),
		CumIntensity:  sumAnom,
		Category:      deriveCategory(maxAnom, clim.Thresh[peak]-clim.Seas[peak]),
		DetectedAt:    clock.Now(),
	}
	ev.ID = generateID(region, ev.Start, ev.End, ev.PeakDate)
	return ev
}

// deriveCategory maps peak intensity to a severity label by how many
// multiples of the local threshold exceedance it reaches:
// <2x moderate, <3x strong, <4x severe, otherwise extreme.
func deriveCategory(maxIntensity, thresholdGap float64) string {
	if thresholdGap <= 0 {
		return "moderate"
	}
	switch mult := maxIntensity / thresholdGap; {
	case mult < 2:
		return "moderate"
	case mult < 3:
		return "strong"
	case mult < 4:
		return "severe"
	default:
		return "extreme"
	}
}

// generateID produces a deterministic ID from the event's key fields.
// Re-running the same analysis yields the same IDs, which lets downstream
// consumers deduplicate republished events.
func generateID(region string, start, end, peak time.Time) string {
	const layout = "2006-01-02"
	input := fmt.Sprintf("%s|%s|%s|%s", region, start.Format(layout), end.Format(layout), peak.Format(layout))
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if region == "" {
		return short
	}
	return region + "-" + short
}
