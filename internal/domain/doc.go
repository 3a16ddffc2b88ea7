// Package domain models daily sea-surface-temperature (SST) series and
// implements marine heatwave (MHW) detection over them.
//
// # Data Source
//
// SST observations come from the NOAA Optimum Interpolation SST (OISST)
// v2.1 analysis, a daily 0.25° global grid blending satellite AVHRR
// retrievals with in-situ ship and buoy reports. The adapter layer fetches
// regional subsets over ERDDAP and reduces them to area-mean daily series;
// this package only ever sees a 1-D series of (date, °C) pairs at strictly
// daily cadence.
//
// # Marine Heatwave Definition
//
// An MHW is a discrete period during which daily SST exceeds a seasonally
// varying threshold:
//
//	Climatology: for each day of year, pool all observations from the base
//	period falling within ±WindowHalfWidth days of that day of year (across
//	every base year), take the mean as the seasonal baseline and a high
//	percentile (90th by default) as the threshold, then smooth both with a
//	circular moving average of SmoothWidth days.
//
//	Events: flag each day strictly above the threshold, keep contiguous runs
//	of at least MinDuration days (5 by default), then merge qualifying runs
//	separated by gaps of at most MaxGap days (2 by default) into single
//	events.
//
// Intensity is always measured against the seasonal baseline, not the
// threshold: an event's max intensity is the largest (SST − baseline)
// deviation between its start and end days.
//
// # Leap Years
//
// Days of year live on a fixed 366-day calendar: in non-leap years every
// day from March 1 onward shifts up by one so that a given calendar date
// always maps to the same slot. February 29 has no observations of its own
// outside leap years, but the ±WindowHalfWidth pooling keeps its slot
// populated, so the climatology stays periodic across leap and non-leap
// years alike.
//
// # Severity Categories
//
// Events carry a category derived from how many multiples of the local
// threshold exceedance (threshold − baseline) the peak intensity reaches:
//
//	< 2×  moderate
//	< 3×  strong
//	< 4×  severe
//	≥ 4×  extreme
//
// # ID Generation
//
// Event IDs are deterministic SHA-256 hashes of region|start|end|peak.
// Re-running the same analysis window produces the same IDs, so downstream
// consumers can upsert idempotently. See [generateID].
//
// # Niño 3.4
//
// The Niño 3.4 index tracks El Niño / La Niña state: area-mean SST over
// 5°S–5°N, 170°W–120°W minus its own day-of-year climatology, smoothed
// with a centered running mean. Values beyond ±0.5 °C conventionally mark
// El Niño (warm) and La Niña (cold) conditions.
package domain
