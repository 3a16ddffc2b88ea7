package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// analysis pipeline.
type Metrics struct {
	SlabsFetched      prometheus.Counter
	SlabFetchDuration prometheus.Histogram
	SlabCache         *prometheus.CounterVec // labels: result={hit,miss}
	FetchRetries      prometheus.Counter

	EventsDetected prometheus.Counter
	DetectDuration prometheus.Histogram

	EventsPublished  prometheus.Counter
	ArtifactsWritten *prometheus.CounterVec // labels: kind={plot,parquet}

	PipelineRunning prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		SlabsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mhw",
			Name:      "slabs_fetched_total",
			Help:      "Total yearly SST slabs fetched from the data source or cache.",
		}),
		SlabFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mhw",
			Name:      "slab_fetch_duration_seconds",
			Help:      "Duration of a single yearly slab fetch, including parsing.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
		}),
		SlabCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mhw",
			Name:      "slab_cache_total",
			Help:      "Slab cache lookups by result.",
		}, []string{"result"}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mhw",
			Name:      "fetch_retries_total",
			Help:      "Total slab fetch attempts that failed and were retried.",
		}),
		EventsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mhw",
			Name:      "events_detected_total",
			Help:      "Total marine heatwave events detected.",
		}),
		DetectDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mhw",
			Name:      "detect_duration_seconds",
			Help:      "Duration of climatology construction plus event detection.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mhw",
			Name:      "events_published_total",
			Help:      "Total events published to the Kafka sink.",
		}),
		ArtifactsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mhw",
			Name:      "artifacts_written_total",
			Help:      "Output artifacts written by kind.",
		}, []string{"kind"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mhw",
			Name:      "pipeline_running",
			Help:      "1 while the analysis pipeline is active, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.SlabsFetched,
		m.SlabFetchDuration,
		m.SlabCache,
		m.FetchRetries,
		m.EventsDetected,
		m.DetectDuration,
		m.EventsPublished,
		m.ArtifactsWritten,
		m.PipelineRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		SlabsFetched:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "mhw", Name: "slabs_fetched_total"}),
		SlabFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "mhw", Name: "slab_fetch_duration_seconds"}),
		SlabCache:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "mhw", Name: "slab_cache_total"}, []string{"result"}),
		FetchRetries:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "mhw", Name: "fetch_retries_total"}),
		EventsDetected:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "mhw", Name: "events_detected_total"}),
		DetectDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "mhw", Name: "detect_duration_seconds"}),
		EventsPublished:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "mhw", Name: "events_published_total"}),
		ArtifactsWritten:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "mhw", Name: "artifacts_written_total"}, []string{"kind"}),
		PipelineRunning:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "mhw", Name: "pipeline_running"}),
	}
}
