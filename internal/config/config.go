package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/scottwales/marine-heatwaves/internal/domain"
	"github.com/scottwales/marine-heatwaves/internal/grid"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Data source.
	ERDDAPBaseURL   string
	DatasetID       string
	DatasetVariable string
	DatasetHasDepth bool
	FetchTimeout    time.Duration
	FetchRetries    int
	CacheDir        string

	// Analysis window and region.
	StartYear  int
	EndYear    int
	RegionName string
	Region     grid.Box

	// Detector parameters.
	Climatology    domain.ClimatologyParams
	Detect         domain.DetectParams
	NinoSmoothDays int

	// Output artifacts.
	OutputDir string

	// Kafka event sink (feature-flagged via KAFKA_ENABLED).
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset. The default region is a Tasman Sea box off southeast
// Australia, a well-studied marine heatwave hotspot.
func Load() (*Config, error) {
	fetchTimeout, err := durationEnv("FETCH_TIMEOUT", time.Minute)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	kafkaEnabled := false
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		ERDDAPBaseURL:   envOrDefault("ERDDAP_BASE_URL", "https://coastwatch.pfeg.noaa.gov/erddap"),
		DatasetID:       envOrDefault("OISST_DATASET_ID", "ncdcOisst21Agg"),
		DatasetVariable: envOrDefault("OISST_VARIABLE", "sst"),
		DatasetHasDepth: boolEnv("OISST_HAS_DEPTH", true),
		FetchTimeout:    fetchTimeout,
		FetchRetries:    intEnv("FETCH_RETRIES", 5),
		CacheDir:        envOrDefault("CACHE_DIR", "data/cache"),

		StartYear:  intEnv("START_YEAR", 2012),
		EndYear:    intEnv("END_YEAR", 2016),
		RegionName: envOrDefault("REGION_NAME", "tasman-sea"),
		Region: grid.Box{
			LatMin: floatEnv("REGION_LAT_MIN", -45),
			LatMax: floatEnv("REGION_LAT_MAX", -37),
			LonMin: floatEnv("REGION_LON_MIN", 147),
			LonMax: floatEnv("REGION_LON_MAX", 155),
		},

		Climatology: domain.ClimatologyParams{
			Percentile:      floatEnv("CLIM_PERCENTILE", 0.9),
			WindowHalfWidth: intEnv("CLIM_WINDOW_HALF_WIDTH", 5),
			SmoothWidth:     intEnv("CLIM_SMOOTH_WIDTH", 31),
			BaseStartYear:   intEnv("CLIM_BASE_START_YEAR", 0),
			BaseEndYear:     intEnv("CLIM_BASE_END_YEAR", 0),
		},
		Detect: domain.DetectParams{
			MinDuration: intEnv("MIN_EVENT_DURATION", 5),
			MaxGap:      intEnv("MAX_EVENT_GAP", 2),
		},
		NinoSmoothDays: intEnv("NINO_SMOOTH_DAYS", 31),

		OutputDir: envOrDefault("OUTPUT_DIR", "data/out"),

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: splitList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "marine-heatwave-events"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ERDDAPBaseURL == "" {
		return errors.New("ERDDAP_BASE_URL is required")
	}
	if c.DatasetID == "" {
		return errors.New("OISST_DATASET_ID is required")
	}
	if c.StartYear > c.EndYear {
		return fmt.Errorf("START_YEAR %d after END_YEAR %d", c.StartYear, c.EndYear)
	}
	if c.Region.LatMin >= c.Region.LatMax || c.Region.LonMin >= c.Region.LonMax {
		return fmt.Errorf("degenerate region box %s", c.Region)
	}
	if p := c.Climatology.Percentile; p <= 0 || p >= 1 {
		return fmt.Errorf("CLIM_PERCENTILE %v outside (0, 1)", p)
	}
	if c.Climatology.WindowHalfWidth < 0 {
		return errors.New("CLIM_WINDOW_HALF_WIDTH must not be negative")
	}
	if c.Detect.MinDuration < 1 {
		return errors.New("MIN_EVENT_DURATION must be at least 1")
	}
	if c.Detect.MaxGap < 0 {
		return errors.New("MAX_EVENT_GAP must not be negative")
	}
	if (c.Climatology.BaseStartYear == 0) != (c.Climatology.BaseEndYear == 0) {
		return errors.New("CLIM_BASE_START_YEAR and CLIM_BASE_END_YEAR must be set together")
	}
	if c.Climatology.BaseStartYear != 0 && c.Climatology.BaseStartYear > c.Climatology.BaseEndYear {
		return fmt.Errorf("CLIM_BASE_START_YEAR %d after CLIM_BASE_END_YEAR %d",
			c.Climatology.BaseStartYear, c.Climatology.BaseEndYear)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if c.KafkaEnabled && c.KafkaTopic == "" {
		return errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is not set")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

func floatEnv(key string, fallback float64) float64 {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if s := os.Getenv(key); s != "" {
		return s == "true"
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
