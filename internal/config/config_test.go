package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://coastwatch.pfeg.noaa.gov/erddap", cfg.ERDDAPBaseURL)
	assert.Equal(t, "ncdcOisst21Agg", cfg.DatasetID)
	assert.Equal(t, "sst", cfg.DatasetVariable)
	assert.True(t, cfg.DatasetHasDepth)
	assert.Equal(t, time.Minute, cfg.FetchTimeout)
	assert.Equal(t, 5, cfg.FetchRetries)
	assert.Equal(t, "data/cache", cfg.CacheDir)

	assert.Equal(t, 2012, cfg.StartYear)
	assert.Equal(t, 2016, cfg.EndYear)
	assert.Equal(t, "tasman-sea", cfg.RegionName)
	assert.Equal(t, -45.0, cfg.Region.LatMin)
	assert.Equal(t, -37.0, cfg.Region.LatMax)
	assert.Equal(t, 147.0, cfg.Region.LonMin)
	assert.Equal(t, 155.0, cfg.Region.LonMax)

	assert.InDelta(t, 0.9, cfg.Climatology.Percentile, 1e-9)
	assert.Equal(t, 5, cfg.Climatology.WindowHalfWidth)
	assert.Equal(t, 31, cfg.Climatology.SmoothWidth)
	assert.Equal(t, 5, cfg.Detect.MinDuration)
	assert.Equal(t, 2, cfg.Detect.MaxGap)
	assert.Equal(t, 31, cfg.NinoSmoothDays)

	assert.Equal(t, "data/out", cfg.OutputDir)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "marine-heatwave-events", cfg.KafkaTopic)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("ERDDAP_BASE_URL", "http://localhost:8088/erddap")
	t.Setenv("OISST_DATASET_ID", "testDataset")
	t.Setenv("OISST_HAS_DEPTH", "false")
	t.Setenv("FETCH_TIMEOUT", "30s")
	t.Setenv("FETCH_RETRIES", "2")
	t.Setenv("START_YEAR", "1982")
	t.Setenv("END_YEAR", "1990")
	t.Setenv("REGION_NAME", "nino34")
	t.Setenv("REGION_LAT_MIN", "-5")
	t.Setenv("REGION_LAT_MAX", "5")
	t.Setenv("REGION_LON_MIN", "190")
	t.Setenv("REGION_LON_MAX", "240")
	t.Setenv("CLIM_BASE_START_YEAR", "1983")
	t.Setenv("CLIM_BASE_END_YEAR", "1989")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8088/erddap", cfg.ERDDAPBaseURL)
	assert.Equal(t, "testDataset", cfg.DatasetID)
	assert.False(t, cfg.DatasetHasDepth)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 2, cfg.FetchRetries)
	assert.Equal(t, 1982, cfg.StartYear)
	assert.Equal(t, 1990, cfg.EndYear)
	assert.Equal(t, "nino34", cfg.RegionName)
	assert.Equal(t, 5.0, cfg.Region.LatMax)
	assert.Equal(t, 1983, cfg.Climatology.BaseStartYear)
	assert.Equal(t, 1989, cfg.Climatology.BaseEndYear)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"years reversed", "START_YEAR", "2020", "after END_YEAR"},
		{"degenerate region", "REGION_LAT_MIN", "-30", "degenerate region"},
		{"percentile too high", "CLIM_PERCENTILE", "1.5", "outside (0, 1)"},
		{"percentile zero", "CLIM_PERCENTILE", "0", "outside (0, 1)"},
		{"negative window", "CLIM_WINDOW_HALF_WIDTH", "-1", "must not be negative"},
		{"zero min duration", "MIN_EVENT_DURATION", "0", "at least 1"},
		{"negative gap", "MAX_EVENT_GAP", "-2", "must not be negative"},
		{"lone base start year", "CLIM_BASE_START_YEAR", "1983", "set together"},
		{"bad timeout", "FETCH_TIMEOUT", "soon", "invalid FETCH_TIMEOUT"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_KafkaEnabledNeedsBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", " , ")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}
