package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "powerstats/internal/errors"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "powerstats.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, DefaultWorkers, cfg.Loader.Workers)

	assert.Equal(t, "Statistics", cfg.Hourly.Sheet)
	assert.Equal(t, 9, cfg.Hourly.SkipRows)
	assert.Equal(t, 26, cfg.Hourly.MaxColumns)
	assert.Equal(t, "3B:00:00", cfg.Hourly.HourChangeLabel)
	assert.Equal(t, "n.a.", cfg.Hourly.Sentinel)
	assert.Equal(t, 23, cfg.Hourly.MinHours)
	assert.Equal(t, "day-first", cfg.Hourly.DateOrder)

	assert.Equal(t, 7, cfg.Monthly.SkipRows)
	assert.Equal(t, "Year:", cfg.Monthly.YearLabel)

	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, CachePolicyModTime, cfg.Cache.Policy)
	assert.False(t, cfg.Tracing.Enabled)
	assert.True(t, cfg.Export.BOM)
	assert.Equal(t, "Data", cfg.Export.Sheet)
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: debug
hourly:
  dir: /data/hourly
  skip_rows: 8
monthly:
  dir: /data/monthly
cache:
  policy: content
indicators:
  - name: inflation
    preset: inflation
    path: /data/eurostat/inflation_tec00118.xlsx
`)

	t.Setenv("POWERSTATS_HOURLY_SKIP_ROWS", "10")
	t.Setenv("POWERSTATS_LOADER_WORKERS", "2")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/data/hourly", cfg.Hourly.Dir)
	assert.Equal(t, 10, cfg.Hourly.SkipRows, "env must win over file")
	assert.Equal(t, 2, cfg.Loader.Workers)
	assert.Equal(t, "/data/monthly", cfg.Monthly.Dir)
	assert.Equal(t, "Statistics", cfg.Monthly.Sheet, "defaults survive a partial file")
	assert.Equal(t, CachePolicyContent, cfg.Cache.Policy)

	require.Len(t, cfg.Indicators, 1)
	assert.Equal(t, "inflation", cfg.Indicators[0].Preset)
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown cache policy", body: "cache:\n  policy: hash\n"},
		{name: "zero workers", body: "loader:\n  workers: 0\n"},
		{name: "too few hourly columns", body: "hourly:\n  max_columns: 12\n"},
		{name: "unknown date order", body: "hourly:\n  date_order: year-first\n"},
		{name: "bad log level", body: "logging:\n  level: chatty\n"},
		{name: "empty export sheet", body: "export:\n  sheet: \"\"\n"},
		{name: "indicator without path", body: "indicators:\n  - name: gdp\n"},
		{name: "unknown indicator preset", body: "indicators:\n  - name: gdp\n    path: x.tsv\n    preset: cpi\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfigFile(t, tt.body))
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfigFile(t, "hourly: [unterminated"))
	assert.Error(t, err)
}
