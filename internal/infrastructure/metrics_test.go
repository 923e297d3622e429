package infrastructure

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewLoadMetrics(reg)
	require.NoError(t, err)

	m.FileProcessed("hourly", "ok")
	m.FileProcessed("hourly", "ok")
	m.FileProcessed("hourly", "error")
	m.RowsLoaded("hourly", 62)
	m.RowsDropped("hourly", "missing_hours", 3)
	m.RowsDropped("hourly", "missing_hours", 0)
	m.CacheLookup("monthly", "miss")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.files.WithLabelValues("hourly", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.files.WithLabelValues("hourly", "error")))
	assert.Equal(t, 62.0, testutil.ToFloat64(m.rows.WithLabelValues("hourly")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.droppedRows.WithLabelValues("hourly", "missing_hours")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("monthly", "miss")))
}

func TestLoadMetrics_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewLoadMetrics(reg)
	require.NoError(t, err)
	_, err = NewLoadMetrics(reg)
	assert.Error(t, err)
}

func TestLoadMetrics_NilIsNoop(t *testing.T) {
	var m *LoadMetrics
	assert.NotPanics(t, func() {
		m.FileProcessed("hourly", "ok")
		m.RowsLoaded("hourly", 1)
		m.RowsDropped("hourly", "x", 1)
		m.CacheLookup("hourly", "hit")
	})
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewLoadMetrics(reg)
	require.NoError(t, err)
	m.RowsLoaded("monthly", 24)

	path := filepath.Join(t.TempDir(), "powerstats.prom")
	require.NoError(t, WriteTextfile(path, reg))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `powerstats_rows_total{dataset="monthly"} 24`)
}
