package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LoadMetrics counts what the dataset builders read, drop and reuse.
// A nil *LoadMetrics is valid and records nothing.
type LoadMetrics struct {
	files        *prometheus.CounterVec
	rows         *prometheus.CounterVec
	droppedRows  *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
}

// NewLoadMetrics registers the load counters on reg
func NewLoadMetrics(reg prometheus.Registerer) (*LoadMetrics, error) {
	m := &LoadMetrics{
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "powerstats",
			Name:      "files_total",
			Help:      "Spreadsheet files processed, by dataset and outcome.",
		}, []string{"dataset", "outcome"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "powerstats",
			Name:      "rows_total",
			Help:      "Rows loaded into a table, by dataset.",
		}, []string{"dataset"}),
		droppedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "powerstats",
			Name:      "rows_dropped_total",
			Help:      "Rows discarded during a build, by dataset and reason.",
		}, []string{"dataset", "reason"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "powerstats",
			Name:      "cache_lookups_total",
			Help:      "Snapshot cache lookups, by dataset and result.",
		}, []string{"dataset", "result"}),
	}

	for _, c := range []prometheus.Collector{m.files, m.rows, m.droppedRows, m.cacheLookups} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// FileProcessed records one file with outcome "ok" or "error"
func (m *LoadMetrics) FileProcessed(dataset, outcome string) {
	if m == nil {
		return
	}
	m.files.WithLabelValues(dataset, outcome).Inc()
}

// RowsLoaded adds n rows to the dataset total
func (m *LoadMetrics) RowsLoaded(dataset string, n int) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(dataset).Add(float64(n))
}

// RowsDropped adds n rows discarded for reason
func (m *LoadMetrics) RowsDropped(dataset, reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.droppedRows.WithLabelValues(dataset, reason).Add(float64(n))
}

// CacheLookup records a snapshot "hit", "miss" or "stale"
func (m *LoadMetrics) CacheLookup(dataset, result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(dataset, result).Inc()
}

// WriteTextfile dumps everything gathered by g in the node-exporter textfile format
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
