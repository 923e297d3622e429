package consumption

import (
	"log/slog"

	"github.com/hashicorp/go-multierror"
)

// Drop reasons, also used as metric labels
const (
	DropMissingHours = "missing_hours"
	DropInvalidDate  = "invalid_date"
	DropNoCountry    = "no_country"
)

// LoadReport summarises one table build
type LoadReport struct {
	Dataset   string
	Files     int
	Loaded    int
	Rows      int
	Dropped   map[string]int
	FromCache bool
	// Errors holds the per-file failures; those files contributed no rows
	Errors *multierror.Error
}

func newReport(dataset string, files int) *LoadReport {
	return &LoadReport{Dataset: dataset, Files: files, Dropped: make(map[string]int)}
}

// Err returns the per-file failures as one error, or nil
func (r *LoadReport) Err() error {
	return r.Errors.ErrorOrNil()
}

// LogValue implements slog.LogValuer
func (r *LoadReport) LogValue() slog.Value {
	failed := 0
	if r.Errors != nil {
		failed = len(r.Errors.Errors)
	}
	attrs := []slog.Attr{
		slog.String("dataset", r.Dataset),
		slog.Int("files", r.Files),
		slog.Int("loaded", r.Loaded),
		slog.Int("failed", failed),
		slog.Int("rows", r.Rows),
		slog.Bool("from_cache", r.FromCache),
	}
	for reason, n := range r.Dropped {
		attrs = append(attrs, slog.Int("dropped_"+reason, n))
	}
	return slog.GroupValue(attrs...)
}

// Dataset kinds, used in logs, metrics and snapshot manifests
const (
	DatasetHourly  = "hourly"
	DatasetMonthly = "monthly"
)
