package consumption

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"powerstats/internal/cache"
	apperrors "powerstats/internal/errors"
	"powerstats/internal/files"
	"powerstats/internal/infrastructure"
	"powerstats/internal/spreadsheet"
)

// fileRows is what one source file contributed to a table
type fileRows[T any] struct {
	name    string
	rows    []T
	dropped map[string]int
}

func newFileRows[T any](name string) *fileRows[T] {
	return &fileRows[T]{name: name, dropped: make(map[string]int)}
}

func (f *fileRows[T]) droppedTotal() int {
	n := 0
	for _, c := range f.dropped {
		n += c
	}
	return n
}

// builder runs the shared build protocol of both consumption tables:
// discover the files, reuse the snapshot when it is still valid, otherwise
// parse every file in isolation and save a new snapshot only when no file
// failed.
type builder[T, S any] struct {
	dataset string
	dir     string
	pattern string
	loader  *spreadsheet.Loader
	store   *cache.Store[S]
	rebuild bool
	logger  *slog.Logger
	metrics *infrastructure.LoadMetrics
	parse   func(ctx context.Context, path string) (*fileRows[T], error)
	encode  func([]T) []S
	decode  func([]S) ([]T, error)
}

func (b *builder[T, S]) run(ctx context.Context) ([]T, *LoadReport, error) {
	ctx, span := otel.Tracer(infrastructure.TracerName).Start(ctx, "consumption.build",
		trace.WithAttributes(
			attribute.String("dataset", b.dataset),
			attribute.String("dir", b.dir),
			attribute.String("pattern", b.pattern),
		))
	defer span.End()

	sources, err := files.NewDiscovery("").Match(b.dir, b.pattern)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, apperrors.NewFileReadError(b.dir, err)
	}
	report := newReport(b.dataset, len(sources))

	if records, ok := b.fromSnapshot(ctx, sources); ok {
		report.FromCache = true
		report.Loaded = len(sources)
		report.Rows = len(records)
		span.SetAttributes(attribute.Bool("from_cache", true), attribute.Int("rows", len(records)))
		b.logger.InfoContext(ctx, "Table restored from snapshot", slog.Any("report", report))
		return records, report, nil
	}

	batches, err := spreadsheet.ReadEach(ctx, b.loader, files.Paths(sources), b.parse)
	var merr *multierror.Error
	if err != nil && !errors.As(err, &merr) {
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}
	report.Errors = merr

	var records []T
	for _, batch := range batches {
		if batch == nil {
			b.metrics.FileProcessed(b.dataset, "error")
			continue
		}
		b.metrics.FileProcessed(b.dataset, "ok")
		report.Loaded++
		records = append(records, batch.rows...)
		for reason, n := range batch.dropped {
			report.Dropped[reason] += n
			b.metrics.RowsDropped(b.dataset, reason, n)
		}
		b.logger.InfoContext(ctx, "Loaded file",
			slog.String("dataset", b.dataset),
			slog.String("file", batch.name),
			slog.Int("rows", len(batch.rows)),
			slog.Int("dropped", batch.droppedTotal()))
	}
	report.Rows = len(records)
	b.metrics.RowsLoaded(b.dataset, len(records))

	b.saveSnapshot(ctx, sources, records, report)

	span.SetAttributes(
		attribute.Int("files", report.Files),
		attribute.Int("rows", report.Rows),
		attribute.Bool("from_cache", false))
	if report.Err() != nil {
		span.SetStatus(codes.Error, "some files failed")
	}
	b.logger.InfoContext(ctx, "Table built", slog.Any("report", report))
	return records, report, nil
}

func (b *builder[T, S]) fromSnapshot(ctx context.Context, sources []files.FileInfo) ([]T, bool) {
	if b.store == nil || b.rebuild {
		return nil, false
	}
	rows, hit, err := b.store.Load(ctx, sources)
	if err != nil {
		b.logger.WarnContext(ctx, "Discarding unusable snapshot",
			slog.String("dataset", b.dataset),
			slog.String("error", err.Error()))
		return nil, false
	}
	if !hit {
		return nil, false
	}
	records, err := b.decode(rows)
	if err != nil {
		b.logger.WarnContext(ctx, "Discarding undecodable snapshot",
			slog.String("dataset", b.dataset),
			slog.String("error", err.Error()))
		return nil, false
	}
	return records, true
}

// saveSnapshot persists a complete build. A build with failed files is never
// saved, so the snapshot cannot hide a missing file.
func (b *builder[T, S]) saveSnapshot(ctx context.Context, sources []files.FileInfo, records []T, report *LoadReport) {
	if b.store == nil {
		return
	}
	if report.Err() != nil {
		b.logger.WarnContext(ctx, "Snapshot not saved, some files failed",
			slog.String("dataset", b.dataset))
		return
	}
	if err := b.store.Save(ctx, sources, b.encode(records)); err != nil {
		b.logger.WarnContext(ctx, "Failed to save snapshot",
			slog.String("dataset", b.dataset),
			slog.String("error", err.Error()))
	}
}

// countryFilter matches every country when countries is empty
func countryFilter(countries []string) func(string) bool {
	if len(countries) == 0 {
		return func(string) bool { return true }
	}
	set := make(map[string]struct{}, len(countries))
	for _, c := range countries {
		set[c] = struct{}{}
	}
	return func(c string) bool {
		_, ok := set[c]
		return ok
	}
}
