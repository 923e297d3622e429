package spreadsheet

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"powerstats/internal/config"
	apperrors "powerstats/internal/errors"
	"powerstats/internal/infrastructure"
)

// Options describes the worksheet contract of a dataset
type Options struct {
	Sheet    string
	SkipRows int
	Sentinel string
	// DateOrder resolves text dates that could be read either way round
	DateOrder DateOrder
	// Workers bounds the number of files read at the same time by ReadAll
	Workers int
}

// Sheet is the tabular body of one worksheet: the header row found after the
// skipped rows and every non-blank row below it. Header cells hold displayed
// text; body cells hold stored values, so a date cell is its serial.
type Sheet struct {
	Path      string
	Name      string
	Header    []string
	Rows      [][]string
	sentinel  string
	dateOrder DateOrder
}

// Loader reads worksheets from spreadsheet files
type Loader struct {
	opts   Options
	logger *slog.Logger
	tracer trace.Tracer
}

// NewLoader creates a loader. A nil logger falls back to slog.Default.
func NewLoader(opts Options, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Sheet == "" {
		opts.Sheet = config.DefaultSheet
	}
	if opts.DateOrder == "" {
		opts.DateOrder = DayFirst
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Loader{
		opts:   opts,
		logger: logger,
		tracer: otel.Tracer(infrastructure.TracerName),
	}
}

// ReadRaw returns every row of the configured worksheet, nothing skipped.
// Trailing empty cells of a row are not returned.
func (l *Loader) ReadRaw(ctx context.Context, path string) ([][]string, error) {
	_, span := l.tracer.Start(ctx, "spreadsheet.read_raw",
		trace.WithAttributes(attribute.String("file", filepath.Base(path))))
	defer span.End()

	rows, err := l.rows(path)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return rows, nil
}

// Read parses the configured worksheet of path into a Sheet. A file that
// cannot be opened, lacks the worksheet or has no header row after the
// skipped rows fails with a FileReadError.
func (l *Loader) Read(ctx context.Context, path string) (*Sheet, error) {
	ctx, span := l.tracer.Start(ctx, "spreadsheet.read",
		trace.WithAttributes(
			attribute.String("file", filepath.Base(path)),
			attribute.String("sheet", l.opts.Sheet),
			attribute.Int("skip_rows", l.opts.SkipRows),
		))
	defer span.End()

	rows, err := l.rows(path)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	sheet, err := l.FromRows(path, rows)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("rows", len(sheet.Rows)))
	l.logger.DebugContext(ctx, "Worksheet read",
		slog.String("file", sheet.Name),
		slog.Int("columns", len(sheet.Header)),
		slog.Int("rows", len(sheet.Rows)))

	return sheet, nil
}

// FromRows applies the header skip and sentinel to a grid already returned
// by ReadRaw
func (l *Loader) FromRows(path string, rows [][]string) (*Sheet, error) {
	if len(rows) <= l.opts.SkipRows {
		return nil, apperrors.NewFileReadError(path,
			fmt.Errorf("worksheet %q has %d rows, expected a header after row %d", l.opts.Sheet, len(rows), l.opts.SkipRows))
	}

	header := make([]string, len(rows[l.opts.SkipRows]))
	for i, label := range rows[l.opts.SkipRows] {
		header[i] = strings.TrimSpace(label)
	}

	sheet := &Sheet{
		Path:      path,
		Name:      filepath.Base(path),
		Header:    header,
		sentinel:  l.opts.Sentinel,
		dateOrder: l.opts.DateOrder,
	}
	for _, row := range rows[l.opts.SkipRows+1:] {
		if sheet.blank(row) {
			continue
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

// ReadAll reads every path concurrently, at most Workers at a time. The
// returned slice has one entry per path in the same order; an entry is nil
// when that file failed. Failures do not stop the other files and are
// returned together as a *multierror.Error, ordered by path index.
func (l *Loader) ReadAll(ctx context.Context, paths []string) ([]*Sheet, error) {
	return ReadEach(ctx, l, paths, l.Read)
}

// ReadEach runs read for every path with the concurrency and failure
// isolation of ReadAll. The zero T marks a failed file.
func ReadEach[T any](ctx context.Context, l *Loader, paths []string, read func(context.Context, string) (T, error)) ([]T, error) {
	results := make([]T, len(paths))
	failures := make([]error, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Workers)

	var mu sync.Mutex
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := read(ctx, path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				l.logger.WarnContext(ctx, "Skipping unreadable file",
					slog.String("file", filepath.Base(path)),
					slog.String("error", err.Error()))
				failures[i] = err
				return nil
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merr *multierror.Error
	for _, err := range failures {
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return results, merr.ErrorOrNil()
}

func (l *Loader) rows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewFileReadError(path, err)
	}
	defer f.Close()

	// The header and the rows above it keep their displayed text, since hour
	// labels may be time-formatted numbers. Body rows hold stored values so a
	// date cell reads as its serial whatever its number format.
	rows, err := f.GetRows(l.opts.Sheet)
	if err != nil {
		return nil, apperrors.NewFileReadError(path, err)
	}
	body, err := f.GetRows(l.opts.Sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewFileReadError(path, err)
	}
	for i := l.opts.SkipRows + 1; i < len(rows) && i < len(body); i++ {
		rows[i] = body[i]
	}
	return rows, nil
}

// Cell returns the trimmed text of a body cell; cells past the end of a row
// are empty.
func (s *Sheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) || col < 0 || col >= len(s.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(s.Rows[row][col])
}

// IsMissing reports whether text is empty or the missing-value sentinel
func (s *Sheet) IsMissing(text string) bool {
	text = strings.TrimSpace(text)
	return text == "" || (s.sentinel != "" && text == s.sentinel)
}

// Float returns a body cell as a number. Missing or non-numeric cells are NaN.
func (s *Sheet) Float(row, col int) float64 {
	text := s.Cell(row, col)
	if s.IsMissing(text) {
		return nan()
	}
	v, ok := ParseFloat(text)
	if !ok {
		return nan()
	}
	return v
}

// Date returns a body cell as a calendar day
func (s *Sheet) Date(row, col int) (time.Time, error) {
	return ParseDate(s.Cell(row, col), s.dateOrder)
}

func (s *Sheet) blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
