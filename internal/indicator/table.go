package indicator

import (
	"context"
	"log/slog"
	"math"
	"path/filepath"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"powerstats/internal/cache"
	apperrors "powerstats/internal/errors"
	"powerstats/internal/files"
	"powerstats/internal/infrastructure"
	"powerstats/pkg/contracts/domain"
)

// Snapshot is the parquet row of an indicator snapshot: one cell of the
// country by year table
type Snapshot struct {
	Country string  `parquet:"name=country, type=BYTE_ARRAY, convertedtype=UTF8"`
	Year    int32   `parquet:"name=year, type=INT32"`
	Value   float64 `parquet:"name=value, type=DOUBLE"`
}

// Store caches one indicator table
type Store = cache.Store[Snapshot]

// NewStore creates the snapshot store of src, named after the indicator and
// kept next to the source file
func NewStore(src Source, opts cache.Options) (*Store, error) {
	opts.Dir = filepath.Dir(src.Path)
	opts.Name = src.Name
	opts.Kind = "indicator_" + src.Name
	return cache.NewStore[Snapshot](opts)
}

// Options configures Load
type Options struct {
	Cache   *Store
	Rebuild bool
	Logger  *slog.Logger
	Metrics *infrastructure.LoadMetrics
}

// Table is a year by country indicator table
type Table struct {
	name   string
	years  []int
	values map[string][]float64 // aligned with years
}

// Load reads src, or restores it from opts.Cache while the snapshot is
// still valid for the source file
func Load(ctx context.Context, src Source, opts Options) (*Table, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	dataset := "indicator_" + src.Name

	ctx, span := otel.Tracer(infrastructure.TracerName).Start(ctx, "indicator.load",
		trace.WithAttributes(
			attribute.String("indicator", src.Name),
			attribute.String("format", src.Format),
		))
	defer span.End()

	info, err := files.Stat(src.Path)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		opts.Metrics.FileProcessed(dataset, "error")
		return nil, apperrors.NewFileReadError(src.Path, err)
	}
	sources := []files.FileInfo{info}

	if opts.Cache != nil && !opts.Rebuild {
		rows, hit, err := opts.Cache.Load(ctx, sources)
		if err != nil {
			opts.Logger.WarnContext(ctx, "Discarding unusable snapshot",
				slog.String("indicator", src.Name),
				slog.String("error", err.Error()))
		} else if hit {
			t := fromSnapshot(src.Name, rows)
			span.SetAttributes(attribute.Bool("from_cache", true))
			return t, nil
		}
	}

	grid, err := readGrid(src)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		opts.Metrics.FileProcessed(dataset, "error")
		return nil, err
	}
	t, err := parseGrid(src, grid)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		opts.Metrics.FileProcessed(dataset, "error")
		return nil, err
	}
	opts.Metrics.FileProcessed(dataset, "ok")
	opts.Metrics.RowsLoaded(dataset, len(t.values))

	if opts.Cache != nil {
		if err := opts.Cache.Save(ctx, sources, t.snapshot()); err != nil {
			opts.Logger.WarnContext(ctx, "Failed to save snapshot",
				slog.String("indicator", src.Name),
				slog.String("error", err.Error()))
		}
	}

	opts.Logger.InfoContext(ctx, "Indicator loaded",
		slog.String("indicator", src.Name),
		slog.String("file", info.Name),
		slog.Int("countries", len(t.values)),
		slog.Int("years", len(t.years)))
	return t, nil
}

func (t *Table) snapshot() []Snapshot {
	var rows []Snapshot
	for _, country := range t.Countries() {
		for i, y := range t.years {
			rows = append(rows, Snapshot{Country: country, Year: int32(y), Value: t.values[country][i]})
		}
	}
	return rows
}

func fromSnapshot(name string, rows []Snapshot) *Table {
	seen := make(map[int]struct{})
	for _, r := range rows {
		seen[int(r.Year)] = struct{}{}
	}
	t := &Table{name: name, values: make(map[string][]float64)}
	for y := range seen {
		t.years = append(t.years, y)
	}
	sort.Ints(t.years)

	index := make(map[int]int, len(t.years))
	for i, y := range t.years {
		index[y] = i
	}
	for _, r := range rows {
		values, ok := t.values[r.Country]
		if !ok {
			values = nanSeries(len(t.years))
			t.values[r.Country] = values
		}
		values[index[int(r.Year)]] = r.Value
	}
	return t
}

// Name returns the indicator name
func (t *Table) Name() string {
	return t.name
}

// Years returns the years of the table, ascending
func (t *Table) Years() []int {
	years := make([]int, len(t.years))
	copy(years, t.years)
	return years
}

// Countries returns the country codes, sorted
func (t *Table) Countries() []string {
	countries := make([]string, 0, len(t.values))
	for c := range t.values {
		countries = append(countries, c)
	}
	sort.Strings(countries)
	return countries
}

// Value returns the indicator of country in year. ok is false when the
// table has no such cell; a present but missing value is NaN with ok true.
func (t *Table) Value(country string, year int) (float64, bool) {
	values, ok := t.values[country]
	if !ok {
		return 0, false
	}
	for i, y := range t.years {
		if y == year {
			return values[i], true
		}
	}
	return 0, false
}

// SelectCountryData returns the series of country indexed by year. An
// unknown country is an InvalidCountryError.
func (t *Table) SelectCountryData(country string) (domain.IndicatorSeries, error) {
	values, ok := t.values[country]
	if !ok {
		return domain.IndicatorSeries{}, apperrors.NewInvalidCountryError(country)
	}
	out := domain.IndicatorSeries{Country: country, Years: t.Years(), Values: make([]float64, len(values))}
	copy(out.Values, values)
	return out, nil
}

// SelectCountriesData returns a year by country matrix for countries, in
// the order given. Unknown countries get an all-NaN column. An empty list
// selects every country.
func (t *Table) SelectCountriesData(countries []string) domain.YearlyMatrix {
	if len(countries) == 0 {
		countries = t.Countries()
	}
	m := domain.YearlyMatrix{
		Years:     t.Years(),
		Countries: append([]string(nil), countries...),
		Values:    make([][]float64, len(t.years)),
	}
	for i := range t.years {
		m.Values[i] = make([]float64, len(countries))
		for j, c := range countries {
			if values, ok := t.values[c]; ok {
				m.Values[i][j] = values[i]
			} else {
				m.Values[i][j] = math.NaN()
			}
		}
	}
	return m
}

func nanSeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
