package consumption

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"powerstats/internal/config"
	apperrors "powerstats/internal/errors"
	"powerstats/internal/infrastructure"
	"powerstats/internal/spreadsheet"
	"powerstats/pkg/contracts/domain"
)

// Normalisation modes of DataNormalization
const (
	HowMean = "mean"
	HowMax  = "max"
	HowSum  = "sum"
)

// MonthlyOptions configures BuildMonthly
type MonthlyOptions struct {
	Dir       string
	Pattern   string
	Sheet     string
	SkipRows  int
	Sentinel  string
	YearLabel string
	Workers   int

	Cache   *MonthlyStore
	Rebuild bool

	Logger  *slog.Logger
	Metrics *infrastructure.LoadMetrics
}

// MonthlyOptionsFromConfig maps the monthly and loader sections of cfg
func MonthlyOptionsFromConfig(cfg *config.Config) MonthlyOptions {
	return MonthlyOptions{
		Dir:       cfg.Monthly.Dir,
		Pattern:   cfg.Monthly.Pattern,
		Sheet:     cfg.Monthly.Sheet,
		SkipRows:  cfg.Monthly.SkipRows,
		Sentinel:  cfg.Monthly.Sentinel,
		YearLabel: cfg.Monthly.YearLabel,
		Workers:   cfg.Loader.Workers,
	}
}

func (o *MonthlyOptions) withDefaults() {
	if o.Pattern == "" {
		o.Pattern = config.DefaultMonthlyPattern
	}
	if o.Sheet == "" {
		o.Sheet = config.DefaultSheet
	}
	if o.YearLabel == "" {
		o.YearLabel = config.DefaultYearLabel
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// MonthlyTable is the (country, year) by month consumption table
type MonthlyTable struct {
	records []domain.MonthlyRecord
}

// NewMonthlyTable wraps a copy of records
func NewMonthlyTable(records []domain.MonthlyRecord) *MonthlyTable {
	owned := make([]domain.MonthlyRecord, len(records))
	copy(owned, records)
	return &MonthlyTable{records: owned}
}

// BuildMonthly loads every monthly export in opts.Dir matching opts.Pattern.
// Each file is read once: the year comes from the labelled cell of the raw
// grid, then the same grid is cut at the header and turned into rows.
func BuildMonthly(ctx context.Context, opts MonthlyOptions) (*MonthlyTable, *LoadReport, error) {
	opts.withDefaults()

	loader := spreadsheet.NewLoader(spreadsheet.Options{
		Sheet:    opts.Sheet,
		SkipRows: opts.SkipRows,
		Sentinel: opts.Sentinel,
		Workers:  opts.Workers,
	}, opts.Logger)

	b := &builder[domain.MonthlyRecord, MonthlySnapshot]{
		dataset: DatasetMonthly,
		dir:     opts.Dir,
		pattern: opts.Pattern,
		loader:  loader,
		store:   opts.Cache,
		rebuild: opts.Rebuild,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		parse: func(ctx context.Context, path string) (*fileRows[domain.MonthlyRecord], error) {
			grid, err := loader.ReadRaw(ctx, path)
			if err != nil {
				return nil, err
			}
			year, err := ExtractYear(grid, opts.YearLabel)
			if err != nil {
				return nil, apperrors.NewSchemaMismatchError(path, err.Error())
			}
			sheet, err := loader.FromRows(path, grid)
			if err != nil {
				return nil, err
			}
			return monthlyRows(sheet, year)
		},
		encode: encodeMonthly,
		decode: decodeMonthly,
	}

	records, report, err := b.run(ctx)
	if err != nil {
		return nil, nil, err
	}
	return &MonthlyTable{records: records}, report, nil
}

// ExtractYear finds the cell holding label in an unskipped worksheet grid
// and returns the year in the first non-empty cell to its right.
func ExtractYear(grid [][]string, label string) (int, error) {
	for _, row := range grid {
		for i, cell := range row {
			if !strings.EqualFold(strings.TrimSpace(cell), label) {
				continue
			}
			for _, next := range row[i+1:] {
				next = strings.TrimSpace(next)
				if next == "" {
					continue
				}
				v, ok := spreadsheet.ParseFloat(next)
				if !ok || v != float64(int(v)) || v < 1 {
					return 0, fmt.Errorf("invalid year %q next to %q", next, label)
				}
				return int(v), nil
			}
			return 0, fmt.Errorf("no value next to %q", label)
		}
	}
	return 0, fmt.Errorf("no %q cell found", label)
}

// monthlyRows builds the records of one worksheet, every row stamped with
// year. The header needs a country column, a Sum column and all twelve
// months.
func monthlyRows(sheet *spreadsheet.Sheet, year int) (*fileRows[domain.MonthlyRecord], error) {
	country, sum := -1, -1
	var months [domain.MonthsPerYear]int
	for i := range months {
		months[i] = -1
	}
	for i, label := range sheet.Header {
		switch {
		case strings.EqualFold(label, ColumnCountry):
			country = i
		case strings.EqualFold(label, "sum"):
			sum = i
		default:
			if m, ok := monthColumn(label); ok && months[m] < 0 {
				months[m] = i
			}
		}
	}
	if country < 0 || sum < 0 {
		return nil, apperrors.NewSchemaMismatchError(sheet.Path, "missing country or Sum column")
	}
	for m, col := range months {
		if col < 0 {
			return nil, apperrors.NewSchemaMismatchError(sheet.Path,
				fmt.Sprintf("missing month column %s", domain.MonthNames()[m]))
		}
	}

	out := newFileRows[domain.MonthlyRecord](sheet.Name)
	for r := range sheet.Rows {
		name := sheet.Cell(r, country)
		if sheet.IsMissing(name) {
			out.dropped[DropNoCountry]++
			continue
		}
		rec := domain.MonthlyRecord{
			Country: name,
			Year:    year,
			Sum:     sheet.Float(r, sum),
		}
		for m, col := range months {
			rec.Months[m] = sheet.Float(r, col)
		}
		out.rows = append(out.rows, rec)
	}
	return out, nil
}

// Len returns the number of records
func (t *MonthlyTable) Len() int {
	return len(t.records)
}

// Records returns a copy of every record in load order
func (t *MonthlyTable) Records() []domain.MonthlyRecord {
	return t.SelectCountriesData(nil)
}

// Countries returns the distinct countries, sorted
func (t *MonthlyTable) Countries() []string {
	seen := make(map[string]struct{})
	for _, r := range t.records {
		seen[r.Country] = struct{}{}
	}
	return sortedKeys(seen)
}

// Years returns the distinct years, sorted
func (t *MonthlyTable) Years() []int {
	seen := make(map[int]struct{})
	for _, r := range t.records {
		seen[r.Year] = struct{}{}
	}
	return sortedYears(seen)
}

// RequireCountry returns an InvalidCountryError when the table has no row
// for country
func (t *MonthlyTable) RequireCountry(country string) error {
	for _, r := range t.records {
		if r.Country == country {
			return nil
		}
	}
	return apperrors.NewInvalidCountryError(country)
}

// MonthLabels returns the presentation labels of the month columns
func (t *MonthlyTable) MonthLabels() []string {
	return domain.MonthNames()
}

// SelectCountryData returns the rows of country in load order
func (t *MonthlyTable) SelectCountryData(country string) []domain.MonthlyRecord {
	return t.SelectCountriesData([]string{country})
}

// SelectCountriesData returns the rows of the listed countries in load
// order. An empty list selects every country.
func (t *MonthlyTable) SelectCountriesData(countries []string) []domain.MonthlyRecord {
	match := countryFilter(countries)
	out := []domain.MonthlyRecord{}
	for _, r := range t.records {
		if match(r.Country) {
			out = append(out, r)
		}
	}
	return out
}

// NormalizedMonthlyCountryData divides each month of the country rows by the
// row's own monthly total, computed from the months and not taken from Sum.
// The returned Sum holds that total.
func (t *MonthlyTable) NormalizedMonthlyCountryData(country string) []domain.MonthlyRecord {
	out := t.SelectCountryData(country)
	for i := range out {
		total := nanSum(out[i].Months[:])
		for m, v := range out[i].Months {
			out[i].Months[m] = divide(v, total)
		}
		out[i].Sum = total
	}
	return out
}

// DataNormalization divides every value of each selected row, Sum and
// months alike, by a divisor chosen by byYear and how:
//
//	byYear=true,  how "mean" (default) or "max": the country's mean or max Sum over all its years
//	byYear=false, how "sum" (default) or "mean": the row's Sum or the mean of its months
//
// Any other how is an UnsupportedModeError.
func (t *MonthlyTable) DataNormalization(byYear bool, how string, countries []string) ([]domain.MonthlyRecord, error) {
	divisor, err := t.divisor(byYear, how, countries)
	if err != nil {
		return nil, err
	}
	out := t.SelectCountriesData(countries)
	for i := range out {
		d := divisor(out[i])
		out[i].Sum = divide(out[i].Sum, d)
		for m, v := range out[i].Months {
			out[i].Months[m] = divide(v, d)
		}
	}
	return out, nil
}

func (t *MonthlyTable) divisor(byYear bool, how string, countries []string) (func(domain.MonthlyRecord) float64, error) {
	if byYear {
		var reduce func([]float64) float64
		switch how {
		case "", HowMean:
			reduce = nanMean
		case HowMax:
			reduce = nanMax
		default:
			return nil, apperrors.NewUnsupportedModeError("yearly normalization", how)
		}
		sums := make(map[string][]float64)
		for _, r := range t.SelectCountriesData(countries) {
			sums[r.Country] = append(sums[r.Country], r.Sum)
		}
		scale := make(map[string]float64, len(sums))
		for c, s := range sums {
			scale[c] = reduce(s)
		}
		return func(r domain.MonthlyRecord) float64 { return scale[r.Country] }, nil
	}

	switch how {
	case "", HowSum:
		return func(r domain.MonthlyRecord) float64 { return r.Sum }, nil
	case HowMean:
		return func(r domain.MonthlyRecord) float64 { return nanMean(r.Months[:]) }, nil
	default:
		return nil, apperrors.NewUnsupportedModeError("monthly normalization", how)
	}
}

// YearlyConsumptionCountries pivots Sum into a year by country matrix,
// keeping years from fromYear on (0 keeps all). With normalized each Sum is
// divided by its country's mean Sum. A repeated (country, year) keeps the
// last row loaded.
func (t *MonthlyTable) YearlyConsumptionCountries(countries []string, normalized bool, fromYear int) domain.YearlyMatrix {
	rows := t.SelectCountriesData(countries)
	if normalized {
		// mean over all years never fails
		rows, _ = t.DataNormalization(true, HowMean, countries)
	}

	type key struct {
		year    int
		country string
	}
	cells := make(map[key]float64)
	years := make(map[int]struct{})
	names := make(map[string]struct{})
	for _, r := range rows {
		if r.Year < fromYear {
			continue
		}
		cells[key{r.Year, r.Country}] = r.Sum
		years[r.Year] = struct{}{}
		names[r.Country] = struct{}{}
	}

	m := domain.YearlyMatrix{Years: sortedYears(years), Countries: sortedKeys(names)}
	m.Values = make([][]float64, len(m.Years))
	for i, y := range m.Years {
		m.Values[i] = make([]float64, len(m.Countries))
		for j, c := range m.Countries {
			v, ok := cells[key{y, c}]
			if !ok {
				v = nan()
			}
			m.Values[i][j] = v
		}
	}
	return m
}

// MonthlyConsumptionCountries returns, per country, the mean over its years
// of every month. With normalized each month is first divided by the row's
// Sum, the reported yearly total, so values are shares of the year. Dividing
// by the mean month instead is DataNormalization(false, "mean", ...).
func (t *MonthlyTable) MonthlyConsumptionCountries(countries []string, normalized bool) domain.MonthlyMatrix {
	byCountry := make(map[string][][]float64)
	for _, r := range t.SelectCountriesData(countries) {
		months := make([]float64, domain.MonthsPerYear)
		copy(months, r.Months[:])
		if normalized {
			months = divideAll(months, r.Sum)
		}
		byCountry[r.Country] = append(byCountry[r.Country], months)
	}

	names := make(map[string]struct{}, len(byCountry))
	for c := range byCountry {
		names[c] = struct{}{}
	}
	m := domain.MonthlyMatrix{Months: domain.MonthNames(), Countries: sortedKeys(names)}
	means := make([][]float64, len(m.Countries))
	for j, c := range m.Countries {
		means[j] = columnMeans(byCountry[c], domain.MonthsPerYear)
	}
	m.Values = make([][]float64, domain.MonthsPerYear)
	for i := range m.Values {
		m.Values[i] = make([]float64, len(m.Countries))
		for j := range m.Countries {
			m.Values[i][j] = means[j][i]
		}
	}
	return m
}

// TransformMonthlyData returns the month values in long format: one
// observation per record and month, records in load order, months January
// first. Sum is left out.
func (t *MonthlyTable) TransformMonthlyData() []domain.MonthlyObservation {
	names := domain.MonthNames()
	out := make([]domain.MonthlyObservation, 0, len(t.records)*domain.MonthsPerYear)
	for _, r := range t.records {
		for m, v := range r.Months {
			out = append(out, domain.MonthlyObservation{
				Year:    r.Year,
				Country: r.Country,
				Month:   names[m],
				Value:   v,
			})
		}
	}
	return out
}

// MeanMonthlyData returns the average month of every record
func (t *MonthlyTable) MeanMonthlyData() []domain.YearlyValue {
	out := make([]domain.YearlyValue, len(t.records))
	for i, r := range t.records {
		out[i] = domain.YearlyValue{Country: r.Country, Year: r.Year, Value: nanMean(r.Months[:])}
	}
	return out
}

func sortedYears(set map[int]struct{}) []int {
	years := make([]int, 0, len(set))
	for y := range set {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
