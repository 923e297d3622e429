package consumption

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"powerstats/internal/config"
	apperrors "powerstats/internal/errors"
	"powerstats/internal/infrastructure"
	"powerstats/internal/spreadsheet"
	"powerstats/pkg/contracts/domain"
)

// Day categories accepted by HourlyPrototypeWeekdayCountries next to the
// weekday names
const (
	CategoryWeekend = "weekend"
	CategoryWorking = "working"
)

// HourlyOptions configures BuildHourly
type HourlyOptions struct {
	Dir      string
	Pattern  string
	Sheet    string
	SkipRows int
	Sentinel string
	// MaxColumns is the column count of a regular sheet; wider sheets carry
	// the hour-change column
	MaxColumns      int
	HourChangeLabel string
	// MinHours is the number of present hour values a row needs to be kept
	MinHours int
	// DateOrder reads day cells stored as text; date cells are unaffected
	DateOrder spreadsheet.DateOrder
	Workers   int

	// Cache, when set, is consulted before reading and written after a
	// complete build. Rebuild skips the lookup but still saves.
	Cache   *HourlyStore
	Rebuild bool

	Logger  *slog.Logger
	Metrics *infrastructure.LoadMetrics
}

// HourlyOptionsFromConfig maps the hourly and loader sections of cfg
func HourlyOptionsFromConfig(cfg *config.Config) HourlyOptions {
	return HourlyOptions{
		Dir:             cfg.Hourly.Dir,
		Pattern:         cfg.Hourly.Pattern,
		Sheet:           cfg.Hourly.Sheet,
		SkipRows:        cfg.Hourly.SkipRows,
		Sentinel:        cfg.Hourly.Sentinel,
		MaxColumns:      cfg.Hourly.MaxColumns,
		HourChangeLabel: cfg.Hourly.HourChangeLabel,
		MinHours:        cfg.Hourly.MinHours,
		DateOrder:       spreadsheet.DateOrder(cfg.Hourly.DateOrder),
		Workers:         cfg.Loader.Workers,
	}
}

func (o *HourlyOptions) withDefaults() {
	if o.Pattern == "" {
		o.Pattern = config.DefaultHourlyPattern
	}
	if o.Sheet == "" {
		o.Sheet = config.DefaultSheet
	}
	if o.MaxColumns == 0 {
		o.MaxColumns = config.DefaultHourlyMaxColumns
	}
	if o.HourChangeLabel == "" {
		o.HourChangeLabel = config.DefaultHourChangeLabel
	}
	if o.MinHours == 0 {
		o.MinHours = config.DefaultMinHours
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// HourlyTable is the (country, day) by hour consumption table. It is
// immutable once built; every query returns newly allocated values.
type HourlyTable struct {
	records []domain.HourlyRecord
}

// NewHourlyTable wraps a copy of records
func NewHourlyTable(records []domain.HourlyRecord) *HourlyTable {
	owned := make([]domain.HourlyRecord, len(records))
	copy(owned, records)
	return &HourlyTable{records: owned}
}

// BuildHourly loads every hourly export in opts.Dir matching opts.Pattern.
// Files are read in name order and their rows concatenated in that order.
// A file that cannot be read or whose header cannot be resolved contributes
// no rows and is reported in LoadReport.Errors; the returned error is set
// only when the build could not run at all.
func BuildHourly(ctx context.Context, opts HourlyOptions) (*HourlyTable, *LoadReport, error) {
	opts.withDefaults()

	loader := spreadsheet.NewLoader(spreadsheet.Options{
		Sheet:     opts.Sheet,
		SkipRows:  opts.SkipRows,
		Sentinel:  opts.Sentinel,
		DateOrder: opts.DateOrder,
		Workers:   opts.Workers,
	}, opts.Logger)
	rules := HourlyColumnRules(opts.HourChangeLabel)

	b := &builder[domain.HourlyRecord, HourlySnapshot]{
		dataset: DatasetHourly,
		dir:     opts.Dir,
		pattern: opts.Pattern,
		loader:  loader,
		store:   opts.Cache,
		rebuild: opts.Rebuild,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		parse: func(ctx context.Context, path string) (*fileRows[domain.HourlyRecord], error) {
			sheet, err := loader.Read(ctx, path)
			if err != nil {
				return nil, err
			}
			return hourlyRows(sheet, rules, opts.MaxColumns, opts.MinHours, opts.Logger)
		},
		encode: encodeHourly,
		decode: decodeHourly,
	}

	records, report, err := b.run(ctx)
	if err != nil {
		return nil, nil, err
	}
	return &HourlyTable{records: records}, report, nil
}

// hourlyRows turns one worksheet into records. The header goes through the
// column rules first; a header the rules cannot resolve into H01..H24 is a
// SchemaMismatchError for the whole file.
func hourlyRows(sheet *spreadsheet.Sheet, rules []ColumnRule, maxColumns, minHours int, logger *slog.Logger) (*fileRows[domain.HourlyRecord], error) {
	hourChange := HourChangeDetected(sheet.Header, maxColumns)
	layout, err := resolveHourlyLayout(ApplyColumnRules(rules, sheet.Header, hourChange))
	if err != nil {
		return nil, apperrors.NewSchemaMismatchError(sheet.Path, err.Error())
	}
	if hourChange {
		logger.Debug("Hour-change column removed",
			slog.String("file", sheet.Name),
			slog.Int("columns", len(sheet.Header)))
	}

	out := newFileRows[domain.HourlyRecord](sheet.Name)
	for r := range sheet.Rows {
		country := sheet.Cell(r, layout.country)
		if sheet.IsMissing(country) {
			out.dropped[DropNoCountry]++
			continue
		}

		var hours [domain.HoursPerDay]float64
		present := 0
		for h, col := range layout.hours {
			hours[h] = sheet.Float(r, col)
			if !math.IsNaN(hours[h]) {
				present++
			}
		}
		if present < minHours {
			out.dropped[DropMissingHours]++
			continue
		}

		date, err := sheet.Date(r, layout.day)
		if err != nil {
			out.dropped[DropInvalidDate]++
			continue
		}

		artifacts := detectArtifacts(sheet.Rows[r], layout)
		if math.IsNaN(hours[0]) {
			artifacts |= domain.ArtifactLeadingGap
		}
		if filled := forwardFill(&hours); filled > 0 {
			logger.Debug("Hour gap filled",
				slog.String("file", sheet.Name),
				slog.String("country", country),
				slog.String("date", date.Format(snapshotDateLayout)),
				slog.Int("filled", filled))
		}

		out.rows = append(out.rows, domain.HourlyRecord{
			Country:   country,
			Date:      date,
			Weekday:   domain.MondayFirst(date.Weekday()),
			Month:     int(date.Month()),
			Year:      date.Year(),
			Hours:     hours,
			Artifacts: artifacts,
		})
	}
	return out, nil
}

// forwardFill copies the previous hour into each missing hour, left to
// right. A missing first hour has nothing to copy and stays NaN; such rows
// carry ArtifactLeadingGap.
func forwardFill(hours *[domain.HoursPerDay]float64) int {
	filled := 0
	for h := 1; h < len(hours); h++ {
		if math.IsNaN(hours[h]) && !math.IsNaN(hours[h-1]) {
			hours[h] = hours[h-1]
			filled++
		}
	}
	return filled
}

// Len returns the number of records
func (t *HourlyTable) Len() int {
	return len(t.records)
}

// Records returns a copy of every record in load order
func (t *HourlyTable) Records() []domain.HourlyRecord {
	out := make([]domain.HourlyRecord, len(t.records))
	copy(out, t.records)
	return out
}

// Countries returns the distinct countries, sorted
func (t *HourlyTable) Countries() []string {
	seen := make(map[string]struct{})
	for _, r := range t.records {
		seen[r.Country] = struct{}{}
	}
	return sortedKeys(seen)
}

// Years returns the distinct years, sorted
func (t *HourlyTable) Years() []int {
	seen := make(map[int]struct{})
	for _, r := range t.records {
		seen[r.Year] = struct{}{}
	}
	return sortedYears(seen)
}

// RequireCountry returns an InvalidCountryError when the table has no row
// for country. Queries themselves return empty results instead.
func (t *HourlyTable) RequireCountry(country string) error {
	for _, r := range t.records {
		if r.Country == country {
			return nil
		}
	}
	return apperrors.NewInvalidCountryError(country)
}

// HistoricalDailyAggregates returns the daily totals of country for the
// years year-numYears through year. An unknown country yields no rows.
func (t *HourlyTable) HistoricalDailyAggregates(country string, year, numYears int) []domain.DailyAggregate {
	window := YearsBack(year, numYears)
	out := []domain.DailyAggregate{}
	for _, r := range t.records {
		if r.Country != country || !window.Contains(r.Year) {
			continue
		}
		out = append(out, domain.DailyAggregate{
			Country: r.Country,
			Date:    r.Date,
			Weekday: r.Weekday,
			Month:   r.Month,
			Year:    r.Year,
			Daily:   nanSum(r.Hours[:]),
		})
	}
	return out
}

// NormalizedHourlyCountryData divides every hour of each country row by the
// row's daily total, so each row sums to 1. A zero daily total yields NaN
// hours rather than a division by zero.
func (t *HourlyTable) NormalizedHourlyCountryData(country string) []domain.NormalizedDay {
	out := []domain.NormalizedDay{}
	for _, r := range t.records {
		if r.Country != country {
			continue
		}
		daily := nanSum(r.Hours[:])
		day := domain.NormalizedDay{
			Country: r.Country,
			Year:    r.Year,
			Month:   r.Month,
			Weekday: r.Weekday,
			Date:    r.Date,
		}
		for h, v := range r.Hours {
			day.Hours[h] = divide(v, daily)
		}
		out = append(out, day)
	}
	return out
}

// DailyAggregatesCountries averages, per country and weekday, every hour and
// the daily total of the rows inside window. Rows flagged with a data
// quality artifact are left out. An empty countries list selects all.
// The result is sorted by country, then weekday.
func (t *HourlyTable) DailyAggregatesCountries(countries []string, window Window) []domain.WeekdayAggregate {
	type key struct {
		country string
		weekday int
	}
	match := countryFilter(countries)
	groups := make(map[key][][]float64)
	for _, r := range t.records {
		if !match(r.Country) || !window.Contains(r.Year) || Excluded(r) {
			continue
		}
		k := key{r.Country, r.Weekday}
		hours := make([]float64, domain.HoursPerDay)
		copy(hours, r.Hours[:])
		groups[k] = append(groups[k], hours)
	}

	keys := make([]key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].country != keys[j].country {
			return keys[i].country < keys[j].country
		}
		return keys[i].weekday < keys[j].weekday
	})

	out := make([]domain.WeekdayAggregate, 0, len(keys))
	for _, k := range keys {
		rows := groups[k]
		dailies := make([]float64, len(rows))
		for i, row := range rows {
			dailies[i] = nanSum(row)
		}
		agg := domain.WeekdayAggregate{
			Country: k.country,
			Weekday: k.weekday,
			Daily:   nanMean(dailies),
		}
		copy(agg.Hours[:], columnMeans(rows, domain.HoursPerDay))
		out = append(out, agg)
	}
	return out
}

// HourlyAggregatesCountries returns one intraday profile per country and
// weekday, hours as rows labelled H01..H24. Each profile is divided by its
// own mean, so it keeps the shape and loses the scale.
func (t *HourlyTable) HourlyAggregatesCountries(countries []string, window Window) domain.ProfileTable {
	table := domain.ProfileTable{Hours: domain.HourLabels(), Columns: []domain.ProfileColumn{}}
	for _, agg := range t.DailyAggregatesCountries(countries, window) {
		table.Columns = append(table.Columns, domain.ProfileColumn{
			Country: agg.Country,
			Label:   domain.WeekdayName(agg.Weekday),
			Values:  normalizeToMean(agg.Hours[:]),
		})
	}
	return table
}

// HourlyPrototypeCountries returns one normalised profile per country: the
// mean of its weekday profiles, divided by its own mean. Hours are labelled
// 1..24.
func (t *HourlyTable) HourlyPrototypeCountries(countries []string, window Window) domain.ProfileTable {
	table := domain.ProfileTable{Hours: numericHourLabels(), Columns: []domain.ProfileColumn{}}
	byCountry, order := weekdayHoursByCountry(t.DailyAggregatesCountries(countries, window))
	for _, country := range order {
		var rows [][]float64
		for _, hours := range byCountry[country] {
			rows = append(rows, hours)
		}
		table.Columns = append(table.Columns, domain.ProfileColumn{
			Country: country,
			Values:  normalizeToMean(columnMeans(rows, domain.HoursPerDay)),
		})
	}
	return table
}

// HourlyPrototypeWeekdayCountries returns, per country, the normalised
// profile of one weekday (any case) or of a day category: "weekend" is
// Saturday and Sunday, "working" Monday to Friday. A category profile is the
// mean of its members' normalised profiles, so every member day weighs the
// same. It is not the raw member days averaged and then normalised once,
// which would let the busier weekdays dominate. Hours are labelled 1..24.
// Any other name is an UnsupportedModeError.
func (t *HourlyTable) HourlyPrototypeWeekdayCountries(weekday string, countries []string, window Window) (domain.ProfileTable, error) {
	label, members, err := weekdayMembers(weekday)
	if err != nil {
		return domain.ProfileTable{}, err
	}

	table := domain.ProfileTable{Hours: numericHourLabels(), Columns: []domain.ProfileColumn{}}
	byCountry, order := weekdayHoursByCountry(t.DailyAggregatesCountries(countries, window))
	for _, country := range order {
		var profiles [][]float64
		for _, d := range members {
			if hours, ok := byCountry[country][d]; ok {
				profiles = append(profiles, normalizeToMean(hours))
			}
		}
		if len(profiles) == 0 {
			continue
		}
		table.Columns = append(table.Columns, domain.ProfileColumn{
			Country: country,
			Label:   label,
			Values:  columnMeans(profiles, domain.HoursPerDay),
		})
	}
	return table, nil
}

func weekdayMembers(name string) (string, []int, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case CategoryWeekend:
		return CategoryWeekend, []int{5, 6}, nil
	case CategoryWorking:
		return CategoryWorking, []int{0, 1, 2, 3, 4}, nil
	}
	d, ok := domain.ParseWeekday(name)
	if !ok {
		return "", nil, apperrors.NewUnsupportedModeError("weekday", name)
	}
	return domain.WeekdayName(d), []int{d}, nil
}

// weekdayHoursByCountry indexes sorted aggregates by country and weekday,
// returning the countries in their sorted order
func weekdayHoursByCountry(aggs []domain.WeekdayAggregate) (map[string]map[int][]float64, []string) {
	byCountry := make(map[string]map[int][]float64)
	var order []string
	for _, agg := range aggs {
		if _, ok := byCountry[agg.Country]; !ok {
			byCountry[agg.Country] = make(map[int][]float64)
			order = append(order, agg.Country)
		}
		hours := make([]float64, domain.HoursPerDay)
		copy(hours, agg.Hours[:])
		byCountry[agg.Country][agg.Weekday] = hours
	}
	return byCountry, order
}

func numericHourLabels() []string {
	labels := make([]string, domain.HoursPerDay)
	for i := range labels {
		labels[i] = strconv.Itoa(i + 1)
	}
	return labels
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
