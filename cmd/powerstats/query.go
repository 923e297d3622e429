package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-gota/gota/dataframe"

	"powerstats/internal/cache"
	"powerstats/internal/config"
	"powerstats/internal/consumption"
	apperrors "powerstats/internal/errors"
	"powerstats/internal/exporter"
	"powerstats/internal/indicator"
	"powerstats/internal/infrastructure"
)

var (
	hourlyQueries    = []string{"daily", "normalized", "weekday", "profiles", "prototype", "prototype-weekday"}
	monthlyQueries   = []string{"select", "normalized", "normalize", "yearly", "monthly", "transform", "mean"}
	indicatorQueries = []string{"select", "country"}
)

// environment carries what every query needs to build its table
type environment struct {
	cfg     *config.Config
	opts    options
	logger  *slog.Logger
	metrics *infrastructure.LoadMetrics
	stderr  io.Writer
}

func (e *environment) query(ctx context.Context) (dataframe.DataFrame, error) {
	switch e.opts.dataset {
	case datasetHourly:
		table, err := e.hourly(ctx)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		return hourlyQuery(table, e.opts)
	case datasetMonthly:
		table, err := e.monthly(ctx)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		return monthlyQuery(table, e.opts)
	case datasetIndicator:
		table, err := e.indicator(ctx)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		return indicatorQuery(table, e.opts)
	default:
		return dataframe.DataFrame{}, apperrors.NewUnsupportedModeError("dataset", e.opts.dataset)
	}
}

func (e *environment) cacheOptions(dir string) cache.Options {
	return cache.Options{
		Dir:     dir,
		Policy:  e.cfg.Cache.Policy,
		Logger:  e.logger,
		Metrics: e.metrics,
	}
}

func (e *environment) hourly(ctx context.Context) (*consumption.HourlyTable, error) {
	opts := consumption.HourlyOptionsFromConfig(e.cfg)
	opts.Rebuild = e.opts.rebuild
	opts.Logger = e.logger
	opts.Metrics = e.metrics
	if e.cfg.Cache.Enabled {
		store, err := consumption.NewHourlyStore(e.cacheOptions(opts.Dir))
		if err != nil {
			return nil, err
		}
		opts.Cache = store
	}

	table, report, err := consumption.BuildHourly(ctx, opts)
	if err != nil {
		return nil, err
	}
	e.printFailures(report)
	return table, nil
}

func (e *environment) monthly(ctx context.Context) (*consumption.MonthlyTable, error) {
	opts := consumption.MonthlyOptionsFromConfig(e.cfg)
	opts.Rebuild = e.opts.rebuild
	opts.Logger = e.logger
	opts.Metrics = e.metrics
	if e.cfg.Cache.Enabled {
		store, err := consumption.NewMonthlyStore(e.cacheOptions(opts.Dir))
		if err != nil {
			return nil, err
		}
		opts.Cache = store
	}

	table, report, err := consumption.BuildMonthly(ctx, opts)
	if err != nil {
		return nil, err
	}
	e.printFailures(report)
	return table, nil
}

func (e *environment) indicator(ctx context.Context) (*indicator.Table, error) {
	var found *config.IndicatorConfig
	for i := range e.cfg.Indicators {
		if e.cfg.Indicators[i].Name == e.opts.indicator {
			found = &e.cfg.Indicators[i]
			break
		}
	}
	if found == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("indicator %q", e.opts.indicator))
	}

	src, err := indicator.FromConfig(*found)
	if err != nil {
		return nil, err
	}
	opts := indicator.Options{Rebuild: e.opts.rebuild, Logger: e.logger, Metrics: e.metrics}
	if e.cfg.Cache.Enabled {
		store, err := indicator.NewStore(src, e.cacheOptions(""))
		if err != nil {
			return nil, err
		}
		opts.Cache = store
	}
	return indicator.Load(ctx, src, opts)
}

// printFailures lists the files that contributed no rows
func (e *environment) printFailures(report *consumption.LoadReport) {
	if report == nil || report.Errors == nil {
		return
	}
	fmt.Fprintf(e.stderr, "%d of %d files failed:\n", len(report.Errors.Errors), report.Files)
	for _, err := range report.Errors.Errors {
		fmt.Fprintf(e.stderr, "  %v\n", err)
	}
}

func window(opts options) consumption.Window {
	if opts.year == 0 {
		return consumption.AllYears()
	}
	return consumption.YearsBack(opts.year, opts.years)
}

// singleCountry returns the one country a per-country query needs
func singleCountry(opts options) (string, error) {
	if len(opts.countries) != 1 {
		return "", apperrors.NewAppValidationError(
			fmt.Sprintf("query %q needs exactly one country, got %d", opts.query, len(opts.countries)))
	}
	return opts.countries[0], nil
}

func hourlyQuery(t *consumption.HourlyTable, opts options) (dataframe.DataFrame, error) {
	switch opts.query {
	case "daily":
		country, err := singleCountry(opts)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		if err := t.RequireCountry(country); err != nil {
			return dataframe.DataFrame{}, err
		}
		return exporter.DailyFrame(t.HistoricalDailyAggregates(country, opts.year, opts.years)), nil
	case "normalized":
		country, err := singleCountry(opts)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		if err := t.RequireCountry(country); err != nil {
			return dataframe.DataFrame{}, err
		}
		return exporter.NormalizedDayFrame(t.NormalizedHourlyCountryData(country)), nil
	case "weekday":
		return exporter.WeekdayFrame(t.DailyAggregatesCountries(opts.countries, window(opts))), nil
	case "profiles":
		return exporter.ProfileFrame(t.HourlyAggregatesCountries(opts.countries, window(opts))), nil
	case "prototype":
		return exporter.ProfileFrame(t.HourlyPrototypeCountries(opts.countries, window(opts))), nil
	case "prototype-weekday":
		table, err := t.HourlyPrototypeWeekdayCountries(opts.weekday, opts.countries, window(opts))
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		return exporter.ProfileFrame(table), nil
	default:
		return dataframe.DataFrame{}, apperrors.NewUnsupportedModeError("hourly query", opts.query)
	}
}

func monthlyQuery(t *consumption.MonthlyTable, opts options) (dataframe.DataFrame, error) {
	switch opts.query {
	case "select":
		return exporter.MonthlyRecordsFrame(t.SelectCountriesData(opts.countries), t.MonthLabels()), nil
	case "normalized":
		country, err := singleCountry(opts)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		if err := t.RequireCountry(country); err != nil {
			return dataframe.DataFrame{}, err
		}
		return exporter.MonthlyRecordsFrame(t.NormalizedMonthlyCountryData(country), t.MonthLabels()), nil
	case "normalize":
		records, err := t.DataNormalization(opts.byYear, opts.how, opts.countries)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		return exporter.MonthlyRecordsFrame(records, t.MonthLabels()), nil
	case "yearly":
		return exporter.YearlyFrame(t.YearlyConsumptionCountries(opts.countries, opts.normalized, opts.from)), nil
	case "monthly":
		return exporter.MonthlyFrame(t.MonthlyConsumptionCountries(opts.countries, opts.normalized)), nil
	case "transform":
		return exporter.ObservationFrame(t.TransformMonthlyData()), nil
	case "mean":
		return exporter.YearlyValueFrame(t.MeanMonthlyData(), "mean"), nil
	default:
		return dataframe.DataFrame{}, apperrors.NewUnsupportedModeError("monthly query", opts.query)
	}
}

func indicatorQuery(t *indicator.Table, opts options) (dataframe.DataFrame, error) {
	switch opts.query {
	case "select", "":
		return exporter.YearlyFrame(t.SelectCountriesData(opts.countries)), nil
	case "country":
		country, err := singleCountry(opts)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		s, err := t.SelectCountryData(country)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		return exporter.IndicatorFrame(s), nil
	default:
		return dataframe.DataFrame{}, apperrors.NewUnsupportedModeError("indicator query", opts.query)
	}
}
