package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"powerstats/internal/config"
	apperrors "powerstats/internal/errors"
	"powerstats/internal/exporter"
	"powerstats/internal/infrastructure"
)

// Datasets accepted by -dataset
const (
	datasetHourly    = "hourly"
	datasetMonthly   = "monthly"
	datasetIndicator = "indicator"
)

// options holds the parsed command line
type options struct {
	configPath string
	dataset    string
	query      string
	countries  []string
	year       int
	years      int
	from       int
	weekday    string
	normalized bool
	how        string
	byYear     bool
	indicator  string
	out        string
	rebuild    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "powerstats:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	var countries string

	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&opts.dataset, "dataset", datasetHourly, "hourly | monthly | indicator")
	fs.StringVar(&opts.query, "query", "", "query to run (see -help)")
	fs.StringVar(&countries, "countries", "", "comma separated country codes, empty for all")
	fs.IntVar(&opts.year, "year", 0, "last year of the window, 0 for all years")
	fs.IntVar(&opts.years, "years", 0, "number of years before -year in the window")
	fs.IntVar(&opts.from, "from", 0, "first year of yearly pivots, 0 for all")
	fs.StringVar(&opts.weekday, "weekday", "", "weekday name, weekend or working")
	fs.BoolVar(&opts.normalized, "normalized", false, "normalise pivots by the yearly Sum")
	fs.StringVar(&opts.how, "how", "", "normalisation statistic: mean, max or sum")
	fs.BoolVar(&opts.byYear, "by-year", false, "normalise each Sum across a country's years")
	fs.StringVar(&opts.indicator, "indicator", "", "indicator name from the configuration")
	fs.StringVar(&opts.out, "out", "", "output file (.csv or .xlsx), stdout CSV when empty")
	fs.BoolVar(&opts.rebuild, "rebuild", false, "ignore cached snapshots")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s -dataset <dataset> -query <query> [flags]\n\n", config.AppName)
		fmt.Fprintf(stderr, "Queries:\n")
		fmt.Fprintf(stderr, "  hourly:    %s\n", strings.Join(hourlyQueries, ", "))
		fmt.Fprintf(stderr, "  monthly:   %s\n", strings.Join(monthlyQueries, ", "))
		fmt.Fprintf(stderr, "  indicator: %s\n\n", strings.Join(indicatorQueries, ", "))
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, apperrors.NewParsingError("invalid command line", err)
	}
	for _, c := range strings.Split(countries, ",") {
		if c = strings.TrimSpace(c); c != "" {
			opts.countries = append(opts.countries, c)
		}
	}
	return opts, nil
}

// run executes one query. Results go to stdout unless -out is set; logs,
// spans and the per-file error list go to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	logger, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(logger)
	defer infrastructure.CloseLogFile()

	ctx = infrastructure.WithTraceID(ctx, uuid.NewString())

	tracing, err := infrastructure.InitializeTracing(ctx, cfg.Tracing, stderr, logger)
	if err != nil {
		return err
	}
	defer tracing.Shutdown(context.Background())

	reg := prometheus.NewRegistry()
	metrics, err := infrastructure.NewLoadMetrics(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	logger.InfoContext(ctx, "Starting query",
		slog.String("dataset", opts.dataset),
		slog.String("query", opts.query),
		slog.Any("countries", opts.countries),
		slog.String("output", opts.out))

	env := &environment{cfg: cfg, opts: opts, logger: logger, metrics: metrics, stderr: stderr}
	df, err := env.query(ctx)
	if err != nil {
		return err
	}

	if opts.out == "" {
		err = exporter.EncodeCSV(stdout, df)
	} else {
		err = exporter.NewWriter(exporter.OptionsFromConfig(cfg.Export), logger).Write(opts.out, df)
	}
	if err != nil {
		return err
	}

	if cfg.Metrics.TextfilePath != "" {
		if err := infrastructure.WriteTextfile(cfg.Metrics.TextfilePath, reg); err != nil {
			logger.WarnContext(ctx, "Failed to write metrics textfile",
				slog.String("path", cfg.Metrics.TextfilePath),
				slog.String("error", err.Error()))
		}
	}

	logger.InfoContext(ctx, "Query completed",
		slog.String("dataset", opts.dataset),
		slog.String("query", opts.query),
		slog.Int("rows", df.Nrow()))
	return nil
}
