package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "powerstats/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Logging    LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
	Loader     LoaderConfig      `yaml:"loader" envconfig:"LOADER"`
	Hourly     HourlyConfig      `yaml:"hourly" envconfig:"HOURLY"`
	Monthly    MonthlyConfig     `yaml:"monthly" envconfig:"MONTHLY"`
	Cache      CacheConfig       `yaml:"cache" envconfig:"CACHE"`
	Tracing    TracingConfig     `yaml:"tracing" envconfig:"TRACING"`
	Metrics    MetricsConfig     `yaml:"metrics" envconfig:"METRICS"`
	Export     ExportConfig      `yaml:"export" envconfig:"EXPORT"`
	Indicators []IndicatorConfig `yaml:"indicators" ignored:"true" validate:"dive"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// LoaderConfig controls how spreadsheet batches are read
type LoaderConfig struct {
	Workers int `yaml:"workers" envconfig:"WORKERS" validate:"min=1,max=64"`
}

// HourlyConfig describes the hourly statistics directory and worksheet layout
type HourlyConfig struct {
	Dir             string `yaml:"dir" envconfig:"DIR"`
	Pattern         string `yaml:"pattern" envconfig:"PATTERN" validate:"required"`
	Sheet           string `yaml:"sheet" envconfig:"SHEET" validate:"required"`
	SkipRows        int    `yaml:"skip_rows" envconfig:"SKIP_ROWS" validate:"min=0"`
	MaxColumns      int    `yaml:"max_columns" envconfig:"MAX_COLUMNS" validate:"min=26"`
	HourChangeLabel string `yaml:"hour_change_label" envconfig:"HOUR_CHANGE_LABEL" validate:"required"`
	Sentinel        string `yaml:"sentinel" envconfig:"SENTINEL"`
	MinHours        int    `yaml:"min_hours" envconfig:"MIN_HOURS" validate:"min=1,max=24"`
	// DateOrder reads day cells stored as text: day-first or month-first
	DateOrder string `yaml:"date_order" envconfig:"DATE_ORDER" validate:"oneof=day-first month-first"`
}

// MonthlyConfig describes the monthly statistics directory and worksheet layout
type MonthlyConfig struct {
	Dir       string `yaml:"dir" envconfig:"DIR"`
	Pattern   string `yaml:"pattern" envconfig:"PATTERN" validate:"required"`
	Sheet     string `yaml:"sheet" envconfig:"SHEET" validate:"required"`
	SkipRows  int    `yaml:"skip_rows" envconfig:"SKIP_ROWS" validate:"min=0"`
	Sentinel  string `yaml:"sentinel" envconfig:"SENTINEL"`
	YearLabel string `yaml:"year_label" envconfig:"YEAR_LABEL" validate:"required"`
}

// CacheConfig controls the on-disk table snapshots
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"ENABLED"`
	Policy  string `yaml:"policy" envconfig:"POLICY" validate:"oneof=presence modtime content"`
}

// TracingConfig toggles OpenTelemetry tracing for dataset builds
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"ENABLED"`
	Exporter string `yaml:"exporter" envconfig:"EXPORTER" validate:"oneof=stdout none"`
}

// MetricsConfig controls the Prometheus textfile written after a run
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path" envconfig:"TEXTFILE_PATH"`
}

// ExportConfig controls how query results are written
type ExportConfig struct {
	BOM   bool   `yaml:"bom" envconfig:"BOM"`
	Sheet string `yaml:"sheet" envconfig:"SHEET" validate:"required"`
}

// IndicatorConfig names one macroeconomic indicator file. Preset fills in the
// parsing quirks of the known Eurostat exports; explicit fields override it.
type IndicatorConfig struct {
	Name            string `yaml:"name" validate:"required"`
	Preset          string `yaml:"preset" validate:"omitempty,oneof=inflation gdp population unemployment"`
	Path            string `yaml:"path" validate:"required"`
	Format          string `yaml:"format" validate:"omitempty,oneof=xlsx tsv"`
	Sheet           string `yaml:"sheet"`
	CodeField       int    `yaml:"code_field" validate:"min=0"`
	FootnoteMarkers string `yaml:"footnote_markers"`
	MissingMarker   string `yaml:"missing_marker"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("path", path)
		}
	}

	// Fields carry no default tags, so only variables that are set override.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML values on top of cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
			Output: "console",
		},
		Loader: LoaderConfig{
			Workers: DefaultWorkers,
		},
		Hourly: HourlyConfig{
			Pattern:         DefaultHourlyPattern,
			Sheet:           DefaultSheet,
			SkipRows:        DefaultHourlySkipRows,
			MaxColumns:      DefaultHourlyMaxColumns,
			HourChangeLabel: DefaultHourChangeLabel,
			Sentinel:        DefaultSentinel,
			MinHours:        DefaultMinHours,
			DateOrder:       DefaultDateOrder,
		},
		Monthly: MonthlyConfig{
			Pattern:   DefaultMonthlyPattern,
			Sheet:     DefaultSheet,
			SkipRows:  DefaultMonthlySkipRows,
			Sentinel:  DefaultSentinel,
			YearLabel: DefaultYearLabel,
		},
		Cache: CacheConfig{
			Enabled: true,
			Policy:  CachePolicyModTime,
		},
		Tracing: TracingConfig{
			Exporter: "stdout",
		},
		Export: ExportConfig{
			BOM:   true,
			Sheet: DefaultExportSheet,
		},
	}
}
