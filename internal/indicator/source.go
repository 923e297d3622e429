package indicator

import (
	"path/filepath"
	"strings"

	"powerstats/internal/config"
	apperrors "powerstats/internal/errors"
)

// File formats of an indicator source
const (
	FormatXLSX = "xlsx"
	FormatTSV  = "tsv"
)

// Preset names of the known Eurostat exports
const (
	PresetInflation    = "inflation"
	PresetGDP          = "gdp"
	PresetPopulation   = "population"
	PresetUnemployment = "unemployment"
)

// Source describes one wide indicator file: a country code column followed
// by one column per year.
type Source struct {
	Name   string
	Path   string
	Format string
	// Sheet is the worksheet of an xlsx source; empty reads the first one
	Sheet string
	// CodeField picks the 0-based comma-separated field of the first cell
	// holding the country code ("unit,geo\time" rows carry it in field 1)
	CodeField int
	// FootnoteMarkers lists the letters Eurostat appends to flagged values
	FootnoteMarkers string
	// MissingMarker marks a value that is not available
	MissingMarker string
}

var presets = map[string]Source{
	PresetInflation: {
		Name:          PresetInflation,
		Format:        FormatXLSX,
		MissingMarker: ":",
	},
	PresetGDP: {
		Name:            PresetGDP,
		Format:          FormatTSV,
		CodeField:       1,
		FootnoteMarkers: "bep",
		MissingMarker:   ":",
	},
	PresetPopulation: {
		Name:            PresetPopulation,
		Format:          FormatTSV,
		CodeField:       1,
		FootnoteMarkers: "bep",
		MissingMarker:   ":",
	},
	PresetUnemployment: {
		Name:            PresetUnemployment,
		Format:          FormatTSV,
		CodeField:       1,
		FootnoteMarkers: "bep",
		MissingMarker:   ":",
	},
}

// Inflation returns the inflation preset (Eurostat tec00118, xlsx) for path
func Inflation(path string) Source { return withPath(PresetInflation, path) }

// GDP returns the GDP growth preset (Eurostat tec00115, tsv) for path
func GDP(path string) Source { return withPath(PresetGDP, path) }

// Population returns the population preset (Eurostat tps00001, tsv) for path
func Population(path string) Source { return withPath(PresetPopulation, path) }

// Unemployment returns the unemployment preset (Eurostat tsdec450, tsv) for path
func Unemployment(path string) Source { return withPath(PresetUnemployment, path) }

func withPath(preset, path string) Source {
	src := presets[preset]
	src.Path = path
	return src
}

// FromConfig builds a Source from a configured indicator. The preset, if
// any, supplies the defaults and explicit fields override it. Without a
// format the file extension decides; extensionless files are Eurostat TSV.
func FromConfig(cfg config.IndicatorConfig) (Source, error) {
	var src Source
	if cfg.Preset != "" {
		p, ok := presets[cfg.Preset]
		if !ok {
			return Source{}, apperrors.NewUnsupportedModeError("indicator preset", cfg.Preset)
		}
		src = p
	}

	src.Name = cfg.Name
	src.Path = cfg.Path
	if cfg.Format != "" {
		src.Format = cfg.Format
	}
	if cfg.Sheet != "" {
		src.Sheet = cfg.Sheet
	}
	if cfg.CodeField != 0 {
		src.CodeField = cfg.CodeField
	}
	if cfg.FootnoteMarkers != "" {
		src.FootnoteMarkers = cfg.FootnoteMarkers
	}
	if cfg.MissingMarker != "" {
		src.MissingMarker = cfg.MissingMarker
	}

	if src.Format == "" {
		src.Format = formatOf(src.Path)
	}
	switch src.Format {
	case FormatXLSX, FormatTSV:
	default:
		return Source{}, apperrors.NewUnsupportedModeError("indicator format", src.Format)
	}
	return src, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		return FormatXLSX
	default:
		return FormatTSV
	}
}
