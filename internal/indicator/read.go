package indicator

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "powerstats/internal/errors"
	"powerstats/internal/spreadsheet"
)

// readGrid returns every row of the source file
func readGrid(src Source) ([][]string, error) {
	switch src.Format {
	case FormatXLSX:
		return readXLSX(src)
	case FormatTSV:
		return readTSV(src)
	default:
		return nil, apperrors.NewUnsupportedModeError("indicator format", src.Format)
	}
}

func readXLSX(src Source) ([][]string, error) {
	f, err := excelize.OpenFile(src.Path)
	if err != nil {
		return nil, apperrors.NewFileReadError(src.Path, err)
	}
	defer f.Close()

	sheet := src.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewFileReadError(src.Path, err)
	}
	return rows, nil
}

func readTSV(src Source) ([][]string, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, apperrors.NewFileReadError(src.Path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, apperrors.NewFileReadError(src.Path, err)
	}
	return rows, nil
}

// cleaner turns annotated Eurostat cells into numbers
type cleaner struct {
	footnotes *regexp.Regexp
	missing   string
}

func newCleaner(src Source) cleaner {
	c := cleaner{missing: src.MissingMarker}
	if src.FootnoteMarkers != "" {
		c.footnotes = regexp.MustCompile(`\s*[` + regexp.QuoteMeta(src.FootnoteMarkers) + `]\s*`)
	}
	return c
}

// value strips footnote letters and returns NaN for missing or
// non-numeric cells
func (c cleaner) value(cell string) float64 {
	if c.footnotes != nil {
		cell = c.footnotes.ReplaceAllString(cell, "")
	}
	cell = strings.TrimSpace(cell)
	if cell == "" || (c.missing != "" && strings.Contains(cell, c.missing)) {
		return math.NaN()
	}
	v, ok := spreadsheet.ParseFloat(cell)
	if !ok {
		return math.NaN()
	}
	return v
}

// parseGrid transposes a wide grid into per-country series keyed by year.
// Header cells that are not years are ignored; a header without any year is
// a SchemaMismatchError.
func parseGrid(src Source, grid [][]string) (*Table, error) {
	if len(grid) == 0 {
		return nil, apperrors.NewSchemaMismatchError(src.Path, "empty indicator file")
	}

	type yearColumn struct {
		year int
		col  int
	}
	var columns []yearColumn
	for col, label := range grid[0] {
		if col == 0 {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(label))
		if err != nil {
			continue
		}
		columns = append(columns, yearColumn{year, col})
	}
	if len(columns) == 0 {
		return nil, apperrors.NewSchemaMismatchError(src.Path,
			fmt.Sprintf("no year columns in header %q", strings.Join(grid[0], ",")))
	}
	sort.SliceStable(columns, func(i, j int) bool { return columns[i].year < columns[j].year })

	clean := newCleaner(src)
	t := &Table{name: src.Name, values: make(map[string][]float64)}
	for _, c := range columns {
		t.years = append(t.years, c.year)
	}
	for _, row := range grid[1:] {
		if len(row) == 0 {
			continue
		}
		code := countryCode(row[0], src.CodeField)
		if code == "" {
			continue
		}
		values := make([]float64, len(columns))
		for i, c := range columns {
			if c.col < len(row) {
				values[i] = clean.value(row[c.col])
			} else {
				values[i] = math.NaN()
			}
		}
		t.values[code] = values
	}
	return t, nil
}

func countryCode(cell string, field int) string {
	parts := strings.Split(cell, ",")
	if field < len(parts) {
		return strings.TrimSpace(parts[field])
	}
	return strings.TrimSpace(cell)
}
