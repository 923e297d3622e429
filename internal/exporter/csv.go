package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	"powerstats/internal/config"
	apperrors "powerstats/internal/errors"
	"powerstats/internal/files"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options configures a Writer
type Options struct {
	BOMPrefix bool   // Add UTF-8 BOM for Excel compatibility
	Sheet     string // worksheet name of XLSX output
}

// OptionsFromConfig maps the export section of the configuration
func OptionsFromConfig(cfg config.ExportConfig) Options {
	return Options{BOMPrefix: cfg.BOM, Sheet: cfg.Sheet}
}

// Writer writes data frames to CSV or XLSX files. Every file is written to
// a temporary sibling first and renamed into place.
type Writer struct {
	opts   Options
	files  *files.Manager
	logger *slog.Logger
}

// NewWriter creates a new writer instance
func NewWriter(opts Options, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Sheet == "" {
		opts.Sheet = config.DefaultExportSheet
	}
	return &Writer{opts: opts, files: files.NewManager(logger), logger: logger}
}

// Write picks the output format from the extension of path
func (w *Writer) Write(path string, df dataframe.DataFrame) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return w.WriteCSV(path, df)
	case ".xlsx":
		return w.WriteXLSX(path, df)
	default:
		return apperrors.NewUnsupportedModeError("output format", ext)
	}
}

// WriteCSV writes df with a header row. Missing values are empty cells.
func (w *Writer) WriteCSV(path string, df dataframe.DataFrame) error {
	if df.Err != nil {
		return fmt.Errorf("invalid data frame: %w", df.Err)
	}

	w.logger.Info("Writing CSV file",
		slog.String("file_path", path),
		slog.Int("record_count", df.Nrow()),
		slog.Int("column_count", df.Ncol()))

	return w.files.ReplaceAtomic(path, func(tmpPath string) error {
		file, err := os.Create(tmpPath)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		if err := encodeCSV(file, df, w.opts.BOMPrefix); err != nil {
			file.Close()
			return err
		}
		return file.Close()
	})
}

// EncodeCSV writes df as CSV to out without a BOM
func EncodeCSV(out io.Writer, df dataframe.DataFrame) error {
	if df.Err != nil {
		return fmt.Errorf("invalid data frame: %w", df.Err)
	}
	return encodeCSV(out, df, false)
}

func encodeCSV(out io.Writer, df dataframe.DataFrame, bom bool) error {
	if bom {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(df.Names()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	columns := df.Names()
	record := make([]string, len(columns))
	for i := 0; i < df.Nrow(); i++ {
		for j, name := range columns {
			record[j] = formatCell(df.Col(name), i)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes df to a single-sheet workbook. Numbers stay numeric
// cells; missing values are left blank.
func (w *Writer) WriteXLSX(path string, df dataframe.DataFrame) error {
	if df.Err != nil {
		return fmt.Errorf("invalid data frame: %w", df.Err)
	}

	w.logger.Info("Writing XLSX file",
		slog.String("file_path", path),
		slog.String("sheet", w.opts.Sheet),
		slog.Int("record_count", df.Nrow()),
		slog.Int("column_count", df.Ncol()))

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), w.opts.Sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, 0, df.Ncol())
	for _, name := range df.Names() {
		header = append(header, name)
	}
	if err := f.SetSheetRow(w.opts.Sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	columns := df.Names()
	for i := 0; i < df.Nrow(); i++ {
		row := make([]any, len(columns))
		for j, name := range columns {
			row[j] = cellValue(df.Col(name), i)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(w.opts.Sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	// SaveAs insists on a workbook extension, the temporary file has none.
	return w.files.ReplaceAtomic(path, func(tmpPath string) error {
		file, err := os.Create(tmpPath)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		if err := f.Write(file); err != nil {
			file.Close()
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		return file.Close()
	})
}

// formatCell renders row i of s as CSV text
func formatCell(s series.Series, i int) string {
	e := s.Elem(i)
	if e.IsNA() {
		return ""
	}
	switch s.Type() {
	case series.Float:
		return formatFloat(e.Float())
	case series.Int:
		v, err := e.Int()
		if err != nil {
			return ""
		}
		return formatInt(int64(v))
	default:
		return e.String()
	}
}

// cellValue returns row i of s as a typed spreadsheet value, nil when missing
func cellValue(s series.Series, i int) any {
	e := s.Elem(i)
	if e.IsNA() {
		return nil
	}
	switch s.Type() {
	case series.Float:
		v := e.Float()
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	case series.Int:
		v, err := e.Int()
		if err != nil {
			return nil
		}
		return v
	default:
		return e.String()
	}
}
