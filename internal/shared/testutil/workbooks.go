package testutil

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// Sheet name and header offsets of the ENTSO-E statistics exports
const (
	StatisticsSheet = "Statistics"
	HourlySkipRows  = 9
	MonthlySkipRows = 7
)

// SaveWorkbook writes rows, starting at A1, to a one-sheet workbook at path.
// Nil rows are left empty.
func SaveWorkbook(t testing.TB, path, sheet string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	require.NoError(t, f.SaveAs(path))
	return path
}

// SetDateCell rewrites one cell of the workbook at path as a real date: the
// stored value is the Excel serial of date, displayed with numFmt.
func SetDateCell(t testing.TB, path, sheet, cell string, date time.Time, numFmt string) {
	t.Helper()

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, cell, cell, style))
	require.NoError(t, f.SetCellValue(sheet, cell, date))
	require.NoError(t, f.Save())
}

// HourlyDayCell returns the Day cell of the n-th (0-based) body row of an
// hourly export saved by HourlyWorkbook
func HourlyDayCell(n int) string {
	cell, _ := excelize.CoordinatesToCellName(2, HourlySkipRows+2+n)
	return cell
}

// HourlyHeader returns the column labels of an hourly export. With
// hourChange the third hour is split into "3A:00:00" and "3B:00:00", as in
// the month where clocks go back.
func HourlyHeader(hourChange bool) []any {
	header := []any{"Country", "Day"}
	for h := 1; h <= 24; h++ {
		if h == 3 && hourChange {
			header = append(header, "3A:00:00", "3B:00:00")
			continue
		}
		header = append(header, fmt.Sprintf("%02d:00:00", h))
	}
	return header
}

// HourlyRow builds a row of an hourly export where hour h holds value(h).
// A nil return from value leaves the cell empty.
func HourlyRow(country, day string, value func(hour int) any) []any {
	row := []any{country, day}
	for h := 1; h <= 24; h++ {
		row = append(row, value(h))
	}
	return row
}

// HourChangeRow builds a row for a HourlyHeader(true) layout: value(3) goes
// to "3A:00:00" and extra to "3B:00:00".
func HourChangeRow(country, day string, value func(hour int) any, extra any) []any {
	row := HourlyRow(country, day, value)
	out := make([]any, 0, len(row)+1)
	out = append(out, row[:5]...)
	out = append(out, extra)
	return append(out, row[5:]...)
}

// Constant returns a value function for HourlyRow that fills every hour with v
func Constant(v float64) func(int) any {
	return func(int) any { return v }
}

// HourlyWorkbook saves an hourly export named name in dir
func HourlyWorkbook(t testing.TB, dir, name string, hourChange bool, rows ...[]any) string {
	t.Helper()
	grid := make([][]any, 0, HourlySkipRows+1+len(rows))
	grid = append(grid, []any{"Hourly load values of all countries"})
	for i := 1; i < HourlySkipRows; i++ {
		grid = append(grid, []any{"-"})
	}
	grid = append(grid, HourlyHeader(hourChange))
	grid = append(grid, rows...)
	return SaveWorkbook(t, filepath.Join(dir, name), StatisticsSheet, grid)
}

// MonthlyHeader returns the column labels of a monthly export
func MonthlyHeader() []any {
	header := []any{"Country"}
	for m := 1; m <= 12; m++ {
		header = append(header, m)
	}
	return append(header, "Sum")
}

// MonthlyRow builds a country row with the same value for every month
func MonthlyRow(country string, sum, month float64) []any {
	row := []any{country}
	for m := 1; m <= 12; m++ {
		row = append(row, month)
	}
	return append(row, sum)
}

// MonthlyWorkbook saves a monthly export for year named name in dir. The
// year is written next to a "Year:" label on the second row.
func MonthlyWorkbook(t testing.TB, dir, name string, year int, rows ...[]any) string {
	t.Helper()
	grid := make([][]any, 0, MonthlySkipRows+1+len(rows))
	grid = append(grid, []any{"Monthly consumption of all countries"})
	grid = append(grid, []any{"Year:", year})
	for i := 2; i < MonthlySkipRows; i++ {
		grid = append(grid, []any{"-"})
	}
	grid = append(grid, MonthlyHeader())
	grid = append(grid, rows...)
	return SaveWorkbook(t, filepath.Join(dir, name), StatisticsSheet, grid)
}
