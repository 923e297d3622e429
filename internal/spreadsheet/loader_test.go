package spreadsheet

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "powerstats/internal/errors"
	"powerstats/internal/shared/testutil"
)

func hourlyOptions() Options {
	return Options{
		Sheet:    testutil.StatisticsSheet,
		SkipRows: testutil.HourlySkipRows,
		Sentinel: "n.a.",
		Workers:  2,
	}
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	path := testutil.HourlyWorkbook(t, dir, "Hourly_2015_3.xlsx", false,
		testutil.HourlyRow("ES", "2015-03-02", testutil.Constant(100)),
		nil,
		testutil.HourlyRow("PT", "2015-03-02", func(h int) any {
			if h == 5 {
				return "n.a."
			}
			return float64(h)
		}),
	)

	loader := NewLoader(hourlyOptions(), nil)
	sheet, err := loader.Read(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Hourly_2015_3.xlsx", sheet.Name)
	assert.Len(t, sheet.Header, 26)
	assert.Equal(t, "Country", sheet.Header[0])
	assert.Equal(t, "Day", sheet.Header[1])
	assert.Equal(t, "01:00:00", sheet.Header[2])
	require.Len(t, sheet.Rows, 2, "blank rows are skipped")

	assert.Equal(t, "PT", sheet.Cell(1, 0))
	assert.Equal(t, 100.0, sheet.Float(0, 2))
	assert.True(t, math.IsNaN(sheet.Float(1, 6)), "sentinel is missing")
	assert.Equal(t, 24.0, sheet.Float(1, 25))
	assert.True(t, math.IsNaN(sheet.Float(1, 40)), "past the row end")
	assert.Equal(t, "", sheet.Cell(5, 0))
}

func TestRead_Failures(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(hourlyOptions(), nil)

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.Read(context.Background(), filepath.Join(dir, "absent.xlsx"))
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFileRead))
	})

	t.Run("not a workbook", func(t *testing.T) {
		path := filepath.Join(dir, "Hourly_broken.xlsx")
		require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0644))
		_, err := loader.Read(context.Background(), path)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFileRead))
	})

	t.Run("wrong sheet", func(t *testing.T) {
		path := testutil.SaveWorkbook(t, filepath.Join(dir, "other.xlsx"), "Data", [][]any{{"x"}})
		_, err := loader.Read(context.Background(), path)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFileRead))
	})

	t.Run("too short for header", func(t *testing.T) {
		path := testutil.SaveWorkbook(t, filepath.Join(dir, "short.xlsx"), testutil.StatisticsSheet, [][]any{{"x"}, {"y"}})
		_, err := loader.Read(context.Background(), path)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFileRead))
	})
}

func TestReadRaw(t *testing.T) {
	dir := t.TempDir()
	path := testutil.MonthlyWorkbook(t, dir, "Monthly_2010.xlsx", 2010, testutil.MonthlyRow("ES", 1200, 100))

	loader := NewLoader(Options{Sheet: testutil.StatisticsSheet, SkipRows: testutil.MonthlySkipRows}, nil)
	rows, err := loader.ReadRaw(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Year:", "2010"}, rows[1])
	assert.Len(t, rows, testutil.MonthlySkipRows+2)
}

func TestReadAll_IsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	good1 := testutil.HourlyWorkbook(t, dir, "Hourly_1.xlsx", false,
		testutil.HourlyRow("ES", "2015-03-02", testutil.Constant(1)))
	bad := filepath.Join(dir, "Hourly_2.xlsx")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0644))
	good2 := testutil.HourlyWorkbook(t, dir, "Hourly_3.xlsx", false,
		testutil.HourlyRow("PT", "2015-03-02", testutil.Constant(2)),
		testutil.HourlyRow("PT", "2015-03-03", testutil.Constant(2)))

	logger, logs := testutil.NewTestLogger(t)
	loader := NewLoader(hourlyOptions(), logger)
	sheets, err := loader.ReadAll(context.Background(), []string{good1, bad, good2})

	require.Error(t, err)
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 1)
	assert.True(t, apperrors.IsType(merr.Errors[0], apperrors.ErrTypeFileRead))

	require.Len(t, sheets, 3)
	assert.Equal(t, "Hourly_1.xlsx", sheets[0].Name)
	assert.Nil(t, sheets[1])
	assert.Equal(t, "Hourly_3.xlsx", sheets[2].Name)
	assert.Len(t, sheets[2].Rows, 2)

	_, ok := logs.Find("Skipping unreadable file")
	assert.True(t, ok)
}

func TestReadAll_NoFailures(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.xlsx", "b.xlsx", "c.xlsx", "d.xlsx", "e.xlsx"} {
		paths = append(paths, testutil.HourlyWorkbook(t, dir, name, false,
			testutil.HourlyRow(name[:1], "2015-03-02", testutil.Constant(1))))
	}

	sheets, err := NewLoader(hourlyOptions(), nil).ReadAll(context.Background(), paths)
	require.NoError(t, err)
	for i, sheet := range sheets {
		assert.Equal(t, filepath.Base(paths[i]), sheet.Name, "input order kept")
	}
}

func TestReadAll_Cancelled(t *testing.T) {
	dir := t.TempDir()
	path := testutil.HourlyWorkbook(t, dir, "a.xlsx", false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLoader(hourlyOptions(), nil).ReadAll(ctx, []string{path})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12.5", 12.5, true},
		{"1,234.5", 1234.5, true},
		{" -3 ", -3, true},
		{"", 0, false},
		{"n.a.", 0, false},
		{"1-2", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseFloat(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestRead_StoredDateValue(t *testing.T) {
	dir := t.TempDir()
	path := testutil.HourlyWorkbook(t, dir, "Hourly_2015_03.xlsx", false,
		testutil.HourlyRow("ES", "", testutil.Constant(100)),
		testutil.HourlyRow("PT", "03/04/2015", testutil.Constant(40)),
	)
	testutil.SetDateCell(t, path, testutil.StatisticsSheet, testutil.HourlyDayCell(0),
		time.Date(2015, 3, 4, 0, 0, 0, 0, time.UTC), "mm/dd/yyyy")

	tests := []struct {
		name  string
		order DateOrder
		text  time.Time
	}{
		{"day first", DayFirst, time.Date(2015, 4, 3, 0, 0, 0, 0, time.UTC)},
		{"month first", MonthFirst, time.Date(2015, 3, 4, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := hourlyOptions()
			opts.DateOrder = tt.order
			sheet, err := NewLoader(opts, nil).Read(context.Background(), path)
			require.NoError(t, err)

			assert.Equal(t, "42067", sheet.Cell(0, 1), "body cells keep the stored value")
			got, err := sheet.Date(0, 1)
			require.NoError(t, err)
			assert.Equal(t, time.Date(2015, 3, 4, 0, 0, 0, 0, time.UTC), got)

			got, err = sheet.Date(1, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.text, got)
		})
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2015, 3, 2, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in    string
		order DateOrder
	}{
		{"2015-03-02", DayFirst},
		{"2015-03-02 00:00:00", MonthFirst},
		{"42065", DayFirst},
		{"42065.75", MonthFirst},
		{"02/03/2015", DayFirst},
		{"2.3.2015", DayFirst},
		{"03/02/2015", MonthFirst},
		{"03-02-15", MonthFirst},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in, tt.order)
		require.NoError(t, err, tt.in)
		assert.Equal(t, want, got, tt.in)
	}

	for _, in := range []string{"yesterday", "", "0", "-3", "13/13/2015"} {
		_, err := ParseDate(in, DayFirst)
		assert.Error(t, err, in)
	}
	_, err := ParseDate("03-02-15", DayFirst)
	assert.Error(t, err, "two-digit years are a month-first layout only")
}
