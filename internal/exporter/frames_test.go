package exporter

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powerstats/pkg/contracts/domain"
)

func TestDailyFrame(t *testing.T) {
	day := time.Date(2015, 1, 5, 0, 0, 0, 0, time.UTC)
	df := DailyFrame([]domain.DailyAggregate{
		{Country: "ES", Date: day, Weekday: 0, Month: 1, Year: 2015, Daily: 24},
		{Country: "ES", Date: day.AddDate(0, 0, 1), Weekday: 1, Month: 1, Year: 2015, Daily: math.NaN()},
	})
	require.NoError(t, df.Err)

	assert.Equal(t, []string{"country", "date", "weekday", "month", "year", "daily"}, df.Names())
	assert.Equal(t, 2, df.Nrow())
	assert.Equal(t, []string{"2015-01-05", "2015-01-06"}, df.Col("date").Records())

	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, df))
	assert.Equal(t, "country,date,weekday,month,year,daily\n"+
		"ES,2015-01-05,0,1,2015,24\n"+
		"ES,2015-01-06,1,1,2015,\n", buf.String())
}

func TestNormalizedDayFrame(t *testing.T) {
	var hours [domain.HoursPerDay]float64
	for h := range hours {
		hours[h] = 1.0 / 24
	}
	df := NormalizedDayFrame([]domain.NormalizedDay{
		{Country: "PT", Year: 2016, Month: 2, Weekday: 3, Date: time.Date(2016, 2, 4, 0, 0, 0, 0, time.UTC), Hours: hours},
	})
	require.NoError(t, df.Err)

	assert.Equal(t, 5+domain.HoursPerDay, df.Ncol())
	assert.Equal(t, "H01", df.Names()[5])
	assert.Equal(t, "H24", df.Names()[28])
	assert.InDelta(t, 1.0/24, df.Col("H13").Float()[0], 1e-15)
}

func TestWeekdayFrame(t *testing.T) {
	var hours [domain.HoursPerDay]float64
	hours[0] = 10
	df := WeekdayFrame([]domain.WeekdayAggregate{
		{Country: "ES", Weekday: 5, Hours: hours, Daily: 240},
	})
	require.NoError(t, df.Err)

	names := df.Names()
	assert.Equal(t, "country", names[0])
	assert.Equal(t, "weekday", names[1])
	assert.Equal(t, "daily", names[len(names)-1])
	assert.Equal(t, []float64{10}, df.Col("H01").Float())
	assert.Equal(t, []float64{240}, df.Col("daily").Float())
}

func TestProfileFrame(t *testing.T) {
	table := domain.ProfileTable{
		Hours: domain.HourLabels(),
		Columns: []domain.ProfileColumn{
			{Country: "ES", Label: "Monday", Values: make([]float64, domain.HoursPerDay)},
			{Country: "ES", Label: "weekend", Values: make([]float64, domain.HoursPerDay)},
			{Country: "PT", Values: make([]float64, domain.HoursPerDay)},
		},
	}
	df := ProfileFrame(table)
	require.NoError(t, df.Err)

	assert.Equal(t, []string{"hour", "ES Monday", "ES weekend", "PT"}, df.Names())
	assert.Equal(t, domain.HoursPerDay, df.Nrow())
	assert.Equal(t, "H01", df.Col("hour").Records()[0])
}

func TestYearlyFrame(t *testing.T) {
	m := domain.YearlyMatrix{
		Years:     []int{2010, 2011},
		Countries: []string{"ES", "PT"},
		Values:    [][]float64{{1, 2}, {3, math.NaN()}},
	}
	df := YearlyFrame(m)
	require.NoError(t, df.Err)

	assert.Equal(t, []string{"year", "ES", "PT"}, df.Names())
	assert.Equal(t, []float64{1, 3}, df.Col("ES").Float())

	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, df))
	assert.Equal(t, "year,ES,PT\n2010,1,2\n2011,3,\n", buf.String())
}

func TestMonthlyFrame(t *testing.T) {
	m := domain.MonthlyMatrix{
		Months:    domain.MonthNames(),
		Countries: []string{"ES"},
		Values:    make([][]float64, domain.MonthsPerYear),
	}
	for i := range m.Values {
		m.Values[i] = []float64{float64(i + 1)}
	}
	df := MonthlyFrame(m)
	require.NoError(t, df.Err)

	assert.Equal(t, []string{"month", "ES"}, df.Names())
	assert.Equal(t, "Dec", df.Col("month").Records()[11])
	assert.Equal(t, 12.0, df.Col("ES").Float()[11])
}

func TestMonthlyRecordsFrame(t *testing.T) {
	var months [domain.MonthsPerYear]float64
	months[4] = 50
	df := MonthlyRecordsFrame([]domain.MonthlyRecord{
		{Country: "ES", Year: 2012, Sum: 600, Months: months},
	}, domain.MonthNames())
	require.NoError(t, df.Err)

	assert.Equal(t, "country,year,Sum,Jan,Feb,Mar,Apr,May,Jun,Jul,Aug,Sep,Oct,Nov,Dec",
		strings.Join(df.Names(), ","))
	assert.Equal(t, []float64{50}, df.Col("May").Float())
	assert.Equal(t, []float64{600}, df.Col("Sum").Float())
}

func TestObservationAndYearlyValueFrames(t *testing.T) {
	obs := ObservationFrame([]domain.MonthlyObservation{
		{Year: 2010, Country: "ES", Month: "Jan", Value: 100},
		{Year: 2010, Country: "ES", Month: "Feb", Value: 90},
	})
	require.NoError(t, obs.Err)
	assert.Equal(t, []string{"year", "country", "month", "value"}, obs.Names())
	assert.Equal(t, []string{"Jan", "Feb"}, obs.Col("month").Records())

	mean := YearlyValueFrame([]domain.YearlyValue{{Country: "PT", Year: 2011, Value: 41.5}}, "mean")
	require.NoError(t, mean.Err)
	assert.Equal(t, []string{"country", "year", "mean"}, mean.Names())
	assert.Equal(t, []float64{41.5}, mean.Col("mean").Float())
}

func TestIndicatorFrame(t *testing.T) {
	df := IndicatorFrame(domain.IndicatorSeries{
		Country: "ES",
		Years:   []int{2014, 2015},
		Values:  []float64{-0.2, math.NaN()},
	})
	require.NoError(t, df.Err)
	assert.Equal(t, []string{"year", "ES"}, df.Names())

	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, df))
	assert.Equal(t, "year,ES\n2014,-0.2\n2015,\n", buf.String())
}
