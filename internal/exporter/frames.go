package exporter

import (
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"powerstats/pkg/contracts/domain"
)

const dateLayout = "2006-01-02"

// DailyFrame lays out daily totals: country, date, weekday, month, year, daily
func DailyFrame(rows []domain.DailyAggregate) dataframe.DataFrame {
	country := make([]string, len(rows))
	date := make([]string, len(rows))
	weekday := make([]int, len(rows))
	month := make([]int, len(rows))
	year := make([]int, len(rows))
	daily := make([]float64, len(rows))
	for i, r := range rows {
		country[i] = r.Country
		date[i] = r.Date.Format(dateLayout)
		weekday[i] = r.Weekday
		month[i] = r.Month
		year[i] = r.Year
		daily[i] = r.Daily
	}
	return dataframe.New(
		series.New(country, series.String, "country"),
		series.New(date, series.String, "date"),
		series.New(weekday, series.Int, "weekday"),
		series.New(month, series.Int, "month"),
		series.New(year, series.Int, "year"),
		series.New(daily, series.Float, "daily"),
	)
}

// NormalizedDayFrame lays out normalised days: the index columns followed by
// H01..H24
func NormalizedDayFrame(rows []domain.NormalizedDay) dataframe.DataFrame {
	country := make([]string, len(rows))
	year := make([]int, len(rows))
	month := make([]int, len(rows))
	weekday := make([]int, len(rows))
	date := make([]string, len(rows))
	hours := make([][]float64, domain.HoursPerDay)
	for h := range hours {
		hours[h] = make([]float64, len(rows))
	}
	for i, r := range rows {
		country[i] = r.Country
		year[i] = r.Year
		month[i] = r.Month
		weekday[i] = r.Weekday
		date[i] = r.Date.Format(dateLayout)
		for h, v := range r.Hours {
			hours[h][i] = v
		}
	}
	cols := []series.Series{
		series.New(country, series.String, "country"),
		series.New(year, series.Int, "year"),
		series.New(month, series.Int, "month"),
		series.New(weekday, series.Int, "weekday"),
		series.New(date, series.String, "date"),
	}
	return dataframe.New(append(cols, hourSeries(hours)...)...)
}

// WeekdayFrame lays out weekday aggregates: country, weekday, H01..H24, daily
func WeekdayFrame(rows []domain.WeekdayAggregate) dataframe.DataFrame {
	country := make([]string, len(rows))
	weekday := make([]int, len(rows))
	daily := make([]float64, len(rows))
	hours := make([][]float64, domain.HoursPerDay)
	for h := range hours {
		hours[h] = make([]float64, len(rows))
	}
	for i, r := range rows {
		country[i] = r.Country
		weekday[i] = r.Weekday
		daily[i] = r.Daily
		for h, v := range r.Hours {
			hours[h][i] = v
		}
	}
	cols := []series.Series{
		series.New(country, series.String, "country"),
		series.New(weekday, series.Int, "weekday"),
	}
	cols = append(cols, hourSeries(hours)...)
	cols = append(cols, series.New(daily, series.Float, "daily"))
	return dataframe.New(cols...)
}

func hourSeries(hours [][]float64) []series.Series {
	labels := domain.HourLabels()
	out := make([]series.Series, len(hours))
	for h, values := range hours {
		out[h] = series.New(values, series.Float, labels[h])
	}
	return out
}

// ProfileFrame lays out a profile table with hours as rows. Columns are
// named "<country>" or "<country> <label>".
func ProfileFrame(t domain.ProfileTable) dataframe.DataFrame {
	cols := []series.Series{series.New(t.Hours, series.String, "hour")}
	for _, c := range t.Columns {
		cols = append(cols, series.New(c.Values, series.Float, strings.TrimSpace(c.Country+" "+c.Label)))
	}
	return dataframe.New(cols...)
}

// YearlyFrame lays out a year by country matrix
func YearlyFrame(m domain.YearlyMatrix) dataframe.DataFrame {
	cols := []series.Series{series.New(m.Years, series.Int, "year")}
	for j, c := range m.Countries {
		cols = append(cols, series.New(column(m.Values, j), series.Float, c))
	}
	return dataframe.New(cols...)
}

// MonthlyFrame lays out a month by country matrix
func MonthlyFrame(m domain.MonthlyMatrix) dataframe.DataFrame {
	cols := []series.Series{series.New(m.Months, series.String, "month")}
	for j, c := range m.Countries {
		cols = append(cols, series.New(column(m.Values, j), series.Float, c))
	}
	return dataframe.New(cols...)
}

// MonthlyRecordsFrame lays out monthly rows with the month columns named by
// monthLabels: country, year, Sum, then one column per month
func MonthlyRecordsFrame(rows []domain.MonthlyRecord, monthLabels []string) dataframe.DataFrame {
	country := make([]string, len(rows))
	year := make([]int, len(rows))
	sum := make([]float64, len(rows))
	months := make([][]float64, domain.MonthsPerYear)
	for m := range months {
		months[m] = make([]float64, len(rows))
	}
	for i, r := range rows {
		country[i] = r.Country
		year[i] = r.Year
		sum[i] = r.Sum
		for m, v := range r.Months {
			months[m][i] = v
		}
	}
	cols := []series.Series{
		series.New(country, series.String, "country"),
		series.New(year, series.Int, "year"),
		series.New(sum, series.Float, "Sum"),
	}
	for m, values := range months {
		cols = append(cols, series.New(values, series.Float, monthLabels[m]))
	}
	return dataframe.New(cols...)
}

// ObservationFrame lays out long-format monthly values
func ObservationFrame(rows []domain.MonthlyObservation) dataframe.DataFrame {
	year := make([]int, len(rows))
	country := make([]string, len(rows))
	month := make([]string, len(rows))
	value := make([]float64, len(rows))
	for i, r := range rows {
		year[i] = r.Year
		country[i] = r.Country
		month[i] = r.Month
		value[i] = r.Value
	}
	return dataframe.New(
		series.New(year, series.Int, "year"),
		series.New(country, series.String, "country"),
		series.New(month, series.String, "month"),
		series.New(value, series.Float, "value"),
	)
}

// YearlyValueFrame lays out one scalar per (country, year)
func YearlyValueFrame(rows []domain.YearlyValue, valueName string) dataframe.DataFrame {
	country := make([]string, len(rows))
	year := make([]int, len(rows))
	value := make([]float64, len(rows))
	for i, r := range rows {
		country[i] = r.Country
		year[i] = r.Year
		value[i] = r.Value
	}
	return dataframe.New(
		series.New(country, series.String, "country"),
		series.New(year, series.Int, "year"),
		series.New(value, series.Float, valueName),
	)
}

// IndicatorFrame lays out one indicator series: year and a column named
// after the country
func IndicatorFrame(s domain.IndicatorSeries) dataframe.DataFrame {
	return dataframe.New(
		series.New(s.Years, series.Int, "year"),
		series.New(s.Values, series.Float, s.Country),
	)
}

func column(values [][]float64, j int) []float64 {
	out := make([]float64, len(values))
	for i, row := range values {
		out[i] = row[j]
	}
	return out
}
