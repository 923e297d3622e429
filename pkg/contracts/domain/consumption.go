package domain

import (
	"strings"
	"time"
)

const (
	HoursPerDay   = 24
	MonthsPerYear = 12
	DaysPerWeek   = 7
)

// Artifacts is a bitmask of data-quality defects detected on a raw row while
// it was loaded. Flags are recorded, not corrected; queries decide whether to
// filter on them.
type Artifacts uint8

const (
	// ArtifactNegativeSign marks rows whose raw H01 cell text contains a dash.
	// ENTSO-E exports carry a handful of these corrupt rows.
	ArtifactNegativeSign Artifacts = 1 << iota
	// ArtifactLeadingGap marks rows whose H01 value is missing. Forward fill
	// has no earlier hour to copy, so the row stays one hour short.
	ArtifactLeadingGap
)

// Has reports whether every bit of flag is set
func (a Artifacts) Has(flag Artifacts) bool {
	return flag != 0 && a&flag == flag
}

// HourlyRecord is one (country, calendar day) row of the hourly statistics.
// Missing hour values are NaN.
type HourlyRecord struct {
	Country   string               `json:"country" validate:"required"`
	Date      time.Time            `json:"date"`
	Weekday   int                  `json:"weekday" validate:"min=0,max=6"` // 0=Monday .. 6=Sunday
	Month     int                  `json:"month" validate:"min=1,max=12"`
	Year      int                  `json:"year"`
	Hours     [HoursPerDay]float64 `json:"hours"`
	Artifacts Artifacts            `json:"artifacts"`
}

// MonthlyRecord is one (country, year) row of the monthly statistics.
// Sum comes from the source file and is not derived from Months; the two are
// allowed to disagree.
type MonthlyRecord struct {
	Country string                 `json:"country" validate:"required"`
	Year    int                    `json:"year"`
	Sum     float64                `json:"sum"`
	Months  [MonthsPerYear]float64 `json:"months"`
}

// DailyAggregate is the daily total of one hourly record
type DailyAggregate struct {
	Country string    `json:"country"`
	Date    time.Time `json:"date"`
	Weekday int       `json:"weekday"`
	Month   int       `json:"month"`
	Year    int       `json:"year"`
	Daily   float64   `json:"daily"`
}

// NormalizedDay is an hourly record divided by its own daily total
type NormalizedDay struct {
	Country string               `json:"country"`
	Year    int                  `json:"year"`
	Month   int                  `json:"month"`
	Weekday int                  `json:"weekday"`
	Date    time.Time            `json:"date"`
	Hours   [HoursPerDay]float64 `json:"hours"`
}

// WeekdayAggregate is the typical day of a country for one day of the week:
// the mean of every hour and of the daily total over the matching records.
type WeekdayAggregate struct {
	Country string               `json:"country"`
	Weekday int                  `json:"weekday"`
	Hours   [HoursPerDay]float64 `json:"hours"`
	Daily   float64              `json:"daily"`
}

// ProfileColumn is one intraday curve of a profile table. Label is a weekday
// name, a day category, or empty for the all-week prototype.
type ProfileColumn struct {
	Country string    `json:"country"`
	Label   string    `json:"label,omitempty"`
	Values  []float64 `json:"values"`
}

// ProfileTable holds hourly profiles with hours as rows and one column per
// curve. Hours carries the row labels ("H01".."H24" or "1".."24").
type ProfileTable struct {
	Hours   []string        `json:"hours"`
	Columns []ProfileColumn `json:"columns"`
}

// Column returns the column for country and label
func (t ProfileTable) Column(country, label string) (ProfileColumn, bool) {
	for _, c := range t.Columns {
		if c.Country == country && c.Label == label {
			return c, true
		}
	}
	return ProfileColumn{}, false
}

// YearlyMatrix is a year by country pivot. Values[i][j] belongs to Years[i]
// and Countries[j]; absent combinations are NaN.
type YearlyMatrix struct {
	Years     []int       `json:"years"`
	Countries []string    `json:"countries"`
	Values    [][]float64 `json:"values"`
}

// Value returns the cell for year and country
func (m YearlyMatrix) Value(year int, country string) (float64, bool) {
	for i, y := range m.Years {
		if y != year {
			continue
		}
		for j, c := range m.Countries {
			if c == country {
				return m.Values[i][j], true
			}
		}
	}
	return 0, false
}

// MonthlyMatrix is a month by country table. Values[i][j] belongs to
// Months[i] and Countries[j].
type MonthlyMatrix struct {
	Months    []string    `json:"months"`
	Countries []string    `json:"countries"`
	Values    [][]float64 `json:"values"`
}

// MonthlyObservation is one cell of the monthly table in long format
type MonthlyObservation struct {
	Year    int     `json:"year"`
	Country string  `json:"country"`
	Month   string  `json:"month"`
	Value   float64 `json:"value"`
}

// YearlyValue is a single scalar for a (country, year) pair
type YearlyValue struct {
	Country string  `json:"country"`
	Year    int     `json:"year"`
	Value   float64 `json:"value"`
}

// IndicatorSeries is one country's column of an indicator table
type IndicatorSeries struct {
	Country string    `json:"country"`
	Years   []int     `json:"years"`
	Values  []float64 `json:"values"`
}

var weekdayNames = [DaysPerWeek]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

var monthNames = [MonthsPerYear]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// WeekdayName returns the English name of weekday (0=Monday)
func WeekdayName(weekday int) string {
	if weekday < 0 || weekday >= DaysPerWeek {
		return ""
	}
	return weekdayNames[weekday]
}

// ParseWeekday resolves a weekday name, ignoring case
func ParseWeekday(name string) (int, bool) {
	for i, n := range weekdayNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return i, true
		}
	}
	return 0, false
}

// MondayFirst converts a time.Weekday (Sunday=0) to 0=Monday .. 6=Sunday
func MondayFirst(d time.Weekday) int {
	return (int(d) + 6) % DaysPerWeek
}

// MonthNames returns the three-letter month labels, January first
func MonthNames() []string {
	names := make([]string, MonthsPerYear)
	copy(names, monthNames[:])
	return names
}

// HourLabels returns "H01".."H24"
func HourLabels() []string {
	labels := make([]string, HoursPerDay)
	for i := range labels {
		labels[i] = HourLabel(i + 1)
	}
	return labels
}

// HourLabel returns the canonical column label of a 1-based hour
func HourLabel(hour int) string {
	const digits = "0123456789"
	return "H" + string(digits[hour/10]) + string(digits[hour%10])
}
