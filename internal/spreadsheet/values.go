package spreadsheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// DateOrder says how an ambiguous text date such as "03/04/2015" is read
type DateOrder string

const (
	DayFirst   DateOrder = "day-first"
	MonthFirst DateOrder = "month-first"
)

// isoLayouts carry no day/month ambiguity and are tried first
var isoLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

var orderLayouts = map[DateOrder][]string{
	DayFirst:   {"02/01/2006", "2/1/2006", "02.01.2006", "2.1.2006", "02-01-2006", "2/1/06"},
	MonthFirst: {"01/02/2006", "1/2/2006", "01-02-2006", "01-02-06", "1/2/06"},
}

func nan() float64 {
	return math.NaN()
}

// ParseFloat parses a formatted numeric cell, ignoring thousands separators
func ParseFloat(text string) (float64, bool) {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if text == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseDate parses a day cell read as its stored value. A number is an
// Excel date serial; text is tried against the ISO layouts, then against
// the layouts of order only. The result is midnight UTC.
func ParseDate(text string, order DateOrder) (time.Time, error) {
	text = strings.TrimSpace(text)

	if serial, err := strconv.ParseFloat(text, 64); err == nil {
		if serial <= 0 {
			return time.Time{}, fmt.Errorf("date serial %q out of range", text)
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("date serial %q: %w", text, err)
		}
		return midnight(t), nil
	}

	ordered, ok := orderLayouts[order]
	if !ok {
		ordered = orderLayouts[DayFirst]
	}
	for _, layouts := range [][]string{isoLayouts, ordered} {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, text); err == nil {
				return midnight(t), nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", text)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
