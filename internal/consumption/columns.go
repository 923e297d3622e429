package consumption

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"powerstats/pkg/contracts/domain"
)

// Canonical labels of the non-hour columns
const (
	ColumnCountry = "country"
	ColumnDay     = "day"
)

// RuleAction is what a ColumnRule does to a matching label
type RuleAction int

const (
	// RuleRename rewrites the label with the rule's replacement template
	RuleRename RuleAction = iota
	// RuleDrop removes the column
	RuleDrop
)

// ColumnRule rewrites or removes header labels matching Pattern.
// HourChangeOnly rules apply only to sheets with the hour-change anomaly.
type ColumnRule struct {
	Name           string
	Pattern        *regexp.Regexp
	Action         RuleAction
	Replace        string
	HourChangeOnly bool
}

// HourlyColumnRules returns the normalisation table of the hourly exports, in
// the order the rules must run. hourChangeLabel is the duplicated column
// ("3B:00:00") added when clocks go back.
func HourlyColumnRules(hourChangeLabel string) []ColumnRule {
	return []ColumnRule{
		{
			Name:           "drop-hour-change",
			Pattern:        regexp.MustCompile(`^` + regexp.QuoteMeta(hourChangeLabel) + `$`),
			Action:         RuleDrop,
			HourChangeOnly: true,
		},
		{
			Name:           "first-repeated-hour",
			Pattern:        regexp.MustCompile(`^(\d)A:.*$`),
			Replace:        "H0${1}",
			HourChangeOnly: true,
		},
		{
			Name:    "hour",
			Pattern: regexp.MustCompile(`^(\d{2}):.*$`),
			Replace: "H${1}",
		},
		{
			Name:    "country",
			Pattern: regexp.MustCompile(`(?i)^country$`),
			Replace: ColumnCountry,
		},
		{
			Name:    "day",
			Pattern: regexp.MustCompile(`(?i)^day$`),
			Replace: ColumnDay,
		},
	}
}

// HourChangeDetected reports whether a header carries more columns than a
// regular hourly sheet, which is how the hour-change month shows up
func HourChangeDetected(header []string, maxColumns int) bool {
	return len(header) > maxColumns
}

// ApplyColumnRules runs rules over header in order, each rule seeing the
// output of the previous ones. Dropped columns come back as "".
func ApplyColumnRules(rules []ColumnRule, header []string, hourChange bool) []string {
	labels := make([]string, len(header))
	copy(labels, header)

	for _, rule := range rules {
		if rule.HourChangeOnly && !hourChange {
			continue
		}
		for i, label := range labels {
			if label == "" || !rule.Pattern.MatchString(label) {
				continue
			}
			switch rule.Action {
			case RuleDrop:
				labels[i] = ""
			default:
				labels[i] = rule.Pattern.ReplaceAllString(label, rule.Replace)
			}
		}
	}
	return labels
}

// hourlyLayout maps the canonical hourly columns to sheet indexes
type hourlyLayout struct {
	country int
	day     int
	hours   [domain.HoursPerDay]int
}

var (
	canonicalHour = regexp.MustCompile(`^H(\d{2})$`)
	hourShaped    = regexp.MustCompile(`^(\d|H\d)`)
)

// resolveHourlyLayout checks normalised labels: one country column, one day
// column and H01..H24 exactly once each. Anything else that looks like an
// hour label means the rules could not explain the sheet.
func resolveHourlyLayout(labels []string) (hourlyLayout, error) {
	layout := hourlyLayout{country: -1, day: -1}
	for i := range layout.hours {
		layout.hours[i] = -1
	}

	for i, label := range labels {
		switch {
		case label == "":
			continue
		case label == ColumnCountry:
			if layout.country >= 0 {
				return layout, fmt.Errorf("duplicate country column")
			}
			layout.country = i
		case label == ColumnDay:
			if layout.day >= 0 {
				return layout, fmt.Errorf("duplicate day column")
			}
			layout.day = i
		case canonicalHour.MatchString(label):
			hour := int(label[1]-'0')*10 + int(label[2]-'0')
			if hour < 1 || hour > domain.HoursPerDay {
				return layout, fmt.Errorf("hour column %s out of range", label)
			}
			if layout.hours[hour-1] >= 0 {
				return layout, fmt.Errorf("duplicate hour column %s", label)
			}
			layout.hours[hour-1] = i
		case hourShaped.MatchString(label):
			return layout, fmt.Errorf("unresolved hour column %q", label)
		}
	}

	if layout.country < 0 || layout.day < 0 {
		return layout, fmt.Errorf("missing country or day column")
	}
	var missing []string
	for i, idx := range layout.hours {
		if idx < 0 {
			missing = append(missing, domain.HourLabel(i+1))
		}
	}
	if len(missing) > 0 {
		return layout, fmt.Errorf("missing hour columns %s", strings.Join(missing, ","))
	}
	return layout, nil
}

// NegativeSignArtifact reports the corrupt H01 cells found in some exports:
// the raw text contains a dash.
func NegativeSignArtifact(rawH01 string) bool {
	return strings.Contains(rawH01, "-")
}

// artifactCheck flags a raw row with one data-quality defect
type artifactCheck struct {
	flag  domain.Artifacts
	match func(raw []string, layout hourlyLayout) bool
}

var artifactChecks = []artifactCheck{
	{
		flag: domain.ArtifactNegativeSign,
		match: func(raw []string, layout hourlyLayout) bool {
			col := layout.hours[0]
			return col < len(raw) && NegativeSignArtifact(raw[col])
		},
	},
}

func detectArtifacts(raw []string, layout hourlyLayout) domain.Artifacts {
	var a domain.Artifacts
	for _, check := range artifactChecks {
		if check.match(raw, layout) {
			a |= check.flag
		}
	}
	return a
}

// Excluded reports whether a record is left out of the weekday aggregates:
// it carries the negative-sign or leading-gap artifact, or its first hour is
// negative.
func Excluded(r domain.HourlyRecord) bool {
	return r.Artifacts.Has(domain.ArtifactNegativeSign) ||
		r.Artifacts.Has(domain.ArtifactLeadingGap) ||
		r.Hours[0] < 0
}

// monthColumn resolves a monthly header label to a 0-based month index.
// Accepted forms: "1".."12", "M1".."M12" and "Jan".."Dec".
func monthColumn(label string) (int, bool) {
	label = strings.TrimSpace(label)
	trimmed := strings.TrimPrefix(strings.TrimPrefix(label, "M"), "m")
	if n, err := strconv.Atoi(trimmed); err == nil && n >= 1 && n <= domain.MonthsPerYear {
		return n - 1, true
	}
	for i, name := range domain.MonthNames() {
		if strings.EqualFold(name, label) {
			return i, true
		}
	}
	return 0, false
}
