// Package consumption builds and queries the ENTSO-E power consumption
// tables.
//
// HourlyTable holds one row per country and calendar day with 24 hourly
// values. Hour-change sheets (the extra "3B" column of the day clocks go
// back) are normalised through a declarative rule table before the header is
// resolved, rows with more than one missing hour are dropped and a single gap
// is forward-filled.
//
// MonthlyTable holds one row per country and year with the twelve monthly
// totals and the yearly Sum of the source file. Sum is never recomputed from
// the months.
//
// Both tables are built by concatenating files in name order, optionally
// restored from a parquet snapshot, and are read-only afterwards. Queries on
// unknown countries return empty results; unknown modes are errors.
package consumption
