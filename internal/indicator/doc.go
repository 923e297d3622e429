// Package indicator loads the macroeconomic indicator tables (inflation,
// GDP, population, unemployment) used next to the consumption tables.
//
// Every indicator file has the same wide shape: country codes down the first
// column and one column per year. A Source record carries the per-file
// quirks (format, code field, footnote letters, missing marker); presets
// cover the known Eurostat exports. Tables are joined to consumption data by
// the caller on (country, year).
package indicator
