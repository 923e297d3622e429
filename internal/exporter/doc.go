// Package exporter turns query results into tables and writes them out.
//
// The Frame functions lay every result shape out as a gota DataFrame with
// stable column names. Writer writes a frame as CSV (optionally with a UTF-8
// BOM for Excel) or as a single-sheet XLSX workbook, replacing the target
// file atomically. Missing values are written as empty cells.
//
// Example usage:
//
//	w := exporter.NewWriter(exporter.Options{BOMPrefix: true}, logger)
//	df := exporter.YearlyFrame(table.YearlyConsumptionCountries(countries, true, 2010))
//	err := w.Write("out/yearly.xlsx", df)
package exporter
