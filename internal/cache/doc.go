// Package cache stores built tables as parquet snapshots next to their source
// spreadsheets, so later runs can skip re-reading every workbook.
//
// Each snapshot has a YAML manifest recording the invalidation policy and a
// fingerprint of the source files. Snapshots are written to a temporary file
// and renamed into place; a partially written snapshot is never visible.
package cache
