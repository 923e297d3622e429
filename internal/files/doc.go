// Package files provides the directory contract of the dataset loaders.
//
// Discovery.Match enumerates the spreadsheets of one dataset: a directory and
// a glob pattern, no recursion, results ordered by file name so that every
// build concatenates rows in the same order regardless of the file system.
//
// Fingerprint summarises a file set for the snapshot cache, either from
// file metadata (cheap) or from file contents (exact).
//
// Example usage:
//
//	discovery := files.NewDiscovery("")
//	matched, err := discovery.Match("/data/all-country-data", "Hourly_*.xls")
//	sum, err := files.Fingerprint(matched, files.FingerprintModTime)
package files
