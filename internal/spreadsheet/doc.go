// Package spreadsheet reads the worksheets of the ENTSO-E statistics exports.
//
// A Loader is configured with the worksheet contract of one dataset: the
// sheet name, how many leading rows to skip before the header, and the
// sentinel text that marks a missing value. Read turns one file into a Sheet
// of formatted cell text; ReadAll does the same for a batch of files in
// parallel, keeping the input order and isolating per-file failures.
package spreadsheet
