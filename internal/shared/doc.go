// Package shared holds code used by more than one package that belongs to
// none of them.
//
// The testutil subpackage provides fixture workbooks laid out like the
// ENTSO-E hourly and monthly exports, and an in-memory slog handler for
// asserting on log output:
//
//	dir := t.TempDir()
//	testutil.HourlyWorkbook(t, dir, "Hourly_2015_3.xlsx", false,
//	    testutil.HourlyRow("ES", "2015-03-02", testutil.Constant(100)))
//	logger, logs := testutil.NewTestLogger(t)
package shared
