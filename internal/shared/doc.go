// Package shared groups helpers used by more than one package of the
// dashboard. It carries no dashboard logic of its own.
//
// The testutil subpackage provides a capturing slog handler and builders
// for simulation workbooks written with excelize:
//
//	func TestLoad(t *testing.T) {
//	    path := filepath.Join(t.TempDir(), "run.xlsx")
//	    testutil.WriteWorkbook(t, path, testutil.LongSheet("DS 1 state",
//	        []interface{}{41, "Backlog", 10}))
//	    logger, logs := testutil.NewTestLogger(t)
//	    ...
//	}
package shared
