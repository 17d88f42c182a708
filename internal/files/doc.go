// Package files discovers the simulation workbooks in the data directory.
//
// Workbook names are matched against every vocabulary combination, so a
// file is either a known scenario, the wall-clock companion of one, or
// unrecognized:
//
//	inv, err := files.NewDiscovery(dataDir).FindWorkbooks(ctx)
//	for _, key := range inv.Scenarios() {
//	    // key has a workbook on disk
//	}
package files
