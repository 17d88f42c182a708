// Package exporter writes pipeline results as CSV and XLSX.
//
// CSVWriter writes headers and records with an optional UTF-8 BOM so Excel
// opens the files with the right encoding. Records come from the table
// builders in tables.go, which flatten chart outcomes and summary rows.
// XLSXWriter puts every table of a report into its own worksheet.
//
// Example usage:
//
//	headers, records := exporter.SummaryTable(report.Rows)
//	err := exporter.NewCSVWriter(reportsDir).WriteSimpleCSV("summary.csv", headers, records)
package exporter
