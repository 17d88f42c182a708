// Package frame holds the tabular shapes the dashboard works with and the
// reshaping and statistics applied to them.
//
// A Table is a raw sheet as read from a workbook. A LongFrame is the typed
// long-form view of a sheet: one record per (Time, item, Value) with an
// optional Agent tag. Pivot turns a LongFrame into a WideFrame keyed by Time,
// Melt turns it back.
//
// Every operation returns a new frame; inputs are never mutated.
package frame
