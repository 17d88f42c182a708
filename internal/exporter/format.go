package exporter

import (
	"strconv"

	"invdash/internal/frame"
)

// formatFloat writes the shortest representation that round-trips.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatCell writes empty cells as an empty field.
func formatCell(c frame.Cell) string {
	if c.Empty() {
		return ""
	}
	return formatFloat(c.Value)
}
