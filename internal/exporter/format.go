package exporter

import (
	"fmt"
	"strconv"
)

// formatFloat formats a proportion-scale value with six decimal places
// so small digit differences survive the round trip through CSV.
func formatFloat(f float64) string {
	return fmt.Sprintf("%.6f", f)
}

// formatNumber formats a measured value with the shortest representation
// that parses back to the same float64.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}
