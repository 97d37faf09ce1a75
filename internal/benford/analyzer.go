package benford

import (
	"math"
)

// AnalyzeColumn runs the conformity analysis for a single column. It
// returns exactly DigitCount detail rows, digits ascending, and one
// summary. Input order never affects the output.
//
// Values that do not parse as numbers and parsed zeros contribute no
// leading digit; only digit-bearing values count toward TotalValues. When
// no value produces a digit the summary scores are zero by policy, not
// NaN, and detail rows carry a forced-zero proportion so the difference
// column still reads 0 - expected.
func AnalyzeColumn(sheet, column string, values []string) ([]DigitDetailRow, ColumnSummary) {
	var counts [DigitCount]int
	numeric := make([]float64, 0, len(values))
	total := 0

	for _, raw := range values {
		v, ok := ParseNumeric(raw)
		if !ok {
			continue
		}
		numeric = append(numeric, v)
		d, ok := LeadingDigitFloat(v)
		if !ok {
			continue
		}
		counts[d-MinDigit]++
		total++
	}

	details := make([]DigitDetailRow, 0, DigitCount)
	var chiSquare, madSum float64

	for d := MinDigit; d <= MaxDigit; d++ {
		count := counts[d-MinDigit]
		expected := expectedProportions[d-MinDigit]

		proportion := 0.0
		if total > 0 {
			proportion = float64(count) / float64(total)
		}

		details = append(details, DigitDetailRow{
			Sheet:      sheet,
			Column:     column,
			Digit:      d,
			Count:      count,
			Proportion: proportion,
			Expected:   expected,
			Difference: proportion - expected,
		})

		if total > 0 {
			expectedCount := expected * float64(total)
			delta := float64(count) - expectedCount
			chiSquare += delta * delta / expectedCount
			madSum += math.Abs(proportion - expected)
		}
	}

	summary := ColumnSummary{
		Sheet:       sheet,
		Column:      column,
		TotalValues: total,
	}
	if total > 0 {
		summary.ChiSquare = chiSquare
		summary.MAD = madSum / DigitCount
		summary.PValue = chiSquarePValue(chiSquare)
		summary.Mean, summary.Median, summary.Min, summary.Max = describe(numeric)
	}

	return details, summary
}
