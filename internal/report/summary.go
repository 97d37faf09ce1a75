package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"benfordlens/internal/benford"
)

// SummaryRenderer writes the compact fixed-width text summary the CLI
// prints after a run: the ranked deviation table and the pooled digit
// distribution.
type SummaryRenderer struct{}

// NewSummaryRenderer creates a text summary renderer.
func NewSummaryRenderer() *SummaryRenderer {
	return &SummaryRenderer{}
}

// Format returns "summary".
func (r *SummaryRenderer) Format() string { return FormatSummary }

// Render writes the text summary for result to w.
func (r *SummaryRenderer) Render(ctx context.Context, result *benford.Result, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("no result to render")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Benford analysis of %s\n", result.Source)
	fmt.Fprintf(&b, "Generated %s in %s (%d sheets, %d numeric columns, %d values)\n\n",
		result.GeneratedAt.Format("2006-01-02 15:04"),
		result.Elapsed.Round(time.Millisecond),
		result.SheetCount, result.ColumnCount, result.TotalValues)

	if !result.HasData() {
		b.WriteString(placeholder)
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	sheetW, colW := nameWidths(result.TopDeviations)

	b.WriteString("Top columns by deviation (MAD)\n")
	fmt.Fprintf(&b, "  %-*s  %-*s  %7s  %8s  %10s  %7s\n",
		sheetW, "SHEET", colW, "COLUMN", "VALUES", "MAD", "CHI-SQUARE", "P-VALUE")
	for _, s := range result.TopDeviations {
		fmt.Fprintf(&b, "  %-*s  %-*s  %7d  %8.4f  %10.4f  %7.3f\n",
			sheetW, s.Sheet, colW, s.Column, s.TotalValues, s.MAD, s.ChiSquare, s.PValue)
	}

	b.WriteString("\nOverall digit distribution\n")
	fmt.Fprintf(&b, "  %5s  %7s  %7s  %9s\n", "DIGIT", "COUNT", "ACTUAL", "EXPECTED")
	for _, row := range result.OverallDistribution {
		fmt.Fprintf(&b, "  %5d  %7d  %6.1f%%  %8.1f%%\n",
			row.Digit, row.ActualCount, row.ActualPercent*100, row.ExpectedPercent*100)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// nameWidths sizes the sheet and column cells to their longest entry so
// the table stays aligned for any input names.
func nameWidths(summaries []benford.ColumnSummary) (int, int) {
	sheetW, colW := len("SHEET"), len("COLUMN")
	for _, s := range summaries {
		if len(s.Sheet) > sheetW {
			sheetW = len(s.Sheet)
		}
		if len(s.Column) > colW {
			colW = len(s.Column)
		}
	}
	return sheetW, colW
}
