package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"benfordlens/internal/benford"
)

// MarkdownRenderer writes the markdown report. Section wording is fixed
// so downstream tooling can key on the headings.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a markdown renderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Format returns "markdown".
func (r *MarkdownRenderer) Format() string { return FormatMarkdown }

// Render writes the full markdown report for result to w.
func (r *MarkdownRenderer) Render(ctx context.Context, result *benford.Result, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("no result to render")
	}

	var b strings.Builder

	b.WriteString("# Benford Analysis Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", result.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Input file: `%s`\n\n", result.Source)

	b.WriteString("## What this report is\n\n")
	b.WriteString("Benford's Law describes how often each leading digit (1 through 9) appears in many real-world datasets.\n")
	b.WriteString("For example, a leading digit of **1** is expected about **30.1%** of the time, while **9** is expected about **4.6%**.\n")
	b.WriteString("Large deviations from these expected rates can indicate unusual patterns worth reviewing.\n\n")

	b.WriteString("## How to read the results\n\n")
	b.WriteString("- **Leading digit**: the first non-zero digit of a number (e.g., 0.045 → 4, 1200 → 1).\n")
	b.WriteString("- **Observed proportion**: how often that digit appears in the data.\n")
	b.WriteString("- **Expected proportion**: Benford's Law expectation for that digit.\n")
	b.WriteString("- **Difference**: observed minus expected (positive means the digit appears more than expected).\n")
	b.WriteString("- **MAD (Mean Absolute Deviation)**: average absolute difference across digits; higher values mean larger overall deviation.\n")
	b.WriteString("- **Chi-square**: another deviation metric; higher values suggest larger differences from expectations.\n\n")

	if !result.HasData() {
		b.WriteString(placeholder)
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	r.writeTopDeviations(&b, result)
	r.writeOverallDistribution(&b, result)
	r.writeDetailBreakdown(&b, result)

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *MarkdownRenderer) writeTopDeviations(b *strings.Builder, result *benford.Result) {
	b.WriteString("## Top columns by deviation (MAD)\n\n")
	b.WriteString("| Sheet | Column | Values | MAD | Chi-Square | P-Value |\n")
	b.WriteString("|---|---|---:|---:|---:|---:|\n")
	for _, s := range result.TopDeviations {
		fmt.Fprintf(b, "| %s | %s | %d | %.4f | %.4f | %.3f |\n",
			s.Sheet, s.Column, s.TotalValues, s.MAD, s.ChiSquare, s.PValue)
	}
	b.WriteString("\n")
}

func (r *MarkdownRenderer) writeOverallDistribution(b *strings.Builder, result *benford.Result) {
	b.WriteString("## Overall digit distribution\n\n")
	b.WriteString("| Digit | Actual Count | Actual % | Expected % |\n")
	b.WriteString("|---:|---:|---:|---:|\n")
	for _, row := range result.OverallDistribution {
		fmt.Fprintf(b, "| %d | %d | %.1f%% | %.1f%% |\n",
			row.Digit, row.ActualCount, row.ActualPercent*100, row.ExpectedPercent*100)
	}
	b.WriteString("\n")
}

// writeDetailBreakdown emits one digit table per ranked column, in rank
// order, so the detail stays aligned with the deviation table above it.
func (r *MarkdownRenderer) writeDetailBreakdown(b *strings.Builder, result *benford.Result) {
	b.WriteString("## Detailed digit breakdown\n")
	for _, s := range result.TopDeviations {
		fmt.Fprintf(b, "\n### %s / %s\n\n", s.Sheet, s.Column)
		b.WriteString("| Digit | Count | Actual % | Expected % | Difference |\n")
		b.WriteString("|---:|---:|---:|---:|---:|\n")
		for _, row := range result.DetailRows {
			if row.Sheet != s.Sheet || row.Column != s.Column {
				continue
			}
			fmt.Fprintf(b, "| %d | %d | %.1f%% | %.1f%% | %+.1f%% |\n",
				row.Digit, row.Count, row.Proportion*100, row.Expected*100, row.Difference*100)
		}
	}
}
