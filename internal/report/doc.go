// Package report renders analysis results into their output formats.
//
// Every renderer consumes the same four result sequences (detail rows,
// column summaries, overall distribution, top deviations) and nothing
// else, so formats stay swappable behind the Renderer interface. For
// resolves a format name to its renderer; Extension and FileName build
// the conventional output names.
//
// Three renderers are registered:
//
// MarkdownRenderer: the markdown report with fixed section headings,
// the ranked deviation table, the pooled digit distribution, and one
// digit-breakdown table per ranked column.
//
// ExcelRenderer: a styled workbook (Summary, Column Summary, Detail)
// with the house palette, zebra striping, percent formats, and column
// charts for the digit distribution and per-column MAD.
//
// SummaryRenderer: the fixed-width text epilogue the CLI prints to
// stdout.
//
// An empty result renders the explicit "No numeric data available."
// placeholder instead of empty tables.
package report
