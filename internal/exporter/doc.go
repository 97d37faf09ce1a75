// Package exporter provides CSV and JSON export functionality for
// analysis results.
//
// This package contains two main components:
//
// CSVWriter: Core CSV writing functionality with support for headers,
// appending, streaming, and UTF-8 BOM for Excel compatibility. Relative
// paths resolve into the configured reports directory.
//
// ResultExporter: Writes one analysis result to its export files: a
// streamed detail CSV, the per-column summary CSV, the pooled digit
// distribution CSV, and an indented JSON dump of the whole result.
//
// Example usage:
//
//	exp := exporter.NewResultExporter(paths)
//
//	// Write everything for one run
//	files, err := exp.ExportAll(result, "je_samples", time.Now())
//
//	// Or write a single table
//	err = exp.WriteSummaryCSV(result, "benford_summary.csv")
package exporter
