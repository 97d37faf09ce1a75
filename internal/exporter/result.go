package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"benfordlens/internal/benford"
	"benfordlens/internal/config"
)

// ResultExporter writes an analysis result to its CSV and JSON export
// files. CSV tables mirror the result's four sequences; the JSON export
// carries the whole result for downstream tooling.
type ResultExporter struct {
	csvWriter *CSVWriter
}

// NewResultExporter creates a new result exporter
func NewResultExporter(paths *config.Paths) *ResultExporter {
	return &ResultExporter{
		csvWriter: NewCSVWriter(paths),
	}
}

func (e *ResultExporter) detailHeaders() []string {
	return []string{"Sheet", "Column", "Digit", "Count", "Proportion", "Expected Proportion", "Difference"}
}

func (e *ResultExporter) summaryHeaders() []string {
	return []string{"Sheet", "Column", "Total Values", "MAD", "Chi-Square", "P-Value", "Mean", "Median", "Min", "Max"}
}

func (e *ResultExporter) overallHeaders() []string {
	return []string{"Digit", "Actual Count", "Actual Percent", "Expected Percent"}
}

// WriteDetailCSV streams every digit detail row to a CSV file
func (e *ResultExporter) WriteDetailCSV(result *benford.Result, filePath string) error {
	stream, err := e.csvWriter.CreateStreamWriter(filePath, e.detailHeaders())
	if err != nil {
		return fmt.Errorf("failed to create detail stream: %w", err)
	}

	for _, row := range result.DetailRows {
		record := []string{
			row.Sheet,
			row.Column,
			formatInt(row.Digit),
			formatInt(row.Count),
			formatFloat(row.Proportion),
			formatFloat(row.Expected),
			formatFloat(row.Difference),
		}
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write detail row: %w", err)
		}
	}

	return stream.Close()
}

// WriteSummaryCSV writes the per-column summary table in analysis order
func (e *ResultExporter) WriteSummaryCSV(result *benford.Result, filePath string) error {
	records := make([][]string, 0, len(result.ColumnSummaries))
	for _, s := range result.ColumnSummaries {
		records = append(records, []string{
			s.Sheet,
			s.Column,
			formatInt(s.TotalValues),
			formatFloat(s.MAD),
			formatFloat(s.ChiSquare),
			formatFloat(s.PValue),
			formatNumber(s.Mean),
			formatNumber(s.Median),
			formatNumber(s.Min),
			formatNumber(s.Max),
		})
	}
	return e.csvWriter.WriteSimpleCSV(filePath, e.summaryHeaders(), records)
}

// WriteOverallCSV writes the pooled digit distribution table. Percent
// columns hold fractions, matching the result contract.
func (e *ResultExporter) WriteOverallCSV(result *benford.Result, filePath string) error {
	records := make([][]string, 0, len(result.OverallDistribution))
	for _, row := range result.OverallDistribution {
		records = append(records, []string{
			formatInt(row.Digit),
			formatInt(row.ActualCount),
			formatFloat(row.ActualPercent),
			formatFloat(row.ExpectedPercent),
		})
	}
	return e.csvWriter.WriteSimpleCSV(filePath, e.overallHeaders(), records)
}

// WriteResultJSON writes the whole result as indented JSON
func (e *ResultExporter) WriteResultJSON(result *benford.Result, filePath string) error {
	fullPath := e.csvWriter.resolvePath(filePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write json: %w", err)
	}
	return nil
}

// ExportAll writes the three CSV tables and the JSON result, named
// benford_<table>_<base>_<stamp>. It returns the file names written,
// relative to the reports directory.
func (e *ResultExporter) ExportAll(result *benford.Result, base string, t time.Time) ([]string, error) {
	if result == nil {
		return nil, fmt.Errorf("no result to export")
	}

	stamp := t.Format("20060102_150405")
	outputs := []struct {
		name  string
		write func(string) error
	}{
		{fmt.Sprintf("benford_detail_%s_%s.csv", base, stamp), func(p string) error { return e.WriteDetailCSV(result, p) }},
		{fmt.Sprintf("benford_summary_%s_%s.csv", base, stamp), func(p string) error { return e.WriteSummaryCSV(result, p) }},
		{fmt.Sprintf("benford_overall_%s_%s.csv", base, stamp), func(p string) error { return e.WriteOverallCSV(result, p) }},
		{fmt.Sprintf("benford_result_%s_%s.json", base, stamp), func(p string) error { return e.WriteResultJSON(result, p) }},
	}

	written := make([]string, 0, len(outputs))
	for _, out := range outputs {
		if err := out.write(out.name); err != nil {
			return written, fmt.Errorf("failed to export %s: %w", out.name, err)
		}
		written = append(written, out.name)
	}
	return written, nil
}
