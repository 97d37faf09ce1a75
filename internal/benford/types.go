package benford

import (
	"time"
)

// Digit range and table size for leading-digit analysis
const (
	// MinDigit is the smallest possible leading digit
	MinDigit = 1
	// MaxDigit is the largest possible leading digit
	MaxDigit = 9
	// DigitCount is the number of distinct leading digits
	DigitCount = MaxDigit - MinDigit + 1
)

// Defaults for analyzer configuration
const (
	// DefaultTopN is the number of columns reported in the deviation ranking
	DefaultTopN = 10
	// DefaultMaxConcurrency bounds parallel column analysis
	DefaultMaxConcurrency = 4
	// DefaultAnalysisTimeout caps a single corpus analysis
	DefaultAnalysisTimeout = 30 * time.Second
)

// Corpus is the analyzer input: ordered sheets of ordered columns of raw
// cell values, as loaded by a workbook source.
type Corpus struct {
	Source string  `json:"source"` // file name or spreadsheet title
	Sheets []Sheet `json:"sheets"`
}

// SheetCount returns the number of sheets in the corpus.
func (c *Corpus) SheetCount() int {
	return len(c.Sheets)
}

// ColumnCount returns the total number of columns across all sheets.
func (c *Corpus) ColumnCount() int {
	n := 0
	for _, s := range c.Sheets {
		n += len(s.Columns)
	}
	return n
}

// Sheet is one named sheet with its columns in workbook order.
type Sheet struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Column is one named column with its raw cell values in row order.
// An empty string marks a missing cell.
type Column struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// IsNumeric reports whether at least one value parses as a number.
// Columns that fail this test are skipped entirely during analysis.
func (c Column) IsNumeric() bool {
	for _, v := range c.Values {
		if _, ok := ParseNumeric(v); ok {
			return true
		}
	}
	return false
}

// DigitDetailRow is one observed-vs-expected entry for a single digit of a
// single column. Every analyzed column produces exactly nine rows, digits
// ascending.
type DigitDetailRow struct {
	Sheet      string  `json:"sheet"`
	Column     string  `json:"column"`
	Digit      int     `json:"digit"`
	Count      int     `json:"count"`      // observed occurrences of the digit
	Proportion float64 `json:"proportion"` // count/total, 0 when total is 0
	Expected   float64 `json:"expected"`   // Benford proportion for the digit
	Difference float64 `json:"difference"` // proportion - expected
}

// ColumnSummary carries the per-column deviation scores plus descriptive
// statistics over the column's parsed numeric values.
type ColumnSummary struct {
	Sheet       string  `json:"sheet"`
	Column      string  `json:"column"`
	TotalValues int     `json:"total_values"` // values that produced a leading digit
	ChiSquare   float64 `json:"chi_square"`   // 0 when TotalValues is 0
	MAD         float64 `json:"mad"`          // mean |proportion - expected|, 0 when TotalValues is 0
	PValue      float64 `json:"p_value"`      // right-tail chi-square probability, 0 when TotalValues is 0
	Mean        float64 `json:"mean"`
	Median      float64 `json:"median"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
}

// OverallDistributionRow is the pooled digit distribution across every
// analyzed value in the corpus, one row per digit.
type OverallDistributionRow struct {
	Digit           int     `json:"digit"`
	ActualCount     int     `json:"actual_count"`
	ActualPercent   float64 `json:"actual_percent"`   // count/overall total as a fraction, 0 when the pool is empty
	ExpectedPercent float64 `json:"expected_percent"` // Benford proportion for the digit
}

// Result bundles the four analysis output sequences with run metadata.
// The sequences alone are sufficient to produce any report format.
type Result struct {
	Source              string                   `json:"source"`
	GeneratedAt         time.Time                `json:"generated_at"`
	Elapsed             time.Duration            `json:"elapsed"`
	SheetCount          int                      `json:"sheet_count"`
	ColumnCount         int                      `json:"column_count"` // columns analyzed, not columns supplied
	TotalValues         int                      `json:"total_values"` // pooled digit-bearing values
	DetailRows          []DigitDetailRow         `json:"detail_rows"`
	ColumnSummaries     []ColumnSummary          `json:"column_summaries"`
	OverallDistribution []OverallDistributionRow `json:"overall_distribution"`
	TopDeviations       []ColumnSummary          `json:"top_deviations"`
}

// HasData reports whether any column was analyzed. Renderers use this to
// decide between tables and the no-data placeholder.
func (r *Result) HasData() bool {
	return len(r.ColumnSummaries) > 0
}
