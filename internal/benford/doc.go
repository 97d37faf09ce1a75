// Package benford implements Benford's-Law conformity analysis over the
// numeric columns of tabular workbooks.
//
// Benford's Law predicts that in many naturally occurring datasets the
// leading significant digit d appears with probability log10(1 + 1/d), so
// 1 leads roughly 30.1% of values while 9 leads only 4.6%. Columns that
// deviate strongly from this distribution are a classic anomaly signal in
// financial and operational data. This package scores every numeric column
// of a corpus against the expected distribution and ranks the columns by
// deviation.
//
// # Core Components
//
//  1. Digit extraction: maps a raw cell value to its leading significant
//     digit in [1,9], tolerating missing cells, non-numeric text, signs,
//     and magnitudes below one.
//  2. Column analysis: per-digit observed counts and proportions against
//     the expected table, with chi-square and mean-absolute-deviation
//     scores per column.
//  3. Corpus aggregation: every sheet and column in supplied order, plus
//     one pooled digit distribution across all analyzed values.
//  4. Deviation ranking: stable MAD-descending ordering truncated to the
//     configured top-N.
//
// # Architecture
//
//   - types.go: corpus input model and result row types
//   - numeric.go: raw cell value parsing
//   - digit.go: leading-digit extraction
//   - distribution.go: expected Benford proportion table
//   - analyzer.go: single-column analysis
//   - stats.go: chi-square p-value and descriptive statistics
//   - aggregate.go: corpus-level orchestration with bounded concurrency
//   - rank.go: deviation ranking
//
// # Usage Example
//
//	analyzer := NewAnalyzer(10, slog.Default())
//	result, err := analyzer.Analyze(ctx, corpus)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, s := range result.TopDeviations {
//	    fmt.Printf("%s/%s mad=%.4f chi2=%.2f n=%d\n",
//	        s.Sheet, s.Column, s.MAD, s.ChiSquare, s.TotalValues)
//	}
//
// # Numeric Edge Policy
//
// The analysis is deliberately lenient about input quality. Cells that do
// not parse as numbers are excluded silently, never reported as errors.
// Zero values have no leading digit and are likewise excluded. A column
// whose values all fail extraction still produces its nine detail rows
// (forced-zero proportions) and a summary with chi-square and MAD pinned
// to zero, so downstream consumers never see NaN or a division by zero.
//
// # Determinism
//
// All functions are pure with respect to their inputs: no package state
// mutates across calls, digit rows always come back in ascending order,
// and the output sequences are identical whether columns are analyzed
// sequentially or concurrently. Ranking uses a stable sort so equal-MAD
// columns keep their corpus order.
package benford
