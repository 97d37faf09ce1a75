package benford

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// ProgressFunc receives one call per analyzed column with that column's
// finished summary. Callbacks may arrive from concurrent workers in any
// column order; completed is monotonically increasing and ends at total.
type ProgressFunc func(summary ColumnSummary, completed, total int)

// Analyzer runs the full corpus analysis: per-column conformity scoring,
// pooled digit distribution, and deviation ranking.
type Analyzer struct {
	topN            int
	maxConcurrency  int
	analysisTimeout time.Duration
	logger          *slog.Logger
	progress        ProgressFunc
}

// NewAnalyzer creates an analyzer reporting the topN most deviant columns.
func NewAnalyzer(topN int, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	return &Analyzer{
		topN:            topN,
		maxConcurrency:  DefaultMaxConcurrency,
		analysisTimeout: DefaultAnalysisTimeout,
		logger:          logger,
	}
}

// SetConfiguration sets analysis configuration options.
func (a *Analyzer) SetConfiguration(maxConcurrency int, timeout time.Duration) {
	if maxConcurrency > 0 {
		a.maxConcurrency = maxConcurrency
	}
	if timeout > 0 {
		a.analysisTimeout = timeout
	}
}

// SetProgressFunc registers a per-column progress callback.
func (a *Analyzer) SetProgressFunc(fn ProgressFunc) {
	a.progress = fn
}

// columnTask pins one column to its output slot so concurrent analysis
// cannot reorder the result sequences.
type columnTask struct {
	sheet  string
	column string
	values []string
}

// Analyze runs the analysis over every numeric column of the corpus.
//
// Sheets and columns are processed in supplied order; columns with no
// numeric interpretation anywhere are skipped and contribute nothing to
// any output sequence. A corpus with zero analyzable columns is not an
// error: the detail, summary, and ranking sequences come back empty and
// the overall distribution reports all-zero counts.
func (a *Analyzer) Analyze(ctx context.Context, corpus *Corpus) (*Result, error) {
	start := time.Now()

	if corpus == nil {
		return nil, fmt.Errorf("no corpus provided")
	}

	a.logger.InfoContext(ctx, "starting benford analysis",
		"source", corpus.Source,
		"sheets", corpus.SheetCount(),
		"columns", corpus.ColumnCount(),
		"timeout", a.analysisTimeout,
	)

	analysisCtx, cancel := context.WithTimeout(ctx, a.analysisTimeout)
	defer cancel()

	// Collect analyzable columns up front, preserving supplied order.
	var tasks []columnTask
	for _, sheet := range corpus.Sheets {
		for _, col := range sheet.Columns {
			if !col.IsNumeric() {
				a.logger.DebugContext(ctx, "skipping non-numeric column",
					"sheet", sheet.Name,
					"column", col.Name,
				)
				continue
			}
			tasks = append(tasks, columnTask{sheet: sheet.Name, column: col.Name, values: col.Values})
		}
	}

	if len(tasks) == 0 {
		a.logger.WarnContext(ctx, "no numeric columns found in corpus",
			"source", corpus.Source,
			"sheets", corpus.SheetCount(),
		)
	}

	details := make([][]DigitDetailRow, len(tasks))
	summaries := make([]ColumnSummary, len(tasks))
	var completed atomic.Int64

	g, groupCtx := errgroup.WithContext(analysisCtx)
	g.SetLimit(a.maxConcurrency)

	for i, task := range tasks {
		g.Go(func() error {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			default:
			}

			detail, summary := AnalyzeColumn(task.sheet, task.column, task.values)
			details[i] = detail
			summaries[i] = summary

			done := int(completed.Add(1))
			a.logger.DebugContext(groupCtx, "column analyzed",
				"sheet", task.sheet,
				"column", task.column,
				"total_values", summary.TotalValues,
				"mad", summary.MAD,
				"column_progress", fmt.Sprintf("%d/%d", done, len(tasks)),
			)
			if a.progress != nil {
				a.progress(summary, done, len(tasks))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		a.logger.ErrorContext(ctx, "benford analysis aborted", "error", err)
		return nil, fmt.Errorf("analyze corpus: %w", err)
	}

	// Flatten in task order and pool the per-column digit counts.
	var pooled [DigitCount]int
	pooledTotal := 0
	allDetails := make([]DigitDetailRow, 0, len(tasks)*DigitCount)
	for _, rows := range details {
		for _, row := range rows {
			pooled[row.Digit-MinDigit] += row.Count
			pooledTotal += row.Count
		}
		allDetails = append(allDetails, rows...)
	}

	overall := make([]OverallDistributionRow, 0, DigitCount)
	for d := MinDigit; d <= MaxDigit; d++ {
		actual := 0.0
		if pooledTotal > 0 {
			actual = float64(pooled[d-MinDigit]) / float64(pooledTotal)
		}
		overall = append(overall, OverallDistributionRow{
			Digit:           d,
			ActualCount:     pooled[d-MinDigit],
			ActualPercent:   actual,
			ExpectedPercent: expectedProportions[d-MinDigit],
		})
	}

	result := &Result{
		Source:              corpus.Source,
		GeneratedAt:         time.Now().UTC(),
		Elapsed:             time.Since(start),
		SheetCount:          corpus.SheetCount(),
		ColumnCount:         len(tasks),
		TotalValues:         pooledTotal,
		DetailRows:          allDetails,
		ColumnSummaries:     summaries,
		OverallDistribution: overall,
		TopDeviations:       Rank(summaries, a.topN),
	}

	a.logger.InfoContext(ctx, "benford analysis completed",
		"source", corpus.Source,
		"duration", result.Elapsed,
		"columns_analyzed", result.ColumnCount,
		"values_pooled", result.TotalValues,
	)

	return result, nil
}
