package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"benfordlens/internal/benford"
)

// ExcelSource loads every sheet of an Excel workbook in workbook order.
type ExcelSource struct {
	path   string
	logger *slog.Logger
}

// NewExcelSource creates a source for the workbook at path.
func NewExcelSource(path string, logger *slog.Logger) *ExcelSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelSource{path: path, logger: logger}
}

// Load reads the workbook and builds the corpus. Sheets keep workbook
// order; each sheet's first row is its header. Cells come back as the
// display strings excelize produces, so numeric interpretation stays
// with the analyzer.
func (s *ExcelSource) Load(ctx context.Context) (*benford.Corpus, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			s.logger.WarnContext(ctx, "failed to close workbook",
				"path", s.path,
				"error", closeErr,
			)
		}
	}()

	sheetNames := f.GetSheetList()
	if len(sheetNames) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSheets, s.path)
	}

	corpus := &benford.Corpus{Source: filepath.Base(s.path)}
	for _, name := range sheetNames {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("load workbook: %w", ctx.Err())
		default:
		}

		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}

		sheet := sheetFromRows(name, rows)
		s.logger.DebugContext(ctx, "sheet loaded",
			"sheet", name,
			"rows", len(rows),
			"numeric_columns", len(sheet.Columns),
		)
		corpus.Sheets = append(corpus.Sheets, sheet)
	}

	s.logger.InfoContext(ctx, "workbook loaded",
		"path", s.path,
		"sheets", len(corpus.Sheets),
		"numeric_columns", corpus.ColumnCount(),
	)
	return corpus, nil
}
