package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"benfordlens/internal/benford"
)

// Sentinel errors for source construction and loading.
var (
	// ErrUnsupportedFormat marks a file extension no source can read.
	ErrUnsupportedFormat = errors.New("unsupported workbook format")
	// ErrNoSheets marks a spreadsheet that contains no sheets at all.
	ErrNoSheets = errors.New("workbook contains no sheets")
)

// Source loads a corpus from some backing store. Implementations perform
// all their I/O inside Load; the returned corpus is a plain value the
// analysis core can consume without further I/O.
type Source interface {
	Load(ctx context.Context) (*benford.Corpus, error)
}

// Open returns the file-backed source matching the path extension.
// Excel workbooks (.xlsx, .xlsm) and CSV files are supported.
func Open(path string, logger *slog.Logger) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return NewExcelSource(path, logger), nil
	case ".csv":
		return NewCSVSource(path, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// sheetFromRows converts a raw cell grid into a sheet. The first row is
// the header; blank header cells get positional names. Data rows shorter
// than the header pad with missing cells, longer rows are truncated to
// the header width. Columns where no value parses as a number are
// dropped here so the analyzer only sees analyzable columns.
func sheetFromRows(name string, rows [][]string) benford.Sheet {
	sheet := benford.Sheet{Name: name}
	if len(rows) == 0 {
		return sheet
	}

	header := rows[0]
	if len(header) == 0 {
		return sheet
	}

	columns := make([]benford.Column, len(header))
	for j, raw := range header {
		columns[j] = benford.Column{
			Name:   headerName(raw, j),
			Values: make([]string, 0, len(rows)-1),
		}
	}

	for _, row := range rows[1:] {
		for j := range columns {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			columns[j].Values = append(columns[j].Values, cell)
		}
	}

	for _, col := range columns {
		if col.IsNumeric() {
			sheet.Columns = append(sheet.Columns, col)
		}
	}
	return sheet
}

// headerName trims a raw header cell and substitutes a positional name
// for blanks.
func headerName(raw string, index int) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return fmt.Sprintf("Column %d", index+1)
	}
	return name
}
