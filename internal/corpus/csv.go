package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"benfordlens/internal/benford"
)

// utf8BOM prefixes CSV exports from spreadsheet tools; it is stripped so
// the first header cell parses clean.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVSource loads a CSV file as a single-sheet corpus. The sheet takes
// the file's base name without extension.
type CSVSource struct {
	path   string
	logger *slog.Logger
}

// NewCSVSource creates a source for the CSV file at path.
func NewCSVSource(path string, logger *slog.Logger) *CSVSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVSource{path: path, logger: logger}
}

// Load reads the file. The first record is the header; ragged rows are
// tolerated. An empty file yields an empty sheet, not an error.
func (s *CSVSource) Load(ctx context.Context) (*benford.Corpus, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	base := filepath.Base(s.path)
	sheetName := strings.TrimSuffix(base, filepath.Ext(base))
	corpus := &benford.Corpus{Source: base}

	reader := csv.NewReader(newBOMStripper(f))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("load csv: %w", ctx.Err())
		default:
		}

		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read csv row %d: %w", len(rows)+1, err)
		}
		row := make([]string, len(record))
		copy(row, record)
		rows = append(rows, row)
	}

	sheet := sheetFromRows(sheetName, rows)
	corpus.Sheets = append(corpus.Sheets, sheet)

	s.logger.InfoContext(ctx, "csv loaded",
		"path", s.path,
		"rows", len(rows),
		"numeric_columns", len(sheet.Columns),
	)
	return corpus, nil
}

// bomStripper drops a leading UTF-8 BOM from the wrapped reader.
type bomStripper struct {
	r       io.Reader
	checked bool
}

func newBOMStripper(r io.Reader) *bomStripper {
	return &bomStripper{r: r}
}

func (b *bomStripper) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head := make([]byte, len(utf8BOM))
		n, err := io.ReadFull(b.r, head)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, err
		}
		kept := strings.TrimPrefix(string(head[:n]), string(utf8BOM))
		b.r = io.MultiReader(strings.NewReader(kept), b.r)
	}
	return b.r.Read(p)
}
