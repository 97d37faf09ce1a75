package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"google.golang.org/api/sheets/v4"

	"benfordlens/internal/benford"
)

// SheetsSource loads a Google Sheets spreadsheet through the Sheets API.
// The caller supplies an authenticated service, typically built by
// internal/security from encrypted service-account credentials.
type SheetsSource struct {
	spreadsheetID string
	svc           *sheets.Service
	logger        *slog.Logger
}

// NewSheetsSource creates a source for the given spreadsheet ID.
func NewSheetsSource(spreadsheetID string, svc *sheets.Service, logger *slog.Logger) *SheetsSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetsSource{spreadsheetID: spreadsheetID, svc: svc, logger: logger}
}

// Load fetches the spreadsheet metadata and every sheet's cell grid in
// spreadsheet order. The corpus source name is the spreadsheet title.
func (s *SheetsSource) Load(ctx context.Context) (*benford.Corpus, error) {
	if s.svc == nil {
		return nil, fmt.Errorf("no sheets service configured")
	}

	spreadsheet, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch spreadsheet %s: %w", s.spreadsheetID, err)
	}
	if len(spreadsheet.Sheets) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSheets, s.spreadsheetID)
	}

	source := s.spreadsheetID
	if spreadsheet.Properties != nil && spreadsheet.Properties.Title != "" {
		source = spreadsheet.Properties.Title
	}
	corpus := &benford.Corpus{Source: source}

	for _, meta := range spreadsheet.Sheets {
		if meta.Properties == nil {
			continue
		}
		title := meta.Properties.Title

		values, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, title).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("fetch sheet %q: %w", title, err)
		}

		rows := make([][]string, 0, len(values.Values))
		for _, row := range values.Values {
			cells := make([]string, 0, len(row))
			for _, cell := range row {
				cells = append(cells, cellString(cell))
			}
			rows = append(rows, cells)
		}

		sheet := sheetFromRows(title, rows)
		s.logger.DebugContext(ctx, "remote sheet loaded",
			"sheet", title,
			"rows", len(rows),
			"numeric_columns", len(sheet.Columns),
		)
		corpus.Sheets = append(corpus.Sheets, sheet)
	}

	s.logger.InfoContext(ctx, "spreadsheet loaded",
		"spreadsheet_id", s.spreadsheetID,
		"title", source,
		"sheets", len(corpus.Sheets),
		"numeric_columns", corpus.ColumnCount(),
	)
	return corpus, nil
}

// cellString renders one API cell value the way a workbook cell reads.
func cellString(cell interface{}) string {
	switch v := cell.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
