package corpus

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOpen tests source dispatch by extension
func TestOpen(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantType interface{}
		wantErr  bool
	}{
		{"xlsx workbook", "data/book.xlsx", &ExcelSource{}, false},
		{"xlsm workbook", "book.xlsm", &ExcelSource{}, false},
		{"uppercase extension", "BOOK.XLSX", &ExcelSource{}, false},
		{"csv file", "table.csv", &CSVSource{}, false},
		{"unsupported", "notes.txt", nil, true},
		{"no extension", "ledger", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Open(tt.path, slog.Default())
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, src)
		})
	}
}

// TestSheetFromRows tests the shared grid conversion
func TestSheetFromRows(t *testing.T) {
	t.Run("builds numeric columns with header names", func(t *testing.T) {
		rows := [][]string{
			{"amount", "note", "qty"},
			{"120", "ok", "3"},
			{"340", "late", "14"},
		}
		sheet := sheetFromRows("Revenue", rows)

		assert.Equal(t, "Revenue", sheet.Name)
		require.Len(t, sheet.Columns, 2, "text column dropped")
		assert.Equal(t, "amount", sheet.Columns[0].Name)
		assert.Equal(t, "qty", sheet.Columns[1].Name)
		assert.Equal(t, []string{"120", "340"}, sheet.Columns[0].Values)
	})

	t.Run("blank headers get positional names", func(t *testing.T) {
		rows := [][]string{
			{"", "  ", "total"},
			{"1", "2", "3"},
		}
		sheet := sheetFromRows("S", rows)

		require.Len(t, sheet.Columns, 3)
		assert.Equal(t, "Column 1", sheet.Columns[0].Name)
		assert.Equal(t, "Column 2", sheet.Columns[1].Name)
		assert.Equal(t, "total", sheet.Columns[2].Name)
	})

	t.Run("short rows pad with missing cells", func(t *testing.T) {
		rows := [][]string{
			{"a", "b"},
			{"1"},
			{"2", "5"},
		}
		sheet := sheetFromRows("S", rows)

		require.Len(t, sheet.Columns, 2)
		assert.Equal(t, []string{"1", "2"}, sheet.Columns[0].Values)
		assert.Equal(t, []string{"", "5"}, sheet.Columns[1].Values)
	})

	t.Run("long rows truncate to header width", func(t *testing.T) {
		rows := [][]string{
			{"a"},
			{"1", "overflow"},
		}
		sheet := sheetFromRows("S", rows)

		require.Len(t, sheet.Columns, 1)
		assert.Equal(t, []string{"1"}, sheet.Columns[0].Values)
	})

	t.Run("empty grid yields empty sheet", func(t *testing.T) {
		sheet := sheetFromRows("S", nil)
		assert.Equal(t, "S", sheet.Name)
		assert.Empty(t, sheet.Columns)
	})

	t.Run("header-only grid yields no columns", func(t *testing.T) {
		sheet := sheetFromRows("S", [][]string{{"a", "b"}})
		assert.Empty(t, sheet.Columns, "no values means nothing numeric")
	})
}

// TestSheetsSourceNoService verifies the unconfigured-service guard
func TestSheetsSourceNoService(t *testing.T) {
	src := NewSheetsSource("spreadsheet-id", nil, slog.Default())
	corpus, err := src.Load(context.Background())

	assert.Error(t, err)
	assert.Nil(t, corpus)
}

// TestCellString tests Sheets API cell conversion
func TestCellString(t *testing.T) {
	tests := []struct {
		name string
		cell interface{}
		want string
	}{
		{"string passes through", "hello", "hello"},
		{"float drops trailing zeros", float64(120), "120"},
		{"fraction keeps precision", 0.0032, "0.0032"},
		{"bool", true, "true"},
		{"nil is missing", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cellString(tt.cell))
		})
	}
}

// TestExcelSourceMissingFile verifies open failures surface as errors
func TestExcelSourceMissingFile(t *testing.T) {
	src := NewExcelSource(filepath.Join(t.TempDir(), "absent.xlsx"), slog.Default())
	corpus, err := src.Load(context.Background())

	assert.Error(t, err)
	assert.Nil(t, corpus)
}
