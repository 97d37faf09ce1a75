package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"benfordlens/internal/benford"
)

// Worksheet names of the styled report.
const (
	sheetSummary = "Summary"
	sheetColumns = "Column Summary"
	sheetDetail  = "Detail"
)

// Report palette.
const (
	colorGreen     = "006633"
	colorDarkGreen = "004B2E"
	colorGray      = "4D4D4D"
	colorLightGray = "E6E6E6"
	colorGold      = "CBA135"
)

// ExcelRenderer writes the styled workbook report: a Summary sheet with
// the overall distribution and chart, a Column Summary sheet with the
// ranked per-column table and MAD chart, and a Detail sheet with every
// digit row.
type ExcelRenderer struct{}

// NewExcelRenderer creates a styled workbook renderer.
func NewExcelRenderer() *ExcelRenderer {
	return &ExcelRenderer{}
}

// Format returns "excel".
func (r *ExcelRenderer) Format() string { return FormatExcel }

// Render builds the workbook in memory and writes it to w.
func (r *ExcelRenderer) Render(ctx context.Context, result *benford.Result, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("no result to render")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("name summary sheet: %w", err)
	}
	for _, name := range []string{sheetColumns, sheetDetail} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	st, err := newReportStyles(f)
	if err != nil {
		return fmt.Errorf("build styles: %w", err)
	}

	if err := r.writeSummarySheet(f, st, result); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.writeColumnSheet(f, st, result); err != nil {
		return fmt.Errorf("column summary sheet: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.writeDetailSheet(f, st, result); err != nil {
		return fmt.Errorf("detail sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// reportStyles bundles the style IDs one rendered workbook uses.
type reportStyles struct {
	title        int // white bold 16pt on dark green, centered
	label        int // bold gray metadata labels
	section      int // white bold on gold section banners
	header       int // white bold on green, centered
	percent      int // 0.0% number format
	zebra        int // light gray stripe
	zebraPercent int // stripe plus 0.0% format
}

func newReportStyles(f *excelize.File) (*reportStyles, error) {
	pctFmt := "0.0%"
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}

	title, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorDarkGreen}},
		Alignment: center,
	})
	if err != nil {
		return nil, err
	}
	label, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: colorGray},
	})
	if err != nil {
		return nil, err
	}
	section, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorGold}},
	})
	if err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorGreen}},
		Alignment: center,
	})
	if err != nil {
		return nil, err
	}
	percent, err := f.NewStyle(&excelize.Style{CustomNumFmt: &pctFmt})
	if err != nil {
		return nil, err
	}
	zebra, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorLightGray}},
	})
	if err != nil {
		return nil, err
	}
	zebraPercent, err := f.NewStyle(&excelize.Style{
		Fill:         excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorLightGray}},
		CustomNumFmt: &pctFmt,
	})
	if err != nil {
		return nil, err
	}

	return &reportStyles{
		title:        title,
		label:        label,
		section:      section,
		header:       header,
		percent:      percent,
		zebra:        zebra,
		zebraPercent: zebraPercent,
	}, nil
}

func (r *ExcelRenderer) writeSummarySheet(f *excelize.File, st *reportStyles, result *benford.Result) error {
	widths := map[int]int{}

	if err := f.MergeCell(sheetSummary, "A1", "G1"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheetSummary, "A1", "Benford's Law Analysis Report"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetSummary, "A1", "G1", st.title); err != nil {
		return err
	}

	scope := fmt.Sprintf("%d sheets, %d numeric columns, %d values",
		result.SheetCount, result.ColumnCount, result.TotalValues)
	meta := [][]interface{}{
		{"Input File", result.Source},
		{"Generated", result.GeneratedAt.Format("2006-01-02 15:04")},
		{"Scope", scope},
	}
	for i, row := range meta {
		if err := writeRow(f, sheetSummary, i+2, row, widths); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheetSummary, "A2", "A4", st.label); err != nil {
		return err
	}

	if !result.HasData() {
		if err := f.SetCellValue(sheetSummary, "A6", placeholder); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetSummary, "A6", "A6", st.section); err != nil {
			return err
		}
		return applyWidths(f, sheetSummary, widths)
	}

	if err := f.SetCellValue(sheetSummary, "A5", "Overall Leading Digit Distribution"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetSummary, "A5", "A5", st.section); err != nil {
		return err
	}

	const headerRow = 6
	headers := []interface{}{"Digit", "Actual Count", "Actual %", "Expected %"}
	if err := writeRow(f, sheetSummary, headerRow, headers, widths); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetSummary, "A6", "D6", st.header); err != nil {
		return err
	}

	for i, row := range result.OverallDistribution {
		rowNum := headerRow + 1 + i
		values := []interface{}{row.Digit, row.ActualCount, row.ActualPercent, row.ExpectedPercent}
		if err := writeRow(f, sheetSummary, rowNum, values, widths); err != nil {
			return err
		}
		pctStyle := st.percent
		if rowNum%2 == 0 {
			pctStyle = st.zebraPercent
			if err := setRangeStyle(f, sheetSummary, 1, 2, rowNum, st.zebra); err != nil {
				return err
			}
		}
		if err := setRangeStyle(f, sheetSummary, 3, 4, rowNum, pctStyle); err != nil {
			return err
		}
	}

	chart := &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{
			{
				Name:       sheetRef(sheetSummary, "$C$6"),
				Categories: sheetRef(sheetSummary, "$A$7:$A$15"),
				Values:     sheetRef(sheetSummary, "$C$7:$C$15"),
			},
			{
				Name:       sheetRef(sheetSummary, "$D$6"),
				Categories: sheetRef(sheetSummary, "$A$7:$A$15"),
				Values:     sheetRef(sheetSummary, "$D$7:$D$15"),
			},
		},
		Title:     []excelize.RichTextRun{{Text: "Actual vs Expected Distribution"}},
		XAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Leading Digit"}}},
		YAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Percentage"}}},
		Legend:    excelize.ChartLegend{Position: "bottom"},
		Dimension: excelize.ChartDimension{Width: 760, Height: 380},
	}
	if err := f.AddChart(sheetSummary, "F6", chart); err != nil {
		return fmt.Errorf("add distribution chart: %w", err)
	}

	return applyWidths(f, sheetSummary, widths)
}

func (r *ExcelRenderer) writeColumnSheet(f *excelize.File, st *reportStyles, result *benford.Result) error {
	widths := map[int]int{}

	headers := []interface{}{
		"Sheet", "Column", "Total Values", "MAD", "Chi-Square",
		"P-Value", "Mean", "Median", "Min", "Max",
	}
	if err := writeRow(f, sheetColumns, 1, headers, widths); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetColumns, "A1", "J1", st.header); err != nil {
		return err
	}

	ranked := benford.Rank(result.ColumnSummaries, len(result.ColumnSummaries))
	for i, s := range ranked {
		rowNum := i + 2
		values := []interface{}{
			s.Sheet, s.Column, s.TotalValues, s.MAD, s.ChiSquare,
			s.PValue, s.Mean, s.Median, s.Min, s.Max,
		}
		if err := writeRow(f, sheetColumns, rowNum, values, widths); err != nil {
			return err
		}
		if rowNum%2 == 0 {
			if err := setRangeStyle(f, sheetColumns, 1, len(values), rowNum, st.zebra); err != nil {
				return err
			}
		}
	}

	if len(ranked) > 0 {
		lastRow := len(ranked) + 1
		chart := &excelize.Chart{
			Type: excelize.Col,
			Series: []excelize.ChartSeries{{
				Name:       sheetRef(sheetColumns, "$D$1"),
				Categories: sheetRef(sheetColumns, fmt.Sprintf("$B$2:$B$%d", lastRow)),
				Values:     sheetRef(sheetColumns, fmt.Sprintf("$D$2:$D$%d", lastRow)),
			}},
			Title:     []excelize.RichTextRun{{Text: "Top MAD by Column"}},
			XAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Column"}}},
			YAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "MAD"}}},
			Legend:    excelize.ChartLegend{Position: "none"},
			Dimension: excelize.ChartDimension{Width: 760, Height: 380},
		}
		anchor := fmt.Sprintf("A%d", lastRow+3)
		if err := f.AddChart(sheetColumns, anchor, chart); err != nil {
			return fmt.Errorf("add deviation chart: %w", err)
		}
	}

	return applyWidths(f, sheetColumns, widths)
}

func (r *ExcelRenderer) writeDetailSheet(f *excelize.File, st *reportStyles, result *benford.Result) error {
	widths := map[int]int{}

	headers := []interface{}{"Sheet", "Column", "Digit", "Count", "Actual %", "Expected %", "Difference"}
	if err := writeRow(f, sheetDetail, 1, headers, widths); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetDetail, "A1", "G1", st.header); err != nil {
		return err
	}

	for i, row := range result.DetailRows {
		rowNum := i + 2
		values := []interface{}{
			row.Sheet, row.Column, row.Digit, row.Count,
			row.Proportion, row.Expected, row.Difference,
		}
		if err := writeRow(f, sheetDetail, rowNum, values, widths); err != nil {
			return err
		}
		pctStyle := st.percent
		if rowNum%2 == 0 {
			pctStyle = st.zebraPercent
			if err := setRangeStyle(f, sheetDetail, 1, 4, rowNum, st.zebra); err != nil {
				return err
			}
		}
		if err := setRangeStyle(f, sheetDetail, 5, 7, rowNum, pctStyle); err != nil {
			return err
		}
	}

	return applyWidths(f, sheetDetail, widths)
}

// writeRow sets one worksheet row and records each cell's text width.
func writeRow(f *excelize.File, sheet string, row int, values []interface{}, widths map[int]int) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return err
	}
	for i, v := range values {
		if n := len(fmt.Sprint(v)); n > widths[i+1] {
			widths[i+1] = n
		}
	}
	return nil
}

// applyWidths sizes each written column to its longest cell plus
// padding, with a 12-character floor.
func applyWidths(f *excelize.File, sheet string, widths map[int]int) error {
	for col, length := range widths {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		width := float64(length + 2)
		if width < 12 {
			width = 12
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

func setRangeStyle(f *excelize.File, sheet string, colFrom, colTo, row, styleID int) error {
	from, err := excelize.CoordinatesToCellName(colFrom, row)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(colTo, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, from, to, styleID)
}

// sheetRef builds a formula reference, quoting sheet names that contain
// spaces.
func sheetRef(sheet, ref string) string {
	if strings.ContainsRune(sheet, ' ') {
		return "'" + sheet + "'!" + ref
	}
	return sheet + "!" + ref
}
