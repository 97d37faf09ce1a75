package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"benfordlens/internal/benford"
)

// Format names accepted by For.
const (
	FormatMarkdown = "markdown"
	FormatExcel    = "excel"
	FormatSummary  = "summary"
)

// ErrUnknownFormat marks a format name no renderer is registered for.
var ErrUnknownFormat = errors.New("unknown report format")

// Renderer turns an analysis result into one output format. Renderers
// are stateless; the same instance may render many results.
type Renderer interface {
	// Format returns the registry name of this renderer.
	Format() string
	// Render writes the formatted report to w.
	Render(ctx context.Context, result *benford.Result, w io.Writer) error
}

// For returns the renderer registered under format.
func For(format string) (Renderer, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdownRenderer(), nil
	case FormatExcel:
		return NewExcelRenderer(), nil
	case FormatSummary:
		return NewSummaryRenderer(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Extension returns the conventional file extension for format,
// including the leading dot. Unknown formats fall back to ".txt".
func Extension(format string) string {
	switch format {
	case FormatMarkdown:
		return ".md"
	case FormatExcel:
		return ".xlsx"
	default:
		return ".txt"
	}
}

// FileName builds the report file name for one input and format:
// benford_report_<base>_<YYYYMMDD_HHMMSS><ext>.
func FileName(base, format string, t time.Time) string {
	return fmt.Sprintf("benford_report_%s_%s%s", base, t.Format("20060102_150405"), Extension(format))
}

// placeholder is rendered wherever a report section has no data rows.
const placeholder = "No numeric data available."
