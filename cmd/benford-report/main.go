package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"benfordlens/internal/benford"
	"benfordlens/internal/config"
	"benfordlens/internal/corpus"
	"benfordlens/internal/exporter"
	"benfordlens/internal/files"
	"benfordlens/internal/infrastructure"
	"benfordlens/internal/report"
	"benfordlens/internal/security"
	"benfordlens/internal/validation"
)

func main() {
	inPath := flag.String("in", "", "workbook file to analyze (.xlsx, .xlsm or .csv)")
	dir := flag.String("dir", "", "analyze every workbook found in this directory")
	sheetsID := flag.String("sheets-id", "", "Google Sheets spreadsheet ID to analyze instead of a file")
	outputDir := flag.String("out", "", "output directory for reports (defaults to data/reports)")
	format := flag.String("format", "all", "report format: markdown, excel or all")
	topN := flag.Int("top", 10, "number of top-deviation columns to highlight")
	concurrency := flag.Int("concurrency", defaultConcurrency(), "column analysis parallelism")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	logCfg := config.LoggingConfig{Level: "info", Format: "text", Output: "console"}
	if *verbose {
		logCfg.Level = "debug"
	}
	logger, err := infrastructure.InitializeLogger(logCfg)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	paths, err := config.GetPaths()
	if err != nil {
		logger.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}

	// Exactly one input selector.
	selected := 0
	for _, v := range []string{*inPath, *dir, *sheetsID} {
		if strings.TrimSpace(v) != "" {
			selected++
		}
	}
	if selected != 1 {
		logger.Error("Exactly one of -in, -dir or -sheets-id must be provided")
		flag.Usage()
		os.Exit(1)
	}

	formats, err := resolveFormats(*format)
	if err != nil {
		logger.Error("Invalid format", "format", *format, "error", err)
		os.Exit(1)
	}

	if *outputDir == "" {
		*outputDir = paths.ReportsDir
	}
	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateOutputDirectory(*outputDir); err != nil {
		logger.Error("Output directory unusable", "dir", *outputDir, "error", err)
		os.Exit(1)
	}

	// Report artifacts and CSV exports all land in the output
	// directory; the exporter resolves relative names against it.
	paths.ReportsDir = *outputDir

	runner := &reportRunner{
		cfg:         cfg,
		paths:       paths,
		validator:   validator,
		logger:      logger,
		formats:     formats,
		topN:        *topN,
		concurrency: *concurrency,
	}

	ctx := context.Background()
	var failed int

	switch {
	case *sheetsID != "":
		if err := runner.runSheets(ctx, strings.TrimSpace(*sheetsID)); err != nil {
			logger.Error("Analysis failed", "sheets_id", *sheetsID, "error", err)
			failed++
		}

	case *dir != "":
		discovery := files.NewDiscovery(*dir)
		workbooks, err := discovery.FindWorkbookFiles(".")
		if err != nil {
			logger.Error("Failed to scan directory", "dir", *dir, "error", err)
			os.Exit(1)
		}
		if len(workbooks) == 0 {
			logger.Error("No analyzable workbooks found",
				"dir", *dir,
				"hint", "supported formats: .xlsx, .xlsm, .csv")
			os.Exit(1)
		}
		logger.Info("Discovered workbooks", "dir", *dir, "count", len(workbooks))
		for _, wb := range workbooks {
			if err := runner.runFile(ctx, wb.Path); err != nil {
				logger.Error("Analysis failed", "file", wb.Path, "error", err)
				failed++
			}
		}

	default:
		if err := runner.runFile(ctx, *inPath); err != nil {
			logger.Error("Analysis failed", "file", *inPath, "error", err)
			failed++
		}
	}

	if failed > 0 {
		logger.Error("Completed with failures", "failed", failed)
		os.Exit(1)
	}
}

// reportRunner carries the shared state for one CLI invocation.
type reportRunner struct {
	cfg         *config.Config
	paths       *config.Paths
	validator   *validation.FileValidator
	logger      *slog.Logger
	formats     []string
	topN        int
	concurrency int
}

// runFile analyzes a single workbook file and writes its artifacts.
func (r *reportRunner) runFile(ctx context.Context, path string) error {
	if err := r.validator.ValidateWorkbookFile(path); err != nil {
		return err
	}

	src, err := corpus.Open(path, r.logger)
	if err != nil {
		return err
	}

	r.logger.Info("Analyzing workbook", "file", path)
	result, err := r.analyze(ctx, src)
	if err != nil {
		return err
	}

	return r.writeArtifacts(ctx, result, baseName(path))
}

// runSheets analyzes a Google Sheets spreadsheet. The encrypted
// credentials file must be present next to the executable.
func (r *reportRunner) runSheets(ctx context.Context, spreadsheetID string) error {
	if !config.FileExists(r.paths.CredentialsFile) {
		return fmt.Errorf("credentials file not found at %s; Google Sheets sources are unavailable", r.paths.CredentialsFile)
	}

	creds, err := security.NewCredentialsManager(
		r.paths.CredentialsFile,
		r.cfg.Security.CredentialsKey,
		r.logger,
	)
	if err != nil {
		return fmt.Errorf("initialize credentials manager: %w", err)
	}

	svc, cleanup, err := creds.NewSheetsService(ctx)
	if err != nil {
		return fmt.Errorf("connect to Google Sheets: %w", err)
	}
	defer cleanup()

	r.logger.Info("Analyzing spreadsheet", "sheets_id", spreadsheetID)
	result, err := r.analyze(ctx, corpus.NewSheetsSource(spreadsheetID, svc, r.logger))
	if err != nil {
		return err
	}

	return r.writeArtifacts(ctx, result, spreadsheetID)
}

// analyze loads the source and runs the digit analysis over it.
func (r *reportRunner) analyze(ctx context.Context, src corpus.Source) (*benford.Result, error) {
	c, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load workbook: %w", err)
	}

	analyzer := benford.NewAnalyzer(r.topN, r.logger)
	analyzer.SetConfiguration(r.concurrency, r.cfg.Analysis.Timeout)
	analyzer.SetProgressFunc(func(summary benford.ColumnSummary, completed, total int) {
		r.logger.Debug("Column analyzed",
			"sheet", summary.Sheet,
			"column", summary.Column,
			"values", summary.TotalValues,
			"mad", summary.MAD,
			"progress", fmt.Sprintf("%d/%d", completed, total))
	})

	result, err := analyzer.Analyze(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("analyze corpus: %w", err)
	}

	r.logger.Info("Analysis complete",
		"sheets", result.SheetCount,
		"columns", result.ColumnCount,
		"values", result.TotalValues,
		"elapsed", result.Elapsed.String())

	return result, nil
}

// writeArtifacts renders the requested report formats, writes the CSV
// and JSON exports, and prints the console summary.
func (r *reportRunner) writeArtifacts(ctx context.Context, result *benford.Result, base string) error {
	for _, f := range r.formats {
		renderer, err := report.For(f)
		if err != nil {
			return err
		}

		name := report.FileName(base, f, result.GeneratedAt)
		full := filepath.Join(r.paths.ReportsDir, name)

		fh, err := os.Create(full)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		if err := renderer.Render(ctx, result, fh); err != nil {
			fh.Close()
			os.Remove(full)
			return fmt.Errorf("render %s report: %w", f, err)
		}
		if err := fh.Close(); err != nil {
			return fmt.Errorf("close report file: %w", err)
		}

		r.logger.Info("Report written", "format", f, "path", full)
	}

	exports, err := exporter.NewResultExporter(r.paths).ExportAll(result, base, result.GeneratedAt)
	if err != nil {
		return fmt.Errorf("write exports: %w", err)
	}
	r.logger.Info("Exports written", "count", len(exports), "dir", r.paths.ReportsDir)

	// Console epilogue: the fixed-width summary rendering.
	summary, err := report.For(report.FormatSummary)
	if err != nil {
		return err
	}
	fmt.Println()
	if err := summary.Render(ctx, result, os.Stdout); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	return nil
}

// resolveFormats expands the -format flag into renderer format names.
func resolveFormats(format string) ([]string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "all":
		return []string{report.FormatMarkdown, report.FormatExcel}, nil
	case report.FormatMarkdown:
		return []string{report.FormatMarkdown}, nil
	case report.FormatExcel:
		return []string{report.FormatExcel}, nil
	default:
		return nil, fmt.Errorf("must be markdown, excel or all")
	}
}

// defaultConcurrency is GOMAXPROCS capped at 8. Column analysis is CPU
// bound; beyond that the scheduler overhead outweighs the gain.
func defaultConcurrency() int {
	n := runtime.GOMAXPROCS(0)
	if n > 8 {
		n = 8
	}
	return n
}

// baseName strips the directory and extension from a workbook path.
func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
