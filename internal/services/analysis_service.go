package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"benfordlens/internal/benford"
	"benfordlens/internal/config"
	"benfordlens/internal/corpus"
	apierrors "benfordlens/internal/errors"
	"benfordlens/internal/exporter"
	"benfordlens/internal/infrastructure"
	"benfordlens/internal/report"
	"benfordlens/internal/security"
	ws "benfordlens/internal/websocket"
	"benfordlens/pkg/contracts/domain"
	"benfordlens/pkg/contracts/events"
)

// evictInterval bounds how long an expired job entry can linger in the
// store between sweeps.
const evictInterval = time.Minute

// workbookName matches file names the service accepts for upload.
var workbookName = regexp.MustCompile(config.WorkbookPattern)

// unsafeNameChars matches everything not allowed in a stored file name.
var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// AnalysisService owns the asynchronous analysis job lifecycle: it
// stores uploaded workbooks, runs the digit analyzer in the background,
// renders reports, and publishes progress over the WebSocket hub.
//
// Jobs live in an in-memory store keyed by UUID. Terminal jobs are
// evicted once the configured TTL passes; their report files stay on
// disk and remain discoverable through the files package.
type AnalysisService struct {
	cfg     *config.Config
	paths   *config.Paths
	hub     *ws.Hub
	creds   *security.CredentialsManager
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger

	mu     sync.RWMutex
	jobs   map[string]*jobEntry
	closed bool

	baseCtx context.Context
	cancel  context.CancelFunc
	stop    chan struct{}
	evictWG sync.WaitGroup
	jobWG   sync.WaitGroup
}

// jobEntry pairs the public job snapshot with artifacts that never
// leave the service without being copied or serialized.
type jobEntry struct {
	job       domain.AnalysisJob
	result    *benford.Result
	expiresAt time.Time
}

// NewAnalysisService creates the analysis service. hub may be nil in
// CLI contexts; creds may be nil when Google Sheets ingestion is not
// configured, in which case sheets submissions are rejected up front.
func NewAnalysisService(cfg *config.Config, paths *config.Paths, hub *ws.Hub, creds *security.CredentialsManager, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	baseCtx, cancel := context.WithCancel(context.Background())
	return &AnalysisService{
		cfg:     cfg,
		paths:   paths,
		hub:     hub,
		creds:   creds,
		logger:  logger,
		jobs:    make(map[string]*jobEntry),
		baseCtx: baseCtx,
		cancel:  cancel,
		stop:    make(chan struct{}),
	}
}

// SetMetrics attaches business metrics instruments. Call once during
// startup, before the first submission.
func (s *AnalysisService) SetMetrics(m *infrastructure.BusinessMetrics) {
	s.metrics = m
}

// Start launches the background eviction loop.
func (s *AnalysisService) Start() {
	s.evictWG.Add(1)
	go s.evictLoop()
}

// Close stops accepting submissions, cancels running jobs, and waits
// for the job goroutines and the eviction loop to drain.
func (s *AnalysisService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	close(s.stop)
	s.jobWG.Wait()
	s.evictWG.Wait()

	s.logger.Info("analysis service closed")
}

// SubmitUpload stores an uploaded workbook under the workbooks
// directory and queues it for analysis. fileName is the client-supplied
// name; only its sanitized base is kept.
func (s *AnalysisService) SubmitUpload(ctx context.Context, fileName string, r io.Reader, topN int, formats []string) (domain.AnalysisJob, error) {
	safe := sanitizeFileName(fileName)
	if !workbookName.MatchString(safe) {
		return domain.AnalysisJob{}, fmt.Errorf("%w: %s", apierrors.ErrInvalidWorkbook, fileName)
	}

	jobID := uuid.New().String()
	stored := jobID[:8] + "_" + safe
	path := s.paths.GetWorkbookPath(stored)

	size, err := s.storeUpload(path, r)
	if err != nil {
		return domain.AnalysisJob{}, err
	}
	s.logger.InfoContext(ctx, "workbook upload stored",
		slog.String("job_id", jobID),
		slog.String("file", stored),
		slog.Int64("size_bytes", size))

	job, err := s.enqueue(ctx, jobID, domain.SourceKindUpload, safe, path, topN, formats)
	if err != nil {
		os.Remove(path)
		return domain.AnalysisJob{}, err
	}
	return job, nil
}

// SubmitSheets queues analysis of a Google Sheets spreadsheet.
func (s *AnalysisService) SubmitSheets(ctx context.Context, spreadsheetID string, topN int, formats []string) (domain.AnalysisJob, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return domain.AnalysisJob{}, fmt.Errorf("%w: empty spreadsheet ID", ErrInvalidInput)
	}
	if s.creds == nil {
		return domain.AnalysisJob{}, fmt.Errorf("%w: credentials not configured", apierrors.ErrSheetsUnavailable)
	}
	return s.enqueue(ctx, uuid.New().String(), domain.SourceKindSheets, spreadsheetID, "", topN, formats)
}

// SubmitPath queues analysis of a workbook already on disk.
func (s *AnalysisService) SubmitPath(ctx context.Context, path string, topN int, formats []string) (domain.AnalysisJob, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.AnalysisJob{}, fmt.Errorf("%w: %v", apierrors.ErrInvalidWorkbook, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return domain.AnalysisJob{}, fmt.Errorf("%w: %v", apierrors.ErrInvalidWorkbook, err)
	}
	return s.enqueue(ctx, uuid.New().String(), domain.SourceKindPath, filepath.Base(abs), abs, topN, formats)
}

// GetJob returns a snapshot of one job.
func (s *AnalysisService) GetJob(ctx context.Context, jobID string) (domain.AnalysisJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.jobs[jobID]
	if !ok {
		return domain.AnalysisJob{}, fmt.Errorf("%w: %s", apierrors.ErrJobNotFound, jobID)
	}
	return cloneJob(entry.job), nil
}

// JobResult returns the full analysis result of a completed job.
func (s *AnalysisService) JobResult(ctx context.Context, jobID string) (*benford.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apierrors.ErrJobNotFound, jobID)
	}
	switch entry.job.State {
	case domain.JobStateCompleted:
		return entry.result, nil
	case domain.JobStateFailed:
		return nil, apierrors.AnalysisFailedError(errors.New(entry.job.Error))
	default:
		return nil, fmt.Errorf("%w: %s", apierrors.ErrJobRunning, jobID)
	}
}

// ReportPath resolves the on-disk location of a rendered report for a
// completed job. An empty format defaults to markdown. It returns the
// absolute path and the bare file name for the download headers.
func (s *AnalysisService) ReportPath(ctx context.Context, jobID, format string) (string, string, error) {
	s.mu.RLock()
	entry, ok := s.jobs[jobID]
	if !ok {
		s.mu.RUnlock()
		return "", "", fmt.Errorf("%w: %s", apierrors.ErrJobNotFound, jobID)
	}
	job := cloneJob(entry.job)
	s.mu.RUnlock()

	if !job.State.Terminal() {
		return "", "", fmt.Errorf("%w: %s", apierrors.ErrJobRunning, jobID)
	}
	if job.State == domain.JobStateFailed {
		return "", "", fmt.Errorf("%w: job failed: %s", ErrReportNotFound, job.Error)
	}
	if format == "" {
		format = report.FormatMarkdown
	}
	name, ok := job.ReportFiles[format]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrReportNotFound, format)
	}
	return s.paths.GetReportPath(name), name, nil
}

// ListJobs returns snapshots of every stored job, newest first.
func (s *AnalysisService) ListJobs(ctx context.Context) []domain.AnalysisJob {
	s.mu.RLock()
	jobs := make([]domain.AnalysisJob, 0, len(s.jobs))
	for _, entry := range s.jobs {
		jobs = append(jobs, cloneJob(entry.job))
	}
	s.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].SubmittedAt.Equal(jobs[j].SubmittedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].SubmittedAt.After(jobs[j].SubmittedAt)
	})
	return jobs
}

// ActiveJobs returns the number of jobs not yet in a terminal state.
func (s *AnalysisService) ActiveJobs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, entry := range s.jobs {
		if !entry.job.State.Terminal() {
			n++
		}
	}
	return n
}

// JobCount returns the total number of jobs currently in the store.
func (s *AnalysisService) JobCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// enqueue registers a pending job and launches its runner goroutine.
// Zero topN and empty formats fall back to the configured defaults.
func (s *AnalysisService) enqueue(ctx context.Context, jobID string, kind domain.SourceKind, source, path string, topN int, formats []string) (domain.AnalysisJob, error) {
	if topN <= 0 {
		topN = s.cfg.Analysis.TopN
	}
	if len(formats) == 0 {
		formats = append([]string(nil), s.cfg.Reports.Formats...)
	}

	job := domain.AnalysisJob{
		ID:          jobID,
		State:       domain.JobStatePending,
		Source:      source,
		SourceKind:  kind,
		TopN:        topN,
		Formats:     formats,
		SubmittedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.AnalysisJob{}, ErrServiceClosed
	}
	s.jobs[jobID] = &jobEntry{job: job}
	s.jobWG.Add(1)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "analysis job queued",
		slog.String("job_id", jobID),
		slog.String("source", source),
		slog.String("source_kind", string(kind)),
		slog.Int("top_n", topN),
		slog.Any("formats", formats))

	go s.run(jobID, kind, source, path, infrastructure.GetTraceID(ctx))

	return cloneJob(job), nil
}

// run executes one job to completion. It owns the job's state
// transitions; everything it publishes is a snapshot.
func (s *AnalysisService) run(jobID string, kind domain.SourceKind, source, path, traceID string) {
	defer s.jobWG.Done()

	ctx, cancel := context.WithTimeout(s.baseCtx, s.cfg.Analysis.Timeout)
	defer cancel()
	if traceID == "" {
		traceID = infrastructure.GenerateTraceID()
	}
	ctx = infrastructure.WithTraceID(ctx, traceID)

	logger := s.logger.With(slog.String("job_id", jobID))
	started := time.Now()

	job, ok := s.transition(jobID, func(j *domain.AnalysisJob) {
		j.State = domain.JobStateRunning
		t := started.UTC()
		j.StartedAt = &t
	})
	if !ok {
		return
	}

	infrastructure.RecordActiveAnalysisChange(ctx, s.metrics, 1, string(kind))
	defer infrastructure.RecordActiveAnalysisChange(ctx, s.metrics, -1, string(kind))

	result, err := s.execute(ctx, logger, job, kind, source, path)
	infrastructure.RecordAnalysisMetrics(ctx, s.metrics, jobID, string(kind), time.Since(started), err == nil, err)
	if err != nil {
		s.fail(ctx, logger, jobID, err)
		return
	}
	s.complete(ctx, logger, job, result)
}

// execute loads the corpus and drives the analyzer, streaming progress
// to the store and the hub as columns finish.
func (s *AnalysisService) execute(ctx context.Context, logger *slog.Logger, job domain.AnalysisJob, kind domain.SourceKind, source, path string) (*benford.Result, error) {
	src, cleanup, err := s.openSource(ctx, kind, source, path)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	c, err := src.Load(ctx)
	if err != nil {
		if apiErr := mapLoadError(err); apiErr != nil {
			return nil, apiErr
		}
		return nil, err
	}

	s.transition(job.ID, func(j *domain.AnalysisJob) {
		j.SheetCount = len(c.Sheets)
	})
	s.broadcast(ctx, events.EventAnalysisStarted, events.AnalysisStarted{
		JobID:      job.ID,
		Source:     source,
		SourceKind: kind,
		SheetCount: len(c.Sheets),
		StartedAt:  time.Now().UTC(),
	})
	for _, sheet := range c.Sheets {
		s.broadcast(ctx, events.EventSheetStarted, events.SheetStarted{
			JobID: job.ID,
			Sheet: sheet.Name,
		})
	}

	analyzer := benford.NewAnalyzer(job.TopN, logger)
	analyzer.SetConfiguration(s.cfg.Analysis.MaxConcurrency, s.cfg.Analysis.Timeout)
	analyzer.SetProgressFunc(func(summary benford.ColumnSummary, completed, total int) {
		s.transition(job.ID, func(j *domain.AnalysisJob) {
			j.ColumnsDone = completed
			j.ColumnsTotal = total
		})
		infrastructure.RecordColumnAnalyzed(ctx, s.metrics, summary.Sheet, summary.Column, int64(summary.TotalValues))
		s.broadcast(ctx, events.EventColumnAnalyzed, events.ColumnAnalyzed{
			JobID:        job.ID,
			Sheet:        summary.Sheet,
			Column:       summary.Column,
			ColumnsDone:  completed,
			ColumnsTotal: total,
			TotalValues:  summary.TotalValues,
			MAD:          summary.MAD,
			ChiSquare:    summary.ChiSquare,
			Conformity:   domain.GradeMAD(summary.MAD),
		})
	})

	return analyzer.Analyze(ctx, c)
}

// openSource builds the corpus source for one job. The returned cleanup
// releases transport resources and is non-nil only for sheets jobs.
func (s *AnalysisService) openSource(ctx context.Context, kind domain.SourceKind, source, path string) (corpus.Source, func(), error) {
	if kind == domain.SourceKindSheets {
		if s.creds == nil {
			return nil, nil, fmt.Errorf("%w: credentials not configured", apierrors.ErrSheetsUnavailable)
		}
		svc, cleanup, err := s.creds.NewSheetsService(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apierrors.ErrSheetsUnavailable, err)
		}
		return corpus.NewSheetsSource(source, svc, s.logger), cleanup, nil
	}

	src, err := corpus.Open(path, s.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apierrors.ErrInvalidWorkbook, err)
	}
	return src, nil, nil
}

// complete renders reports and exports, records the terminal state, and
// publishes the completion event.
func (s *AnalysisService) complete(ctx context.Context, logger *slog.Logger, job domain.AnalysisJob, result *benford.Result) {
	reportFiles := s.renderReports(ctx, logger, job, result)
	exportFiles := s.exportCSV(ctx, logger, job, result)

	now := time.Now().UTC()
	s.mu.Lock()
	if entry, ok := s.jobs[job.ID]; ok {
		entry.job.State = domain.JobStateCompleted
		entry.job.CompletedAt = &now
		entry.job.SheetCount = result.SheetCount
		entry.job.ColumnsDone = result.ColumnCount
		entry.job.ColumnsTotal = result.ColumnCount
		entry.job.ReportFiles = reportFiles
		entry.job.ExportFiles = exportFiles
		entry.result = result
		entry.expiresAt = now.Add(s.cfg.Analysis.JobTTL)
	}
	s.mu.Unlock()

	logger.InfoContext(ctx, "analysis job completed",
		slog.Int("sheets", result.SheetCount),
		slog.Int("columns", result.ColumnCount),
		slog.Int("values", result.TotalValues),
		slog.Duration("elapsed", result.Elapsed),
		slog.Int("report_files", len(reportFiles)),
		slog.Int("export_files", len(exportFiles)))

	s.broadcast(ctx, events.EventAnalysisCompleted, events.AnalysisCompleted{
		JobID:       job.ID,
		Source:      job.Source,
		SheetCount:  result.SheetCount,
		ColumnCount: result.ColumnCount,
		TotalValues: result.TotalValues,
		Elapsed:     result.Elapsed,
		ReportFiles: reportFiles,
	})
}

// fail records the terminal failure and publishes the failure event.
func (s *AnalysisService) fail(ctx context.Context, logger *slog.Logger, jobID string, err error) {
	now := time.Now().UTC()
	s.mu.Lock()
	if entry, ok := s.jobs[jobID]; ok {
		entry.job.State = domain.JobStateFailed
		entry.job.CompletedAt = &now
		entry.job.Error = err.Error()
		entry.expiresAt = now.Add(s.cfg.Analysis.JobTTL)
	}
	s.mu.Unlock()

	logger.ErrorContext(ctx, "analysis job failed",
		slog.String("error", err.Error()))

	s.broadcast(ctx, events.EventAnalysisFailed, events.AnalysisFailed{
		JobID: jobID,
		Error: err.Error(),
	})
}

// renderReports renders every requested file format and returns the
// rendered file names keyed by format. A failing format is logged and
// skipped so one bad renderer does not void the whole job.
func (s *AnalysisService) renderReports(ctx context.Context, logger *slog.Logger, job domain.AnalysisJob, result *benford.Result) map[string]string {
	base := reportBase(job.Source)
	files := make(map[string]string, len(job.Formats))
	for _, format := range job.Formats {
		// The summary format renders to stdout in the CLI, never to a file.
		if format == report.FormatSummary {
			continue
		}
		name, err := s.renderOne(ctx, format, base, result)
		infrastructure.RecordReportRender(ctx, s.metrics, format, err == nil)
		if err != nil {
			logger.ErrorContext(ctx, "report render failed",
				slog.String("format", format),
				slog.String("error", err.Error()))
			continue
		}
		logger.InfoContext(ctx, "report rendered",
			slog.String("format", format),
			slog.String("file", name))
		files[format] = name
	}
	return files
}

func (s *AnalysisService) renderOne(ctx context.Context, format, base string, result *benford.Result) (string, error) {
	r, err := report.For(format)
	if err != nil {
		return "", err
	}
	name := report.FileName(base, format, result.GeneratedAt)
	path := s.paths.GetReportPath(name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	if err := r.Render(ctx, result, f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report file: %w", err)
	}
	return name, nil
}

// exportCSV writes the machine-readable CSV/JSON exports when enabled.
func (s *AnalysisService) exportCSV(ctx context.Context, logger *slog.Logger, job domain.AnalysisJob, result *benford.Result) []string {
	if !s.cfg.Reports.CSVExports {
		return nil
	}
	names, err := exporter.NewResultExporter(s.paths).ExportAll(result, reportBase(job.Source), result.GeneratedAt)
	if err != nil {
		logger.WarnContext(ctx, "csv export failed",
			slog.String("error", err.Error()),
			slog.Int("files_written", len(names)))
		return names
	}
	infrastructure.RecordExportFiles(ctx, s.metrics, int64(len(names)))
	return names
}

// broadcast publishes an event through the hub when one is attached.
func (s *AnalysisService) broadcast(ctx context.Context, eventType events.EventType, data interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEventWithTrace(eventType, data, infrastructure.GetTraceID(ctx))
}

// transition applies fn to the stored job under the write lock and
// returns the updated snapshot.
func (s *AnalysisService) transition(jobID string, fn func(*domain.AnalysisJob)) (domain.AnalysisJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.jobs[jobID]
	if !ok {
		return domain.AnalysisJob{}, false
	}
	fn(&entry.job)
	return cloneJob(entry.job), true
}

// storeUpload copies the request body to path, enforcing the configured
// upload size ceiling. The partial file is removed on any failure.
func (s *AnalysisService) storeUpload(path string, r io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("store upload: %w", err)
	}

	limit := s.cfg.Server.MaxUploadBytes
	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	if err != nil {
		f.Close()
		os.Remove(path)
		return 0, fmt.Errorf("store upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("store upload: %w", err)
	}
	if n > limit {
		os.Remove(path)
		return 0, fmt.Errorf("%w: limit %d bytes", apierrors.ErrWorkbookTooLarge, limit)
	}
	return n, nil
}

// evictLoop sweeps expired terminal jobs until Close.
func (s *AnalysisService) evictLoop() {
	defer s.evictWG.Done()

	ticker := time.NewTicker(evictInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.evictExpired(now)
		}
	}
}

// evictExpired removes terminal jobs whose TTL has passed.
func (s *AnalysisService) evictExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entry := range s.jobs {
		if entry.job.State.Terminal() && !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(s.jobs, id)
			s.logger.Debug("expired analysis job evicted",
				slog.String("job_id", id),
				slog.Time("expired_at", entry.expiresAt))
		}
	}
}

// mapLoadError translates corpus sentinel errors into the API error
// space so handlers can surface load failures as client errors.
func mapLoadError(err error) error {
	switch {
	case errors.Is(err, corpus.ErrUnsupportedFormat), errors.Is(err, corpus.ErrNoSheets):
		return fmt.Errorf("%w: %v", apierrors.ErrInvalidWorkbook, err)
	default:
		return nil
	}
}

// cloneJob copies a snapshot so callers never alias store-owned slices
// or maps.
func cloneJob(j domain.AnalysisJob) domain.AnalysisJob {
	out := j
	if j.Formats != nil {
		out.Formats = append([]string(nil), j.Formats...)
	}
	if j.ReportFiles != nil {
		out.ReportFiles = make(map[string]string, len(j.ReportFiles))
		for k, v := range j.ReportFiles {
			out.ReportFiles[k] = v
		}
	}
	if j.ExportFiles != nil {
		out.ExportFiles = append([]string(nil), j.ExportFiles...)
	}
	return out
}

// sanitizeFileName strips any path components and collapses characters
// outside [a-zA-Z0-9._-] so client-supplied names cannot escape the
// workbooks directory.
func sanitizeFileName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	base = unsafeNameChars.ReplaceAllString(base, "_")
	base = strings.TrimLeft(base, "._")
	if base == "" {
		return "workbook"
	}
	return base
}

// reportBase derives the report file-name base from a job source: the
// file name without its extension, or the spreadsheet ID as is.
func reportBase(source string) string {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = unsafeNameChars.ReplaceAllString(base, "_")
	if base == "" {
		return "workbook"
	}
	return base
}
