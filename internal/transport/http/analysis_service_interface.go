package http

import (
	"context"
	"io"

	"benfordlens/internal/benford"
	"benfordlens/pkg/contracts/domain"
)

// AnalysisServiceInterface defines the job operations the analysis
// handler depends on.
type AnalysisServiceInterface interface {
	SubmitUpload(ctx context.Context, fileName string, r io.Reader, topN int, formats []string) (domain.AnalysisJob, error)
	SubmitSheets(ctx context.Context, spreadsheetID string, topN int, formats []string) (domain.AnalysisJob, error)
	GetJob(ctx context.Context, jobID string) (domain.AnalysisJob, error)
	JobResult(ctx context.Context, jobID string) (*benford.Result, error)
	ReportPath(ctx context.Context, jobID, format string) (string, string, error)
	ListJobs(ctx context.Context) []domain.AnalysisJob
}
