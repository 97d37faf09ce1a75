package api

import (
	"benfordlens/pkg/contracts/domain"
)

// AnalysisAccepted is the 202 payload returned by POST /api/analysis.
type AnalysisAccepted struct {
	JobID   string          `json:"job_id"`
	State   domain.JobState `json:"state"`
	Message string          `json:"message"`
	PollURL string          `json:"poll_url"`
}

// JobStatusResponse is returned by GET /api/analysis/{id}. Result
// carries the full analysis result once the job completes and is
// omitted while the job is pending or running.
type JobStatusResponse struct {
	domain.AnalysisJob
	Progress int         `json:"progress"`
	Result   interface{} `json:"result,omitempty"`
}
