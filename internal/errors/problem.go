package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// Analysis-domain sentinel errors. Services return these; the HTTP layer
// maps them to problem details with MapAnalysisError.
var (
	ErrJobNotFound       = errors.New("analysis job not found")
	ErrJobRunning        = errors.New("analysis still running")
	ErrInvalidWorkbook   = errors.New("invalid workbook")
	ErrWorkbookTooLarge  = errors.New("workbook too large")
	ErrSheetsUnavailable = errors.New("sheets service unavailable")
)

// AnalysisJobDetails provides additional context for analysis-job errors
type AnalysisJobDetails struct {
	JobID       string     `json:"job_id,omitempty"`
	State       string     `json:"state,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	SheetsDone  int        `json:"sheets_done,omitempty"`
	ColumnsDone int        `json:"columns_done,omitempty"`
}

// ProblemDetails implements RFC 7807 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Additional fields for extensibility
	Extensions map[string]interface{} `json:"-"`
}

// Render implements the render.Renderer interface
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON custom marshaler to include extensions
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{})

	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status

	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}

	for k, v := range pd.Extensions {
		data[k] = v
	}

	return json.Marshal(data)
}

// NewProblemDetails creates a new RFC 7807 compliant error
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension field to the problem details
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// NewAnalysisRunningProblem creates a report-not-ready error with job progress
func NewAnalysisRunningProblem(details *AnalysisJobDetails, traceID string) *ProblemDetails {
	problem := NewProblemDetails(
		http.StatusConflict,
		TypeAnalysisRunning,
		"Analysis Still Running",
		"The analysis has not completed yet. Poll the job status and request the report again once it is done.",
		fmt.Sprintf("/api/analysis#%s", traceID),
	)

	problem.WithExtension("error_code", "REPORT_NOT_READY").
		WithExtension("trace_id", traceID).
		WithExtension("retry_after", 2)

	if details != nil {
		if details.JobID != "" {
			problem.WithExtension("job_id", details.JobID)
		}
		if details.State != "" {
			problem.WithExtension("state", details.State)
		}
		if details.StartedAt != nil {
			problem.WithExtension("started_at", details.StartedAt.Format(time.RFC3339))
		}
		if details.SheetsDone > 0 {
			problem.WithExtension("sheets_done", details.SheetsDone)
		}
		if details.ColumnsDone > 0 {
			problem.WithExtension("columns_done", details.ColumnsDone)
		}
	}

	return problem
}

// MapAnalysisError maps analysis domain errors to HTTP problem details
func MapAnalysisError(err error, traceID string) render.Renderer {
	instance := fmt.Sprintf("/api/analysis#trace-%s", traceID)

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.ErrorCode == "ANALYSIS_NOT_FOUND" {
			return NewProblemDetails(
				http.StatusNotFound,
				TypeAnalysisNotFound,
				"Analysis Not Found",
				"No analysis job exists with the given ID.",
				instance,
			).WithExtension("trace_id", traceID).
				WithExtension("error_code", "ANALYSIS_NOT_FOUND")
		}
	}

	switch {
	case errors.Is(err, ErrJobNotFound):
		return NewProblemDetails(
			http.StatusNotFound,
			TypeAnalysisNotFound,
			"Analysis Not Found",
			"No analysis job exists with the given ID.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "ANALYSIS_NOT_FOUND")

	case errors.Is(err, ErrJobRunning):
		return NewAnalysisRunningProblem(nil, traceID)

	case errors.Is(err, ErrInvalidWorkbook):
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeWorkbookInvalid,
			"Invalid Workbook",
			"The uploaded workbook could not be read. Supported formats: .xlsx, .xlsm, .csv.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "INVALID_WORKBOOK")

	case errors.Is(err, ErrWorkbookTooLarge):
		return NewProblemDetails(
			http.StatusRequestEntityTooLarge,
			TypeWorkbookTooLarge,
			"Workbook Too Large",
			"The uploaded workbook exceeds the maximum allowed size.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "WORKBOOK_TOO_LARGE")

	case errors.Is(err, ErrSheetsUnavailable):
		return NewProblemDetails(
			http.StatusServiceUnavailable,
			TypeSheetsDown,
			"Sheets Service Unavailable",
			"Unable to reach the Google Sheets API. Please try again later.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "SHEETS_UNAVAILABLE")

	case errors.Is(err, context.DeadlineExceeded):
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Analysis Timeout",
			"The analysis took too long to process and was cancelled.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "ANALYSIS_TIMEOUT")

	default:
		return NewProblemDetails(
			http.StatusInternalServerError,
			TypeInternal,
			"Internal Server Error",
			"An unexpected error occurred while processing your request.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "INTERNAL_ERROR")
	}
}
