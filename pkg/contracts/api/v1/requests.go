// Package api contains the v1 request and response contracts for the
// BenfordLens HTTP API.
package api

import (
	"errors"
	"net/http"
	"strings"
)

// AnalysisRequest is the JSON body accepted by POST /api/analysis when
// the workbook comes from Google Sheets instead of a multipart upload.
// TopN and Formats are also honored as multipart form fields on the
// upload path.
type AnalysisRequest struct {
	SheetsID string   `json:"sheets_id" validate:"omitempty,sheetsid"`
	TopN     int      `json:"top_n" validate:"omitempty,min=1,max=100"`
	Formats  []string `json:"formats" validate:"omitempty,dive,reportformat"`
}

// Bind implements the render.Binder interface for request validation.
// Structural checks only; tag validation runs through validator/v10.
func (a *AnalysisRequest) Bind(r *http.Request) error {
	a.SheetsID = strings.TrimSpace(a.SheetsID)
	if a.SheetsID == "" {
		return errors.New("sheets_id is required when no file is uploaded")
	}
	for i, f := range a.Formats {
		a.Formats[i] = strings.ToLower(strings.TrimSpace(f))
	}
	return nil
}

// ReportDownloadRequest captures the query parameters of
// GET /api/analysis/{id}/report.
type ReportDownloadRequest struct {
	JobID  string `json:"job_id" param:"id" validate:"required,uuid"`
	Format string `json:"format" query:"format" validate:"omitempty,reportformat"`
}
