// Package domain defines the core entities shared between the analysis
// service, the HTTP API, and WebSocket consumers.
package domain

import (
	"time"
)

// JobState tracks an analysis job through its lifecycle.
type JobState string

const (
	JobStatePending   JobState = "pending"
	JobStateRunning   JobState = "running"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
)

// Terminal reports whether the state admits no further transitions.
func (s JobState) Terminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// SourceKind identifies where a job's workbook came from.
type SourceKind string

const (
	SourceKindUpload SourceKind = "upload"
	SourceKindSheets SourceKind = "sheets"
	SourceKindPath   SourceKind = "path"
)

// AnalysisJob is the public view of one asynchronous analysis
// invocation. The service keeps the authoritative copy behind its
// store lock; handlers and WebSocket events serialize snapshots.
type AnalysisJob struct {
	ID          string     `json:"id" validate:"required,uuid"`
	State       JobState   `json:"state"`
	Source      string     `json:"source"` // file name or spreadsheet ID
	SourceKind  SourceKind `json:"source_kind"`
	TopN        int        `json:"top_n"`
	Formats     []string   `json:"formats"`
	SubmittedAt time.Time  `json:"submitted_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`

	// Progress counters, updated while the job is running.
	SheetCount   int `json:"sheet_count"`
	ColumnsDone  int `json:"columns_done"`
	ColumnsTotal int `json:"columns_total"`

	// Artifacts produced by a completed job, keyed by report format.
	ReportFiles map[string]string `json:"report_files,omitempty"`
	ExportFiles []string          `json:"export_files,omitempty"`
}

// Progress returns job completion as a 0-100 percentage. Terminal jobs
// always report 100 so pollers can stop without comparing counters.
func (j *AnalysisJob) Progress() int {
	if j.State.Terminal() {
		return 100
	}
	if j.ColumnsTotal <= 0 {
		return 0
	}
	p := j.ColumnsDone * 100 / j.ColumnsTotal
	if p > 100 {
		p = 100
	}
	return p
}

// ConformityLevel grades a column's MAD against the ranges commonly
// used for Benford screening (Nigrini's thresholds for first digits).
type ConformityLevel string

const (
	ConformityClose         ConformityLevel = "close"
	ConformityAcceptable    ConformityLevel = "acceptable"
	ConformityMarginal      ConformityLevel = "marginal"
	ConformityNonconforming ConformityLevel = "nonconforming"
)

// MAD thresholds for first-digit conformity grading.
const (
	MADCloseMax      = 0.006
	MADAcceptableMax = 0.012
	MADMarginalMax   = 0.015
)

// GradeMAD maps a mean absolute deviation onto a conformity level.
func GradeMAD(mad float64) ConformityLevel {
	switch {
	case mad <= MADCloseMax:
		return ConformityClose
	case mad <= MADAcceptableMax:
		return ConformityAcceptable
	case mad <= MADMarginalMax:
		return ConformityMarginal
	default:
		return ConformityNonconforming
	}
}
