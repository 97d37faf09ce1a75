// Package events contains the event contracts broadcast over the
// WebSocket endpoint while an analysis job runs.
package events

import (
	"time"

	"benfordlens/pkg/contracts"
	"benfordlens/pkg/contracts/domain"
)

// EventType names one kind of progress event.
type EventType string

const (
	// Analysis lifecycle events, emitted in order for every job.
	EventAnalysisStarted   EventType = "analysis:started"
	EventSheetStarted      EventType = "sheet:started"
	EventColumnAnalyzed    EventType = "column:analyzed"
	EventAnalysisCompleted EventType = "analysis:completed"
	EventAnalysisFailed    EventType = "analysis:failed"

	// Connection events.
	EventConnect    EventType = "connect"
	EventDisconnect EventType = "disconnect"
	EventError      EventType = "error"
)

// Envelope is the versioned frame wrapping every broadcast message.
// Version carries the API contract version so clients can reject
// frames they do not understand.
type Envelope struct {
	Version   string      `json:"version"`
	ID        string      `json:"id,omitempty"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// NewEnvelope stamps an event payload with the current contract
// version and timestamp.
func NewEnvelope(eventType EventType, data interface{}) Envelope {
	return Envelope{
		Version:   contracts.APIVersion,
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// AnalysisStarted is the payload for analysis:started.
type AnalysisStarted struct {
	JobID      string            `json:"job_id"`
	Source     string            `json:"source"`
	SourceKind domain.SourceKind `json:"source_kind"`
	SheetCount int               `json:"sheet_count"`
	StartedAt  time.Time         `json:"started_at"`
}

// SheetStarted is the payload for sheet:started.
type SheetStarted struct {
	JobID string `json:"job_id"`
	Sheet string `json:"sheet"`
}

// ColumnAnalyzed is the payload for column:analyzed, emitted once per
// numeric column in completion order.
type ColumnAnalyzed struct {
	JobID        string                 `json:"job_id"`
	Sheet        string                 `json:"sheet"`
	Column       string                 `json:"column"`
	ColumnsDone  int                    `json:"columns_done"`
	ColumnsTotal int                    `json:"columns_total"`
	TotalValues  int                    `json:"total_values"`
	MAD          float64                `json:"mad"`
	ChiSquare    float64                `json:"chi_square"`
	Conformity   domain.ConformityLevel `json:"conformity"`
}

// AnalysisCompleted is the payload for analysis:completed.
type AnalysisCompleted struct {
	JobID       string            `json:"job_id"`
	Source      string            `json:"source"`
	SheetCount  int               `json:"sheet_count"`
	ColumnCount int               `json:"column_count"`
	TotalValues int               `json:"total_values"`
	Elapsed     time.Duration     `json:"elapsed"`
	ReportFiles map[string]string `json:"report_files,omitempty"`
}

// AnalysisFailed is the payload for analysis:failed.
type AnalysisFailed struct {
	JobID string `json:"job_id"`
	Error string `json:"error"`
}

// ErrorEvent is the payload for protocol-level errors pushed to a
// single client.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}
