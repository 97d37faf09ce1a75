package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJobStateTerminal(t *testing.T) {
	tests := []struct {
		name  string
		state JobState
		want  bool
	}{
		{name: "pending is not terminal", state: JobStatePending, want: false},
		{name: "running is not terminal", state: JobStateRunning, want: false},
		{name: "completed is terminal", state: JobStateCompleted, want: true},
		{name: "failed is terminal", state: JobStateFailed, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Terminal())
		})
	}
}

func TestAnalysisJobProgress(t *testing.T) {
	tests := []struct {
		name string
		job  AnalysisJob
		want int
	}{
		{
			name: "no columns yet",
			job:  AnalysisJob{State: JobStateRunning},
			want: 0,
		},
		{
			name: "half done",
			job:  AnalysisJob{State: JobStateRunning, ColumnsDone: 5, ColumnsTotal: 10},
			want: 50,
		},
		{
			name: "counters overshoot is clamped",
			job:  AnalysisJob{State: JobStateRunning, ColumnsDone: 12, ColumnsTotal: 10},
			want: 100,
		},
		{
			name: "completed reports full progress regardless of counters",
			job:  AnalysisJob{State: JobStateCompleted, ColumnsDone: 3, ColumnsTotal: 10},
			want: 100,
		},
		{
			name: "failed reports full progress",
			job:  AnalysisJob{State: JobStateFailed},
			want: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.job.Progress())
		})
	}
}

func TestGradeMAD(t *testing.T) {
	tests := []struct {
		name string
		mad  float64
		want ConformityLevel
	}{
		{name: "zero deviation is close", mad: 0, want: ConformityClose},
		{name: "at close boundary", mad: 0.006, want: ConformityClose},
		{name: "acceptable range", mad: 0.010, want: ConformityAcceptable},
		{name: "at acceptable boundary", mad: 0.012, want: ConformityAcceptable},
		{name: "marginal range", mad: 0.014, want: ConformityMarginal},
		{name: "beyond marginal is nonconforming", mad: 0.02, want: ConformityNonconforming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GradeMAD(tt.mad))
		})
	}
}

func TestAnalysisJobTimestamps(t *testing.T) {
	now := time.Now().UTC()
	job := AnalysisJob{
		ID:          "4f9d94f1-7a7e-4a52-9f5c-3f6d4d2e8b11",
		State:       JobStatePending,
		SubmittedAt: now,
	}

	assert.Nil(t, job.StartedAt)
	assert.Nil(t, job.CompletedAt)
	assert.Equal(t, now, job.SubmittedAt)
}
