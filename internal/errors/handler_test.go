package errors

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(includeStack bool) *ErrorHandler {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewErrorHandler(logger, includeStack)
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	return decoded
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "api error",
			err:        AnalysisNotFoundError("job-1"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "plain not found",
			err:        errors.New("report file not found"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "still running",
			err:        errors.New("analysis still running"),
			wantStatus: http.StatusConflict,
			wantType:   TypeAnalysisRunning,
		},
		{
			name:       "unsupported workbook",
			err:        errors.New("unsupported workbook format: .ods"),
			wantStatus: http.StatusUnsupportedMediaType,
			wantType:   TypeWorkbookInvalid,
		},
		{
			name:       "too large",
			err:        errors.New("upload too large"),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
		},
		{
			name:       "rate limit",
			err:        errors.New("rate limit exceeded for client"),
			wantStatus: http.StatusTooManyRequests,
			wantType:   TypeRateLimit,
		},
		{
			name:       "generic",
			err:        errors.New("something broke"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestHandler(false)
			w := httptest.NewRecorder()
			r := httptest.NewRequest("GET", "/api/analysis/job-1", nil)

			handler.HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)

			decoded := decodeProblem(t, w)
			assert.Equal(t, tt.wantType, decoded["type"])
			assert.Equal(t, float64(tt.wantStatus), decoded["status"])
		})
	}
}

func TestHandleErrorNil(t *testing.T) {
	handler := newTestHandler(false)
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)

	handler.HandleError(w, r, nil)

	assert.Empty(t, w.Body.String())
}

func TestHandleErrorIncludesDetails(t *testing.T) {
	handler := newTestHandler(false)
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/analysis/job-9", nil)

	handler.HandleError(w, r, AnalysisNotFoundError("job-9"))

	decoded := decodeProblem(t, w)
	assert.Equal(t, "ANALYSIS_NOT_FOUND", decoded["error_code"])
	assert.Equal(t, "job-9", decoded["details"])
	assert.Equal(t, "/api/analysis/job-9", decoded["instance"])
}

func TestHandleErrorStackTrace(t *testing.T) {
	handler := newTestHandler(true)
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)

	handler.HandleError(w, r, errors.New("boom"))

	decoded := decodeProblem(t, w)
	stack, ok := decoded["stack"].(string)
	require.True(t, ok)
	assert.Contains(t, stack, "goroutine")
}

func TestHandlePanic(t *testing.T) {
	handler := newTestHandler(false)
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/analysis", nil)

	handler.HandlePanic(w, r, "unexpected state")

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	decoded := decodeProblem(t, w)
	assert.Equal(t, TypeInternal, decoded["type"])
	_, hasPanic := decoded["panic"]
	assert.False(t, hasPanic)
}

func TestHandlePanicWithStack(t *testing.T) {
	handler := newTestHandler(true)
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/analysis", nil)

	handler.HandlePanic(w, r, "unexpected state")

	decoded := decodeProblem(t, w)
	assert.Equal(t, "unexpected state", decoded["panic"])
}

func TestNotFoundHandler(t *testing.T) {
	handler := newTestHandler(false)
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/missing", nil)

	handler.NotFound(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
	decoded := decodeProblem(t, w)
	assert.Equal(t, TypeNotFound, decoded["type"])
}

func TestMethodNotAllowedHandler(t *testing.T) {
	handler := newTestHandler(false)
	w := httptest.NewRecorder()
	r := httptest.NewRequest("DELETE", "/api/health", nil)

	handler.MethodNotAllowed(w, r)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	decoded := decodeProblem(t, w)
	assert.Contains(t, decoded["detail"], "DELETE")
}

func TestMiddlewareRecoversPanic(t *testing.T) {
	handler := newTestHandler(false)

	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/panic", nil)

	handler.Middleware(panicking).ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	decoded := decodeProblem(t, w)
	assert.Equal(t, TypeInternal, decoded["type"])
}

func TestMiddlewarePassesThrough(t *testing.T) {
	handler := newTestHandler(false)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/ok", nil)

	handler.Middleware(ok).ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestErrorToProblemAPIErrorMapping(t *testing.T) {
	handler := newTestHandler(false)
	r := httptest.NewRequest("GET", "/api/analysis", nil)

	tests := []struct {
		code     string
		apiErr   *APIError
		wantType string
	}{
		{"validation", ErrValidationFailed, TypeValidation},
		{"not ready", ErrReportNotReady, TypeConflict},
		{"unsupported", ErrUnsupportedWorkbook, TypeWorkbookInvalid},
		{"failed", ErrAnalysisFailed, TypeAnalysisFailed},
		{"unavailable", ErrServiceUnavailable, TypeServiceDown},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			problem := handler.ErrorToProblem(tt.apiErr, r)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, tt.apiErr.StatusCode, problem.Status)
		})
	}
}
