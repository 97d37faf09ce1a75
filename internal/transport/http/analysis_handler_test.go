package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benfordlens/internal/benford"
	apierrors "benfordlens/internal/errors"
	"benfordlens/internal/middleware"
	"benfordlens/internal/services"
	api "benfordlens/pkg/contracts/api/v1"
	"benfordlens/pkg/contracts/domain"
)

const validSheetsID = "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms"

// stubAnalysisService returns canned answers and records arguments.
type stubAnalysisService struct {
	submitUploadFn func(ctx context.Context, fileName string, r io.Reader, topN int, formats []string) (domain.AnalysisJob, error)
	submitSheetsFn func(ctx context.Context, spreadsheetID string, topN int, formats []string) (domain.AnalysisJob, error)
	getJobFn       func(ctx context.Context, jobID string) (domain.AnalysisJob, error)
	jobResultFn    func(ctx context.Context, jobID string) (*benford.Result, error)
	reportPathFn   func(ctx context.Context, jobID, format string) (string, string, error)
	listJobsFn     func(ctx context.Context) []domain.AnalysisJob
}

func (s *stubAnalysisService) SubmitUpload(ctx context.Context, fileName string, r io.Reader, topN int, formats []string) (domain.AnalysisJob, error) {
	if s.submitUploadFn != nil {
		return s.submitUploadFn(ctx, fileName, r, topN, formats)
	}
	return domain.AnalysisJob{}, nil
}

func (s *stubAnalysisService) SubmitSheets(ctx context.Context, spreadsheetID string, topN int, formats []string) (domain.AnalysisJob, error) {
	if s.submitSheetsFn != nil {
		return s.submitSheetsFn(ctx, spreadsheetID, topN, formats)
	}
	return domain.AnalysisJob{}, nil
}

func (s *stubAnalysisService) GetJob(ctx context.Context, jobID string) (domain.AnalysisJob, error) {
	if s.getJobFn != nil {
		return s.getJobFn(ctx, jobID)
	}
	return domain.AnalysisJob{}, nil
}

func (s *stubAnalysisService) JobResult(ctx context.Context, jobID string) (*benford.Result, error) {
	if s.jobResultFn != nil {
		return s.jobResultFn(ctx, jobID)
	}
	return nil, nil
}

func (s *stubAnalysisService) ReportPath(ctx context.Context, jobID, format string) (string, string, error) {
	if s.reportPathFn != nil {
		return s.reportPathFn(ctx, jobID, format)
	}
	return "", "", nil
}

func (s *stubAnalysisService) ListJobs(ctx context.Context) []domain.AnalysisJob {
	if s.listJobsFn != nil {
		return s.listJobsFn(ctx)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAnalysisRouter(svc AnalysisServiceInterface) http.Handler {
	logger := discardLogger()
	vm := middleware.NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false))
	h := NewAnalysisHandler(svc, vm, logger)

	r := chi.NewRouter()
	r.Mount("/api/analysis", h.Routes())
	return r
}

// multipartBody builds a multipart request body with an optional file
// part and extra form fields.
func multipartBody(t *testing.T, fileName, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestSubmitUploadAccepted(t *testing.T) {
	var gotName string
	var gotTopN int
	var gotFormats []string

	svc := &stubAnalysisService{
		submitUploadFn: func(ctx context.Context, fileName string, r io.Reader, topN int, formats []string) (domain.AnalysisJob, error) {
			gotName = fileName
			gotTopN = topN
			gotFormats = formats
			io.Copy(io.Discard, r)
			return domain.AnalysisJob{
				ID:         "11111111-2222-3333-4444-555555555555",
				State:      domain.JobStatePending,
				Source:     fileName,
				SourceKind: domain.SourceKindUpload,
			}, nil
		},
	}
	router := newAnalysisRouter(svc)

	body, contentType := multipartBody(t, "ledger.csv", "amount\n123\n", map[string]string{
		"top_n":   "5",
		"formats": "markdown,excel",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/analysis", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp api.AnalysisAccepted
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", resp.JobID)
	assert.Equal(t, domain.JobStatePending, resp.State)
	assert.Equal(t, "/api/analysis/11111111-2222-3333-4444-555555555555", resp.PollURL)

	assert.Equal(t, "ledger.csv", gotName)
	assert.Equal(t, 5, gotTopN)
	assert.Equal(t, []string{"markdown", "excel"}, gotFormats)
}

func TestSubmitUploadMissingFilePart(t *testing.T) {
	router := newAnalysisRouter(&stubAnalysisService{})

	body, contentType := multipartBody(t, "", "", map[string]string{"top_n": "5"})
	req := httptest.NewRequest(http.MethodPost, "/api/analysis", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitUploadBadTopN(t *testing.T) {
	router := newAnalysisRouter(&stubAnalysisService{})

	body, contentType := multipartBody(t, "ledger.csv", "amount\n1\n", map[string]string{"top_n": "many"})
	req := httptest.NewRequest(http.MethodPost, "/api/analysis", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitUploadBadFormat(t *testing.T) {
	router := newAnalysisRouter(&stubAnalysisService{})

	body, contentType := multipartBody(t, "ledger.csv", "amount\n1\n", map[string]string{"formats": "pdf"})
	req := httptest.NewRequest(http.MethodPost, "/api/analysis", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitUploadServiceError(t *testing.T) {
	svc := &stubAnalysisService{
		submitUploadFn: func(ctx context.Context, fileName string, r io.Reader, topN int, formats []string) (domain.AnalysisJob, error) {
			return domain.AnalysisJob{}, apierrors.ErrWorkbookTooLarge
		},
	}
	router := newAnalysisRouter(svc)

	body, contentType := multipartBody(t, "huge.csv", strings.Repeat("9", 1024), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/analysis", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "/errors/workbook/too-large")
}

func TestSubmitSheetsAccepted(t *testing.T) {
	var gotID string
	svc := &stubAnalysisService{
		submitSheetsFn: func(ctx context.Context, spreadsheetID string, topN int, formats []string) (domain.AnalysisJob, error) {
			gotID = spreadsheetID
			return domain.AnalysisJob{
				ID:         "99999999-8888-7777-6666-555555555555",
				State:      domain.JobStatePending,
				Source:     spreadsheetID,
				SourceKind: domain.SourceKindSheets,
			}, nil
		},
	}
	router := newAnalysisRouter(svc)

	payload := `{"sheets_id":"` + validSheetsID + `","top_n":10}`
	req := httptest.NewRequest(http.MethodPost, "/api/analysis", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, validSheetsID, gotID)
}

func TestSubmitSheetsMissingID(t *testing.T) {
	router := newAnalysisRouter(&stubAnalysisService{})

	req := httptest.NewRequest(http.MethodPost, "/api/analysis", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "sheets_id")
}

func TestSubmitSheetsInvalidID(t *testing.T) {
	router := newAnalysisRouter(&stubAnalysisService{})

	req := httptest.NewRequest(http.MethodPost, "/api/analysis", strings.NewReader(`{"sheets_id":"short"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusCompleted(t *testing.T) {
	completed := time.Now().UTC()
	svc := &stubAnalysisService{
		getJobFn: func(ctx context.Context, jobID string) (domain.AnalysisJob, error) {
			return domain.AnalysisJob{
				ID:           jobID,
				State:        domain.JobStateCompleted,
				Source:       "ledger.csv",
				SourceKind:   domain.SourceKindUpload,
				CompletedAt:  &completed,
				ColumnsDone:  2,
				ColumnsTotal: 2,
			}, nil
		},
		jobResultFn: func(ctx context.Context, jobID string) (*benford.Result, error) {
			return &benford.Result{Source: "ledger.csv", TotalValues: 20}, nil
		},
	}
	router := newAnalysisRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/analysis/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp["state"])
	assert.Equal(t, float64(100), resp["progress"])
	require.Contains(t, resp, "result")
}

func TestStatusNotFound(t *testing.T) {
	svc := &stubAnalysisService{
		getJobFn: func(ctx context.Context, jobID string) (domain.AnalysisJob, error) {
			return domain.AnalysisJob{}, apierrors.ErrJobNotFound
		},
	}
	router := newAnalysisRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/analysis/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "/errors/analysis/not-found")
}

func TestListJobs(t *testing.T) {
	svc := &stubAnalysisService{
		listJobsFn: func(ctx context.Context) []domain.AnalysisJob {
			return []domain.AnalysisJob{
				{ID: "b", State: domain.JobStateRunning},
				{ID: "a", State: domain.JobStateCompleted},
			}
		},
	}
	router := newAnalysisRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/analysis", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp["count"])
}

func TestDownloadReport(t *testing.T) {
	dir := t.TempDir()
	name := "benford_report_ledger_20250714_103000.md"
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("# Benford Report\n"), 0o644))

	svc := &stubAnalysisService{
		reportPathFn: func(ctx context.Context, jobID, format string) (string, string, error) {
			assert.Equal(t, "markdown", format)
			return path, name, nil
		},
	}
	router := newAnalysisRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/analysis/abc/report?format=markdown", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), name)
	assert.Contains(t, rec.Body.String(), "# Benford Report")
}

func TestDownloadReportInvalidFormat(t *testing.T) {
	router := newAnalysisRouter(&stubAnalysisService{})

	req := httptest.NewRequest(http.MethodGet, "/api/analysis/abc/report?format=pdf", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadReportStillRunning(t *testing.T) {
	svc := &stubAnalysisService{
		reportPathFn: func(ctx context.Context, jobID, format string) (string, string, error) {
			return "", "", apierrors.ErrJobRunning
		},
	}
	router := newAnalysisRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/analysis/abc/report", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "/errors/analysis/still-running")
}

func TestDownloadReportFormatNeverRendered(t *testing.T) {
	svc := &stubAnalysisService{
		reportPathFn: func(ctx context.Context, jobID, format string) (string, string, error) {
			return "", "", services.ErrReportNotFound
		},
	}
	router := newAnalysisRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/analysis/abc/report?format=excel", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Report Not Found")
}
