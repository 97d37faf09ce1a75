package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apierrors "benfordlens/internal/errors"
	"benfordlens/internal/infrastructure"
	"benfordlens/internal/middleware"
	"benfordlens/internal/report"
	"benfordlens/internal/services"
	api "benfordlens/pkg/contracts/api/v1"
	"benfordlens/pkg/contracts/domain"
)

// multipartMemoryLimit is the in-memory threshold for parsing uploads;
// larger parts spill to temporary files.
const multipartMemoryLimit = 32 << 20

// AnalysisHandler handles analysis job HTTP requests.
type AnalysisHandler struct {
	service      AnalysisServiceInterface
	validation   *middleware.ValidationMiddleware
	queryParams  *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(service AnalysisServiceInterface, validation *middleware.ValidationMiddleware, logger *slog.Logger) *AnalysisHandler {
	errorHandler := apierrors.NewErrorHandler(logger, false)
	return &AnalysisHandler{
		service:      service,
		validation:   validation,
		queryParams:  middleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("handler", "analysis")),
		errorHandler: errorHandler,
	}
}

// Routes sets up the analysis routes.
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Submit)
	r.Get("/", h.List)
	r.Get("/{id}", h.Status)
	r.Get("/{id}/report", h.DownloadReport)
	return r
}

// Submit handles POST /api/analysis. A multipart body carries a
// workbook upload in the "file" part; a JSON body names a Google Sheets
// spreadsheet. Both return 202 with the job to poll.
func (h *AnalysisHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("analysis-handler")

	ctx, span := tracer.Start(ctx, "analysis_handler.submit",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/analysis"),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()
	r = r.WithContext(ctx)

	h.logger.InfoContext(ctx, "analysis submission received",
		slog.String("request_id", reqID),
		slog.String("content_type", r.Header.Get("Content-Type")))

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		h.submitUpload(w, r, span)
		return
	}
	h.submitSheets(w, r, span)
}

// submitUpload queues an uploaded workbook for analysis.
func (h *AnalysisHandler) submitUpload(w http.ResponseWriter, r *http.Request, span trace.Span) {
	ctx := r.Context()
	span.SetAttributes(attribute.String("analysis.source_kind", string(domain.SourceKindUpload)))

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "multipart parse failed")
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		span.RecordError(err)
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "a workbook file part is required"))
		return
	}
	defer file.Close()

	topN, ok := h.formInt(w, r, "top_n")
	if !ok {
		return
	}
	formats, ok := h.formFormats(w, r)
	if !ok {
		return
	}

	span.SetAttributes(
		attribute.String("analysis.file", header.Filename),
		attribute.Int64("analysis.file_size", header.Size),
	)

	job, err := h.service.SubmitUpload(ctx, header.Filename, file, topN, formats)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload submission failed")
		h.logger.ErrorContext(ctx, "upload submission failed",
			slog.String("file", header.Filename),
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.MapAnalysisError(err, infrastructure.TraceIDFromContext(ctx)))
		return
	}

	h.accepted(w, r, span, job)
}

// submitSheets queues a Google Sheets spreadsheet for analysis.
func (h *AnalysisHandler) submitSheets(w http.ResponseWriter, r *http.Request, span trace.Span) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	span.SetAttributes(attribute.String("analysis.source_kind", string(domain.SourceKindSheets)))

	data := &api.AnalysisRequest{}
	if err := render.Bind(r, data); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "request_validation"))

		problem := apierrors.NewProblemDetails(
			http.StatusBadRequest,
			apierrors.TypeValidation,
			"Validation Failed",
			err.Error(),
			r.URL.Path+"#"+reqID,
		).WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx))

		render.Render(w, r, problem)
		return
	}
	if h.validation != nil {
		if err := h.validation.ValidateStruct(data); err != nil {
			span.RecordError(err)
			h.errorHandler.HandleError(w, r, err)
			return
		}
	}

	span.SetAttributes(attribute.String("analysis.sheets_id", data.SheetsID))

	job, err := h.service.SubmitSheets(ctx, data.SheetsID, data.TopN, data.Formats)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sheets submission failed")
		h.logger.ErrorContext(ctx, "sheets submission failed",
			slog.String("sheets_id", data.SheetsID),
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.MapAnalysisError(err, infrastructure.TraceIDFromContext(ctx)))
		return
	}

	h.accepted(w, r, span, job)
}

// Status handles GET /api/analysis/{id}. Completed jobs carry the full
// result inline.
func (h *AnalysisHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "id")

	job, err := h.service.GetJob(ctx, jobID)
	if err != nil {
		render.Render(w, r, apierrors.MapAnalysisError(err, infrastructure.TraceIDFromContext(ctx)))
		return
	}

	resp := api.JobStatusResponse{
		AnalysisJob: job,
		Progress:    job.Progress(),
	}
	if job.State == domain.JobStateCompleted {
		if result, resultErr := h.service.JobResult(ctx, jobID); resultErr == nil {
			resp.Result = result
		}
	}
	render.JSON(w, r, resp)
}

// List handles GET /api/analysis.
func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.service.ListJobs(r.Context())

	responses := make([]api.JobStatusResponse, 0, len(jobs))
	for i := range jobs {
		responses = append(responses, api.JobStatusResponse{
			AnalysisJob: jobs[i],
			Progress:    jobs[i].Progress(),
		})
	}
	render.JSON(w, r, map[string]interface{}{
		"jobs":  responses,
		"count": len(responses),
	})
}

// DownloadReport handles GET /api/analysis/{id}/report. The format
// query picks the rendered file; it defaults to markdown.
func (h *AnalysisHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "id")

	format, ok := h.queryParams.ValidateEnum(w, r, "format",
		[]string{report.FormatMarkdown, report.FormatExcel}, "")
	if !ok {
		return
	}

	path, name, err := h.service.ReportPath(ctx, jobID, format)
	if err != nil {
		traceID := infrastructure.TraceIDFromContext(ctx)
		if errors.Is(err, services.ErrReportNotFound) {
			problem := apierrors.NewProblemDetails(
				http.StatusNotFound,
				apierrors.TypeNotFound,
				"Report Not Found",
				"The job has no rendered report for the requested format.",
				fmt.Sprintf("/api/analysis/%s/report", jobID),
			).WithExtension("trace_id", traceID).
				WithExtension("format", format)
			render.Render(w, r, problem)
			return
		}
		render.Render(w, r, apierrors.MapAnalysisError(err, traceID))
		return
	}

	h.logger.InfoContext(ctx, "report download",
		slog.String("job_id", jobID),
		slog.String("file", name))

	w.Header().Set("Content-Type", reportContentType(name))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

// accepted writes the 202 response for a queued job.
func (h *AnalysisHandler) accepted(w http.ResponseWriter, r *http.Request, span trace.Span, job domain.AnalysisJob) {
	span.SetAttributes(attribute.String("analysis.job_id", job.ID))

	h.logger.InfoContext(r.Context(), "analysis job accepted",
		slog.String("job_id", job.ID),
		slog.String("source", job.Source),
		slog.String("source_kind", string(job.SourceKind)))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, api.AnalysisAccepted{
		JobID:   job.ID,
		State:   job.State,
		Message: "Analysis queued for processing",
		PollURL: "/api/analysis/" + job.ID,
	})
}

// formInt parses an optional positive integer form field. A missing
// field yields zero, which lets the service apply its default.
func (h *AnalysisHandler) formInt(w http.ResponseWriter, r *http.Request, field string) (int, bool) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 100 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(field,
			fmt.Sprintf("%s must be an integer between 1 and 100", field)))
		return 0, false
	}
	return n, true
}

// formFormats parses the optional formats form field, accepting
// repeated fields and comma-separated lists.
func (h *AnalysisHandler) formFormats(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var formats []string
	for _, raw := range r.Form["formats"] {
		for _, part := range strings.Split(raw, ",") {
			f := strings.ToLower(strings.TrimSpace(part))
			if f == "" {
				continue
			}
			switch f {
			case report.FormatMarkdown, report.FormatExcel, report.FormatSummary:
				formats = append(formats, f)
			default:
				h.errorHandler.HandleError(w, r, apierrors.ErrValidation("formats",
					"formats must be one of: markdown, excel, summary"))
				return nil, false
			}
		}
	}
	return formats, true
}

// reportContentType maps a rendered report file to its MIME type.
func reportContentType(name string) string {
	switch filepath.Ext(name) {
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
