package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "benfordlens/internal/errors"
	"benfordlens/internal/services"
)

// MetricsHandler exposes runtime statistics as JSON. Prometheus
// metrics are served separately at /metrics by the OTel exporter.
type MetricsHandler struct {
	service *services.HealthService
	logger  *slog.Logger
}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler(service *services.HealthService, logger *slog.Logger) *MetricsHandler {
	return &MetricsHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "metrics")),
	}
}

// Routes sets up the stats routes.
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetStats)
	return r
}

// GetStats returns runtime statistics: uptime, data volume, WebSocket
// clients, and analysis activity.
func (h *MetricsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.SystemStats(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to collect system stats",
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewProblemDetails(
			http.StatusInternalServerError,
			apierrors.TypeInternal,
			"Stats Unavailable",
			"Runtime statistics could not be collected.",
			r.URL.Path,
		))
		return
	}
	render.JSON(w, r, stats)
}
