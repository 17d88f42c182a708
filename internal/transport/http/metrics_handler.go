package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "invdash/internal/errors"
	"invdash/internal/services"
)

// MetricsHandler serves data directory and workbook cache statistics.
// Prometheus metrics are served separately at /metrics.
type MetricsHandler struct {
	service      *services.HealthService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(service *services.HealthService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	return &MetricsHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "metrics")),
		errorHandler: errorHandler,
	}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetStats)
	return r
}

// GetStats handles GET /api/metrics
func (h *MetricsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.SystemStats(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, stats)
}
