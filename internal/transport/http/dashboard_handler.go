package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"invdash/internal/chart"
	apierrors "invdash/internal/errors"
	"invdash/internal/middleware"
	"invdash/internal/selection"
	"invdash/internal/services"
)

// Download content types.
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeSVG  = "image/svg+xml"
)

// Chart canvas limits in pixels.
const (
	minChartWidth  = 200
	maxChartWidth  = 4000
	minChartHeight = 150
	maxChartHeight = 3000
)

// DashboardHandler handles the dashboard's selection endpoints.
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    *middleware.ValidationMiddleware
	query        *middleware.QueryParamValidator
	defaultOrder selection.OrderType
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler. defaultOrder fills
// in requests that name no order type.
func NewDashboardHandler(service DashboardServiceInterface, defaultOrder selection.OrderType, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validator:    middleware.NewValidationMiddleware(logger, errorHandler),
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		defaultOrder: defaultOrder,
		logger:       logger.With(slog.String("handler", "dashboard")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/vocabulary", h.GetVocabulary)
		r.Get("/charts", h.GetCharts)
		r.Get("/summary", h.GetSummary)
		r.Get("/rewards", h.GetRewards)
	})

	r.Get("/chart.svg", h.GetChartSVG)
	r.Get("/export.csv", h.ExportCSV)
	r.Get("/export.xlsx", h.ExportXLSX)
	return r
}

// GetVocabulary handles GET /api/dashboard/vocabulary
func (h *DashboardHandler) GetVocabulary(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Vocabulary())
}

// GetCharts handles GET /api/dashboard/charts. view=detail answers the
// single-chart detail view, view=summary the statistics table.
func (h *DashboardHandler) GetCharts(w http.ResponseWriter, r *http.Request) {
	sel, view, ok := h.selections(w, r)
	if !ok {
		return
	}

	switch view {
	case selection.ViewSummary:
		h.summary(w, r, sel)
		return
	case selection.ViewDetail:
		report, err := h.service.Detail(r.Context(), sel)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		render.JSON(w, r, report)
	default:
		report, err := h.service.Charts(r.Context(), sel)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		render.JSON(w, r, report)
	}
}

// GetSummary handles GET /api/dashboard/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	sel, _, ok := h.selections(w, r)
	if !ok {
		return
	}
	h.summary(w, r, sel)
}

func (h *DashboardHandler) summary(w http.ResponseWriter, r *http.Request, sel selection.Selections) {
	report, err := h.service.Summary(r.Context(), sel)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// GetRewards handles GET /api/dashboard/rewards
func (h *DashboardHandler) GetRewards(w http.ResponseWriter, r *http.Request) {
	sel, _, ok := h.selections(w, r)
	if !ok {
		return
	}
	report, err := h.service.Rewards(r.Context(), sel)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// GetChartSVG handles GET /api/dashboard/chart.svg
func (h *DashboardHandler) GetChartSVG(w http.ResponseWriter, r *http.Request) {
	sel, _, ok := h.selections(w, r)
	if !ok {
		return
	}
	width, ok := h.query.ValidateInt(w, r, "width", minChartWidth, maxChartWidth, chart.DefaultWidth)
	if !ok {
		return
	}
	height, ok := h.query.ValidateInt(w, r, "height", minChartHeight, maxChartHeight, chart.DefaultHeight)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.service.ChartSVG(r.Context(), sel, services.SVGOptions{Width: width, Height: height}, &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.write(w, r, ContentTypeSVG, "", buf.Bytes())
}

// ExportCSV handles GET /api/dashboard/export.csv?kind=charts|summary|rewards|skipped
func (h *DashboardHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	sel, _, ok := h.selections(w, r)
	if !ok {
		return
	}
	kind, ok := h.query.ValidateEnum(w, r, "kind", services.ExportKinds, services.ExportSummary)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.service.ExportCSV(r.Context(), sel, kind, &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.write(w, r, ContentTypeCSV, services.ExportFileName(kind, "csv"), buf.Bytes())
}

// ExportXLSX handles GET /api/dashboard/export.xlsx
func (h *DashboardHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	sel, _, ok := h.selections(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.service.ExportXLSX(r.Context(), sel, &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.write(w, r, ContentTypeXLSX, services.ExportFileName("report", "xlsx"), buf.Bytes())
}

// selections parses the request's selection and answers it on failure.
func (h *DashboardHandler) selections(w http.ResponseWriter, r *http.Request) (selection.Selections, selection.View, bool) {
	sel, view, err := h.validator.Selections(r, h.defaultOrder)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return selection.Selections{}, "", false
	}
	return sel, view, true
}

// write sends a rendered body. Bodies are buffered so a failure halfway
// through still gets a problem response instead of a truncated download.
func (h *DashboardHandler) write(w http.ResponseWriter, r *http.Request, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write response body",
			slog.String("content_type", contentType),
			slog.String("error", err.Error()))
	}
}
