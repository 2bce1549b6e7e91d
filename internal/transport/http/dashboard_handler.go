package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shipdash/internal/analytics"
	apierrors "shipdash/internal/errors"
	"shipdash/internal/services"
)

// maxEntityLength bounds the company name accepted in a URL
const maxEntityLength = 128

type entityCtxKey struct{}

// DashboardHandler serves the chart payloads and downloads of the dashboard
type DashboardHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler

	viewMiddleware   []func(http.Handler) http.Handler
	exportMiddleware []func(http.Handler) http.Handler
}

// NewDashboardHandler creates a new dashboard handler with RFC 7807 error handling
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// WithViewMiddleware adds middleware to the JSON view routes only
func (h *DashboardHandler) WithViewMiddleware(mw ...func(http.Handler) http.Handler) *DashboardHandler {
	h.viewMiddleware = append(h.viewMiddleware, mw...)
	return h
}

// WithExportMiddleware adds middleware to the download route only
func (h *DashboardHandler) WithExportMiddleware(mw ...func(http.Handler) http.Handler) *DashboardHandler {
	h.exportMiddleware = append(h.exportMiddleware, mw...)
	return h
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Group(func(r chi.Router) {
		r.Use(h.viewMiddleware...)

		r.Get("/entities", h.GetEntities)
		r.Get("/trend", h.GetTrend)
		r.Get("/correlation", h.GetCorrelation)
		r.Get("/predictions", h.GetPredictions)

		r.Route("/prediction/{entity}", func(r chi.Router) {
			r.Use(h.EntityCtx)
			r.Get("/", h.GetPrediction)
		})
	})

	r.With(h.exportMiddleware...).Get("/export/{view}.{format}", h.Export)

	return r
}

// EntityCtx validates the entity URL parameter and stores it in the context
func (h *DashboardHandler) EntityCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entity := chi.URLParam(r, "entity")
		if decoded, err := url.PathUnescape(entity); err == nil {
			entity = decoded
		}
		entity = strings.TrimSpace(entity)

		if entity == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("entity", "Company name is required"))
			return
		}
		if len(entity) > maxEntityLength {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("entity",
				fmt.Sprintf("Company name must be at most %d characters", maxEntityLength)))
			return
		}

		ctx := context.WithValue(r.Context(), entityCtxKey{}, entity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func entityFromContext(r *http.Request) string {
	if entity, ok := r.Context().Value(entityCtxKey{}).(string); ok {
		return entity
	}
	return chi.URLParam(r, "entity")
}

// GetEntities handles GET /api/dashboard/entities
func (h *DashboardHandler) GetEntities(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Entities(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
		"count":  len(view.Entities),
	})
}

// GetTrend handles GET /api/dashboard/trend
func (h *DashboardHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Trend(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
	})
}

// GetCorrelation handles GET /api/dashboard/correlation?align=listwise|pairwise
func (h *DashboardHandler) GetCorrelation(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Correlation(r.Context(), r.URL.Query().Get("align"))
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
	})
}

// GetPrediction handles GET /api/dashboard/prediction/{entity}
func (h *DashboardHandler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	entity := entityFromContext(r)

	h.logger.DebugContext(r.Context(), "fetching prediction",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("entity", entity))

	view, err := h.service.Prediction(r.Context(), entity)
	if err != nil {
		h.handleServiceError(w, r, err, entity)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
	})
}

// GetPredictions handles GET /api/dashboard/predictions
func (h *DashboardHandler) GetPredictions(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Predictions(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   overview,
		"count":  len(overview.Entries),
	})
}

// Export handles GET /api/dashboard/export/{view}.{format}?entity=&align=
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := services.ExportRequest{
		View:      chi.URLParam(r, "view"),
		Format:    chi.URLParam(r, "format"),
		Entity:    query.Get("entity"),
		Alignment: query.Get("align"),
	}

	// Headers are only written once the whole file is rendered
	var buf bytes.Buffer
	info, err := h.service.Export(r.Context(), &buf, req)
	if err != nil {
		if !isMappedError(err) && !isContextError(err) {
			err = apierrors.ExportFailedError(err)
		}
		h.handleServiceError(w, r, err, strings.TrimSpace(req.Entity))
		return
	}

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)

	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export write interrupted",
			slog.String("file", info.Filename),
			slog.String("error", err.Error()))
	}
}

// handleServiceError maps service errors to API errors
func (h *DashboardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, entity string) {
	var noHistory *analytics.NoHistoryError

	switch {
	case errors.Is(err, services.ErrEntityNotFound):
		h.errorHandler.HandleError(w, r, apierrors.EntityNotFoundError(entity))
	case errors.As(err, &noHistory):
		if noHistory.Entity != "" {
			entity = noHistory.Entity
		}
		h.errorHandler.HandleError(w, r, apierrors.NoHistoryError(entity))
	case errors.Is(err, services.ErrInvalidAlignment):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("align", err.Error()))
	case errors.Is(err, services.ErrUnknownView):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("view", err.Error()))
	case errors.Is(err, services.ErrInvalidFormat):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", err.Error()))
	case errors.Is(err, services.ErrInvalidInput):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("entity", err.Error()))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

func isMappedError(err error) bool {
	return errors.Is(err, services.ErrEntityNotFound) ||
		errors.Is(err, analytics.ErrNoHistory) ||
		errors.Is(err, services.ErrInvalidAlignment) ||
		errors.Is(err, services.ErrUnknownView) ||
		errors.Is(err, services.ErrInvalidFormat) ||
		errors.Is(err, services.ErrInvalidInput)
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
