package http

import (
	"net/http"

	"github.com/go-chi/render"
)

// MetricsHandler exposes the Prometheus scrape endpoint. It answers 503 while
// the metrics exporter is disabled.
type MetricsHandler struct {
	scrape http.Handler
}

// NewMetricsHandler wraps the exporter's scrape handler, which may be nil
func NewMetricsHandler(scrape http.Handler) *MetricsHandler {
	return &MetricsHandler{scrape: scrape}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.scrape == nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]interface{}{
			"status":  "disabled",
			"message": "metrics exporter is not enabled",
		})
		return
	}
	h.scrape.ServeHTTP(w, r)
}
