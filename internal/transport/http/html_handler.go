package http

import (
	"bytes"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
)

// PageData fills the dashboard page template
type PageData struct {
	Title       string
	Description string
	Version     string
	ChartCDN    string
}

// PageHandler serves the dashboard page and its static assets from a
// filesystem, usually the one embedded in the binary
type PageHandler struct {
	files  fs.FS
	page   *template.Template
	data   PageData
	logger *slog.Logger
}

// NewPageHandler parses index.html from files as a template
func NewPageHandler(files fs.FS, data PageData, logger *slog.Logger) (*PageHandler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	page, err := template.ParseFS(files, "index.html")
	if err != nil {
		return nil, err
	}

	return &PageHandler{
		files:  files,
		page:   page,
		data:   data,
		logger: logger.With(slog.String("handler", "page")),
	}, nil
}

// ServeIndex renders the dashboard page
func (h *PageHandler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.page.Execute(&buf, h.data); err != nil {
		h.logger.ErrorContext(r.Context(), "page render failed", slog.String("error", err.Error()))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = buf.WriteTo(w)
}

// ServeAsset serves one static file. Directories and the page template are
// not listed.
func (h *PageHandler) ServeAsset(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" || name == "index.html" {
		h.ServeIndex(w, r)
		return
	}

	info, err := fs.Stat(h.files, name)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFileFS(w, r, h.files, name)
}
