package http

import (
	_ "embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/view"
)

//go:embed templates/index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

// GetIndex handles GET / and renders the current board server-side. The page
// script then drives actions through /api and re-renders from their responses.
func (h *Handler) GetIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderIndex(w, h.board.Snapshot()); err != nil {
		loggerFrom(r, h.logger).Error("render index", zap.Error(err))
	}
}

func renderIndex(w http.ResponseWriter, snap view.Snapshot) error {
	return indexTemplate.Execute(w, snap)
}
