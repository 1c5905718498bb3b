package api

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/phrazzld/jobscout-api/internal/platform/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// pageData is the data of every page template.
type pageData struct {
	Title       string
	MaxUploadMB int
	Email       string
}

// renderPage writes the named page. The page is rendered into a buffer so
// a template failure can still produce a 500.
func renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			ErrorContext(r.Context(), "failed to render page", "page", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// SuccessPage serves GET /success.
func SuccessPage(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, http.StatusOK, "success.html", pageData{Title: "You're subscribed"})
}

// ErrorPage serves GET /error.
func ErrorPage(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, http.StatusOK, "error.html", pageData{Title: "Something went wrong"})
}
