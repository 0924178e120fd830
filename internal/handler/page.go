package handler

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// pageData is passed to the recipe page template
type pageData struct {
	Title   string
	APIBase string
}

// RecipePage handles GET /recipe and renders the shell page the frontend
// app mounts into.
func RecipePage(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, "recipe.html", pageData{
		Title:   "Recipes",
		APIBase: "/api",
	}); err != nil {
		slog.Error("failed to render recipe page", slog.String("error", err.Error()))
		WriteError(w, MapServiceErrorWithContext(err, "render recipe page"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
