package main

import (
	"html/template"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/patrickward/vesper"
	"github.com/patrickward/vesper/internal/rendering"
)

// previewData is passed to the preview page template
type previewData struct {
	Path       string
	Title      string
	HTML       template.HTML
	Query      string
	Highlights int
	Target     int
}

func parsePreviewTemplate() (*template.Template, error) {
	return template.ParseFS(vesper.TemplateFS, "templates/preview.html")
}

func isMarkdown(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// handlePreview renders a workspace markdown file. With ?q= every occurrence of the
// keyword is marked, and ?target=N marks the Nth one as the scroll target.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("path")
	if !isMarkdown(name) {
		s.respondWithBadRequest(w, "only markdown files can be previewed")
		return
	}

	content, err := s.workspace.ReadFile(name)
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	target, _ := strconv.Atoi(r.URL.Query().Get("target"))

	rendered := s.renderer.RenderWithOptions(content, rendering.RenderOptions{
		SearchQuery: query,
		TargetIndex: target,
	})
	if rendered.Title == "" {
		rendered.Title = strings.TrimSuffix(path.Base(name), path.Ext(name))
	}

	data := previewData{
		Path:       name,
		Title:      rendered.Title,
		HTML:       rendered.HTML,
		Query:      query,
		Highlights: rendered.Highlights,
		Target:     target,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.previewTempl.Execute(w, data); err != nil {
		s.respondWithError(w, r, err)
	}
}
