package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// Views renders the embedded HTML templates. Pages are rendered into a
// buffer first so a template error never leaks a half-written body.
type Views struct {
	templates *template.Template
}

// NewViews parses the embedded templates.
func NewViews() (*Views, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Views{templates: templates}, nil
}

// Render writes the named page with a 200 status.
func (v *Views) Render(w http.ResponseWriter, name string, data any) error {
	return v.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus writes the named page with an explicit status code.
func (v *Views) RenderStatus(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := v.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
