package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

// HTMLRenderer renders a report as a standalone HTML page.
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer parses the embedded page template.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	funcMap := template.FuncMap{
		"diffLines": SplitDiff,
		"deref":     func(n *int) int { return *n },
		"timestamp": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	}
	tmpl, err := template.New("report.html.tmpl").Funcs(funcMap).ParseFS(templateFS, "templates/report.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML template: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

type htmlData struct {
	Document
	CapturedAt string
	Summary    Summary
}

// Render writes doc as HTML.
func (r *HTMLRenderer) Render(w io.Writer, doc Document) error {
	data := htmlData{
		Document:   doc,
		CapturedAt: doc.CapturedAt.Format(capturedLayout),
		Summary:    Summarize(doc.Report),
	}
	if err := r.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute HTML template: %w", err)
	}
	return nil
}

// Extension implements Renderer.
func (r *HTMLRenderer) Extension() string { return ".html" }
