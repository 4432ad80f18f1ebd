// Package render turns a finished report into human-readable documents.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/naka-gawa/wiki-edit-report/internal/domain"
)

// Format identifies a document format.
type Format string

// Supported document formats.
const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// Formats lists every supported format.
var Formats = []Format{FormatHTML, FormatMarkdown}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (supported: html, markdown)", s)
}

// Document is the input of a Renderer.
type Document struct {
	Title      string
	CapturedAt time.Time
	Report     *domain.Report
}

// NewDocument builds a Document, falling back to DefaultTitle when title is empty.
func NewDocument(report *domain.Report, title string, capturedAt time.Time) Document {
	if title == "" {
		title = DefaultTitle(report)
	}
	return Document{Title: title, CapturedAt: capturedAt, Report: report}
}

// DefaultTitle is the document title used when none is given.
func DefaultTitle(report *domain.Report) string {
	return fmt.Sprintf("Wikipedia Edit Report for %s on %s", report.Username, report.PageTitle)
}

// Renderer writes a Document in one format.
type Renderer interface {
	Render(w io.Writer, doc Document) error
	// Extension is the file extension of the rendered document, including the dot.
	Extension() string
}

// New returns the Renderer for format.
func New(format Format) (Renderer, error) {
	switch format {
	case FormatHTML:
		return NewHTMLRenderer()
	case FormatMarkdown:
		return NewMarkdownRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

const capturedLayout = "2006-01-02 15:04:05 MST"

// DiffLine is one signed line of a revision diff.
type DiffLine struct {
	Text string
	// Kind is "addition", "deletion" or "" for anything else.
	Kind string
}

// SplitDiff splits a diff text into lines classified by their sign.
func SplitDiff(diff string) []DiffLine {
	if diff == "" {
		return nil
	}
	raw := strings.Split(diff, "\n")
	lines := make([]DiffLine, 0, len(raw))
	for _, l := range raw {
		var kind string
		switch {
		case strings.HasPrefix(l, "+"):
			kind = "addition"
		case strings.HasPrefix(l, "-"):
			kind = "deletion"
		}
		lines = append(lines, DiffLine{Text: l, Kind: kind})
	}
	return lines
}
