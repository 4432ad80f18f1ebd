package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/naka-gawa/wiki-edit-report/internal/domain"
)

// MarkdownRenderer renders a report as GitHub-flavored Markdown.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Extension implements Renderer.
func (r *MarkdownRenderer) Extension() string { return ".md" }

// Render writes doc as Markdown.
func (r *MarkdownRenderer) Render(w io.Writer, doc Document) error {
	md := markdown.NewMarkdown(w)
	report := doc.Report

	md.H1(doc.Title)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Page", markdown.Link(report.PageTitle, report.PageURL)},
			{"User", report.Username},
			{"Total Revisions", strconv.Itoa(report.TotalRevisions)},
			{"Captured On", doc.CapturedAt.Format(capturedLayout)},
		},
	})
	md.PlainText("")

	r.writeSummary(md, Summarize(report))
	for _, e := range report.Revisions {
		r.writeEntry(md, e)
	}

	if err := md.Build(); err != nil {
		return fmt.Errorf("failed to write markdown: %w", err)
	}
	return nil
}

func (r *MarkdownRenderer) writeSummary(md *markdown.Markdown, s Summary) {
	if s.Diffed == 0 {
		return
	}
	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Characters", "Total", "Mean", "Median"},
		Rows: [][]string{
			{"Added", strconv.Itoa(s.Added), formatFloat(s.MeanAdded), formatFloat(s.MedianAdded)},
			{"Removed", strconv.Itoa(s.Removed), formatFloat(s.MeanRemoved), formatFloat(s.MedianRemoved)},
		},
	})
	md.PlainText("")
	if s.Warnings > 0 {
		md.Warningf("%d revision(s) had no content and were not diffed.", s.Warnings)
		md.PlainText("")
	}
}

func (r *MarkdownRenderer) writeEntry(md *markdown.Markdown, e domain.Entry) {
	md.H2(fmt.Sprintf("Revision %d", e.RevisionID))
	md.PlainText("")
	items := []string{
		markdown.Bold("Timestamp:") + " " + e.Timestamp.UTC().Format(time.RFC3339),
		markdown.Bold("Comment:") + " " + e.Comment,
	}
	if e.HasContent() {
		items = append(items,
			markdown.Bold("Content Length:")+" "+strconv.Itoa(*e.ContentLength)+" characters",
			markdown.Bold("Added:")+" "+strconv.Itoa(e.Changes.Added)+" characters",
			markdown.Bold("Removed:")+" "+strconv.Itoa(e.Changes.Removed)+" characters",
		)
	}
	md.BulletList(items...)
	md.PlainText("")

	switch {
	case !e.HasContent():
		md.Warningf("%s", e.Warning)
		md.PlainText("")
	case e.Changes.Diff == "":
		md.PlainText("No visible changes in the content.")
		md.PlainText("")
	default:
		fence := codeFence(e.Changes.Diff)
		md.PlainText(fence + "diff\n" + e.Changes.Diff + "\n" + fence)
		md.PlainText("")
	}
}

// codeFence returns a backtick fence longer than any backtick run in text.
func codeFence(text string) string {
	longest, run := 0, 0
	for _, c := range text {
		if c != '`' {
			run = 0
			continue
		}
		run++
		longest = max(longest, run)
	}
	return strings.Repeat("`", max(3, longest+1))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
