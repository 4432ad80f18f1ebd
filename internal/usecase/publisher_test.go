package usecase

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/naka-gawa/wiki-edit-report/internal/artifact"
	"github.com/naka-gawa/wiki-edit-report/internal/domain"
	"github.com/naka-gawa/wiki-edit-report/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_Publish(t *testing.T) {
	dir := t.TempDir()
	publisher, err := NewPublisher(render.Formats, log.New(io.Discard, "", 0))
	require.NoError(t, err)

	length := 1
	report := &domain.Report{
		PageURL:        pageURL,
		PageTitle:      "Example",
		Username:       "Alice",
		TotalRevisions: 1,
		Revisions: []domain.Entry{{
			RevisionID:    10,
			Timestamp:     day(1),
			Comment:       "edit 10",
			ContentLength: &length,
			Changes:       &domain.Changes{Added: 1, Diff: "+a"},
		}},
	}
	captured := time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC)

	paths, err := publisher.Publish(context.Background(), dir, report, "", captured)
	require.NoError(t, err)

	base := filepath.Join(dir, "wikipedia_edit_report_20240305_070809")
	assert.Equal(t, []string{base + ".json", base + ".html", base + ".md"}, paths)

	loaded, err := artifact.Load(paths[0])
	require.NoError(t, err)
	assert.Equal(t, report, loaded)

	html, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Contains(t, string(html), "Wikipedia Edit Report for Alice on Example")

	md, err := os.ReadFile(paths[2])
	require.NoError(t, err)
	assert.Contains(t, string(md), "## Revision 10")
}

func TestPublisher_RenderDocuments_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	publisher, err := NewPublisher([]render.Format{render.FormatHTML}, log.New(io.Discard, "", 0))
	require.NoError(t, err)

	doc := render.NewDocument(&domain.Report{Revisions: []domain.Entry{}}, "t", time.Now())
	_, err = publisher.RenderDocuments(ctx, filepath.Join(t.TempDir(), "r.json"), doc)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPublisher_UnknownFormat(t *testing.T) {
	_, err := NewPublisher([]render.Format{"pdf"}, log.New(io.Discard, "", 0))
	assert.Error(t, err)
}
